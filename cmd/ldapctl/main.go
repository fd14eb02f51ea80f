// Command ldapctl browses LDAP clusters through the console backend.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/devplatform/ldap-console/internal/console"
	"github.com/devplatform/ldap-console/internal/directory"
)

var (
	serverURL   string
	timeout     time.Duration
	logLevel    string
	pageSize    int
	statsWindow int
	maxPageSize int

	personClasses  []string
	roleAttribute  string
	realmAttribute string
	adminAttribute string
)

// settings mirrors the backend variables that change how entries are paged and classified,
// so client-side rendering and stats agree with the server
type settings struct {
	MaxPageSize    int      `envconfig:"MAX_PAGE_SIZE" default:"1000"`
	PersonClasses  []string `envconfig:"PERSON_CLASSES"`
	RoleAttribute  string   `envconfig:"ROLE_ATTRIBUTE" default:"role"`
	RealmAttribute string   `envconfig:"REALM_ATTRIBUTE" default:"kingdom"`
	AdminAttribute string   `envconfig:"ADMIN_ATTRIBUTE" default:"isAdmin"`
}

var rootCmd = &cobra.Command{
	Use:           "ldapctl",
	Short:         "Browse LDAP clusters through the console backend",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&serverURL, "server", envOr("LDAPCTL_SERVER", "http://localhost:8080"), "Console backend URL (env LDAPCTL_SERVER)")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 30*time.Second, "Request timeout")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "Log level for diagnostics on stderr")
	rootCmd.PersistentFlags().IntVar(&pageSize, "page-size", 10, "Entries per page")
	rootCmd.PersistentFlags().IntVar(&statsWindow, "stats-window", 1000, "Entries fetched when computing stats client-side, in pages of at most --max-page-size")
	rootCmd.PersistentFlags().IntVar(&maxPageSize, "max-page-size", 1000, "Largest page the backend accepts (env MAX_PAGE_SIZE)")
	rootCmd.PersistentFlags().StringSliceVar(&personClasses, "person-class", nil, "Extra objectClasses classified as users (env PERSON_CLASSES)")
	rootCmd.PersistentFlags().StringVar(&roleAttribute, "role-attribute", "role", "Attribute holding a user's role (env ROLE_ATTRIBUTE)")
	rootCmd.PersistentFlags().StringVar(&realmAttribute, "realm-attribute", "kingdom", "Attribute shown under the role (env REALM_ATTRIBUTE)")
	rootCmd.PersistentFlags().StringVar(&adminAttribute, "admin-attribute", "isAdmin", "Attribute flagging admin users (env ADMIN_ATTRIBUTE)")

	rootCmd.AddCommand(clustersCmd)
	rootCmd.AddCommand(connectCmd)
	rootCmd.AddCommand(browseCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(healthCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func newLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{DisableTimestamp: true})

	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		level = logrus.WarnLevel
	}
	logger.SetLevel(level)
	return logger
}

// loadSettings reads the environment, then applies any flag set on the command line
func loadSettings(cmd *cobra.Command) (settings, error) {
	var st settings
	if err := envconfig.Process("", &st); err != nil {
		return st, fmt.Errorf("invalid environment: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("max-page-size") {
		st.MaxPageSize = maxPageSize
	}
	if flags.Changed("person-class") {
		st.PersonClasses = personClasses
	}
	if flags.Changed("role-attribute") {
		st.RoleAttribute = roleAttribute
	}
	if flags.Changed("realm-attribute") {
		st.RealmAttribute = realmAttribute
	}
	if flags.Changed("admin-attribute") {
		st.AdminAttribute = adminAttribute
	}
	return st, nil
}

func (st settings) classifierOptions() directory.Options {
	return directory.Options{
		PersonClasses:  st.PersonClasses,
		RoleAttribute:  st.RoleAttribute,
		RealmAttribute: st.RealmAttribute,
		AdminAttribute: st.AdminAttribute,
	}
}

// newConsole builds the client stack shared by every command
func newConsole(cmd *cobra.Command) (*console.Console, *console.HTTPClient, error) {
	st, err := loadSettings(cmd)
	if err != nil {
		return nil, nil, err
	}

	logger := newLogger()
	client := console.NewHTTPClient(serverURL, timeout, logger)
	c := console.New(client, console.Options{
		PageSize:    pageSize,
		StatsWindow: statsWindow,
		MaxPageSize: st.MaxPageSize,
		Classifier:  directory.NewClassifier(st.classifierOptions()),
	}, logger)
	return c, client, nil
}
