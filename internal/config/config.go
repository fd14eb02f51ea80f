package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"

	"github.com/devplatform/ldap-console/internal/directory"
)

// Config holds all configuration for the directory console backend
type Config struct {
	// Cluster registry
	ClustersFile      string `envconfig:"CLUSTERS_FILE" default:"/etc/ldap-console/clusters.yaml"`
	ClustersConfigMap string `envconfig:"CLUSTERS_CONFIGMAP"`
	ClustersNamespace string `envconfig:"CLUSTERS_NAMESPACE" default:"default"`
	Kubeconfig        string `envconfig:"KUBECONFIG"`

	// Credential cache
	CacheDir      string `envconfig:"CACHE_DIR" default:"/var/cache/ldap-console"`
	CredentialKey string `envconfig:"CREDENTIAL_KEY"`

	// LDAP configuration
	LDAPConnTimeout   time.Duration `envconfig:"LDAP_CONN_TIMEOUT" default:"10s"`
	LDAPSearchTimeout time.Duration `envconfig:"LDAP_SEARCH_TIMEOUT" default:"30s"`
	LDAPPagingSize    uint32        `envconfig:"LDAP_PAGING_SIZE" default:"500"`

	// Browsing
	StatsWindow     int `envconfig:"STATS_WINDOW" default:"1000"`
	DefaultPageSize int `envconfig:"DEFAULT_PAGE_SIZE" default:"10"`
	MaxPageSize     int `envconfig:"MAX_PAGE_SIZE" default:"1000"`

	// Classification
	PersonClasses  []string `envconfig:"PERSON_CLASSES"`
	RoleAttribute  string   `envconfig:"ROLE_ATTRIBUTE" default:"role"`
	RealmAttribute string   `envconfig:"REALM_ATTRIBUTE" default:"kingdom"`
	AdminAttribute string   `envconfig:"ADMIN_ATTRIBUTE" default:"isAdmin"`

	// Server configuration
	Port        int    `envconfig:"PORT" default:"8080"`
	MetricsPort int    `envconfig:"METRICS_PORT" default:"9090"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	// CORS configuration
	CORSOrigins []string `envconfig:"CORS_ORIGINS" default:"*"`

	// Requests per minute per client, 0 disables limiting
	RateLimitRPM int `envconfig:"RATE_LIMIT_RPM" default:"600"`

	// Graceful shutdown timeout
	ShutdownTimeout int `envconfig:"SHUTDOWN_TIMEOUT" default:"30"`
}

// Load reads configuration from environment variables, after merging a local .env file if present
func Load() *Config {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		panic(fmt.Sprintf("failed to load configuration: %v", err))
	}
	if err := cfg.Validate(); err != nil {
		panic(fmt.Sprintf("invalid configuration: %v", err))
	}

	return &cfg
}

// Validate rejects values the service cannot run with
func (c *Config) Validate() error {
	if c.StatsWindow < 1 {
		return fmt.Errorf("STATS_WINDOW must be positive, got %d", c.StatsWindow)
	}
	if c.DefaultPageSize < 1 {
		return fmt.Errorf("DEFAULT_PAGE_SIZE must be positive, got %d", c.DefaultPageSize)
	}
	if c.MaxPageSize < c.DefaultPageSize {
		return fmt.Errorf("MAX_PAGE_SIZE (%d) is below DEFAULT_PAGE_SIZE (%d)", c.MaxPageSize, c.DefaultPageSize)
	}
	if c.LDAPPagingSize == 0 {
		return fmt.Errorf("LDAP_PAGING_SIZE must be positive")
	}
	return nil
}

// ClassifierOptions returns the site-specific classification settings
func (c *Config) ClassifierOptions() directory.Options {
	return directory.Options{
		PersonClasses:  c.PersonClasses,
		RoleAttribute:  c.RoleAttribute,
		RealmAttribute: c.RealmAttribute,
		AdminAttribute: c.AdminAttribute,
	}
}

// UsesConfigMap returns true if clusters come from a Kubernetes ConfigMap instead of a file
func (c *Config) UsesConfigMap() bool {
	return c.ClustersConfigMap != ""
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}
