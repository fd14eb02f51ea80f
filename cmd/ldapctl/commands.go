package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/devplatform/ldap-console/internal/console"
	"github.com/devplatform/ldap-console/internal/models"
)

var (
	browseFilter string
	browseSearch string
	browsePage   int

	statsServer bool

	healthNodes    bool
	healthActivity bool

	passwordStdin bool
)

var clustersCmd = &cobra.Command{
	Use:   "clusters",
	Short: "List registered clusters and whether a bind password is cached",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		c, _, err := newConsole(cmd)
		if err != nil {
			return err
		}
		clusters := c.Load(cmd.Context())
		renderClusters(cmd.OutOrStdout(), c, clusters)
		return nil
	},
}

var connectCmd = &cobra.Command{
	Use:   "connect CLUSTER",
	Short: "Submit and cache the bind password of a cluster",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _, err := newConsole(cmd)
		if err != nil {
			return err
		}
		c.Load(cmd.Context())

		s := c.Session(args[0])
		if err := s.Gate.RequestEntry(); err == nil {
			fmt.Fprintf(cmd.OutOrStdout(), "Password for %s is already cached\n", args[0])
			return nil
		}
		if err := submitPassword(cmd, s); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Connected to %s\n", args[0])
		return nil
	},
}

var browseCmd = &cobra.Command{
	Use:   "browse CLUSTER",
	Short: "Page through directory entries",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		category, err := models.ParseCategoryFilter(browseFilter)
		if err != nil {
			return err
		}

		c, _, err := newConsole(cmd)
		if err != nil {
			return err
		}
		c.Load(cmd.Context())

		s, err := enter(cmd, c, args[0])
		if err != nil {
			return err
		}

		s.Paginator.SetCategoryFilter(category)
		s.Paginator.SetSearchText(browseSearch)
		s.Paginator.SetPage(browsePage)
		if err := s.Search(cmd.Context()); err != nil {
			return fmt.Errorf("search failed: %w", err)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s  %s\n\n", category.Title(), s.Probe.Badge())
		renderEntries(out, c.Classifier(), category, s.Paginator.Result().Entries)
		renderPager(out, s.Paginator)
		return nil
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats CLUSTER",
	Short: "Count users and groups over the first entries of a cluster",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, client, err := newConsole(cmd)
		if err != nil {
			return err
		}
		c.Load(cmd.Context())

		s, err := enter(cmd, c, args[0])
		if err != nil {
			return err
		}

		var stats models.DirectoryStats
		if statsServer {
			res, err := client.GetStats(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			stats = *res
		} else if stats, err = s.LoadStats(cmd.Context()); err != nil {
			return err
		}

		renderStats(cmd.OutOrStdout(), stats)
		return nil
	},
}

var healthCmd = &cobra.Command{
	Use:   "health CLUSTER",
	Short: "Show the live health of a cluster",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, client, err := newConsole(cmd)
		if err != nil {
			return err
		}
		c.Load(cmd.Context())

		s := c.Session(args[0])
		s.Probe.Refresh(cmd.Context())
		out := cmd.OutOrStdout()
		renderHealth(out, s.Probe)

		if healthNodes {
			metrics, err := client.GetNodeMetrics(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			renderNodes(out, metrics)
		}
		if healthActivity {
			logs, err := client.GetActivity(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(out)
			renderActivity(out, logs)
		}
		return nil
	},
}

func init() {
	browseCmd.Flags().StringVar(&browseFilter, "filter", "all", "Category: all, users, groups or ous")
	browseCmd.Flags().StringVar(&browseSearch, "search", "", "Match uid, cn, mail or sn")
	browseCmd.Flags().IntVar(&browsePage, "page", 1, "Page number")

	statsCmd.Flags().BoolVar(&statsServer, "server-side", false, "Ask the backend to aggregate instead of fetching the window")

	healthCmd.Flags().BoolVar(&healthNodes, "nodes", false, "Also show per-node replication status")
	healthCmd.Flags().BoolVar(&healthActivity, "activity", false, "Also show cn=Monitor operation counters")

	for _, cmd := range []*cobra.Command{connectCmd, browseCmd, statsCmd} {
		cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "Read the bind password from stdin")
	}
}

// enter opens the cluster, prompting for its bind password when none is cached
func enter(cmd *cobra.Command, c *console.Console, name string) (*console.Session, error) {
	s, err := c.Enter(cmd.Context(), name)
	if !errors.Is(err, console.ErrCredentialRequired) {
		return s, err
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "No password cached for %s\n", name)
	if err := submitPassword(cmd, s); err != nil {
		return nil, err
	}
	return c.Enter(cmd.Context(), name)
}

func submitPassword(cmd *cobra.Command, s *console.Session) error {
	password, err := readPassword(cmd, s.Cluster)
	if err != nil {
		s.Gate.ClosePrompt()
		return err
	}

	if err := s.Gate.Submit(cmd.Context(), password); err != nil {
		var verr *console.ValidationError
		if errors.As(err, &verr) {
			return verr
		}
		return fmt.Errorf("connect to %s failed: %s", s.Cluster.Name, s.Gate.PromptError())
	}
	return nil
}

func readPassword(cmd *cobra.Command, cluster models.Cluster) (string, error) {
	if passwordStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", err
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("stdin is not a terminal, use --password-stdin")
	}

	prompt := fmt.Sprintf("Bind password for %s", cluster.Name)
	if cluster.BindDN != "" {
		prompt += fmt.Sprintf(" (%s)", cluster.BindDN)
	}
	fmt.Fprint(cmd.ErrOrStderr(), prompt+": ")
	raw, err := term.ReadPassword(fd)
	fmt.Fprintln(cmd.ErrOrStderr())
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(raw), nil
}
