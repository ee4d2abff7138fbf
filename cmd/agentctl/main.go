package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/janhq/agent-middleware/pkg/client"
)

// Version info set via ldflags at build time.
var Version = "dev"

type rootOptions struct {
	configPath string
	serverURL  string
	token      string
	subject    string
	timeout    time.Duration
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "agentctl",
		Short:         "Command-line client for the agent middleware API",
		Long:          "agentctl manages your identity, profile and tracked conversations on an agent middleware server.",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.configPath, "config", "", "config file (default ~/.agentctl.yaml)")
	cmd.PersistentFlags().StringVar(&opts.serverURL, "server", "", "server base URL (overrides config and "+envServerURL+")")
	cmd.PersistentFlags().StringVar(&opts.token, "token", "", "bearer token (overrides config and "+envToken+")")
	cmd.PersistentFlags().StringVar(&opts.subject, "subject", "", "X-User-Subject for servers with authentication disabled")
	cmd.PersistentFlags().DurationVar(&opts.timeout, "timeout", 30*time.Second, "request timeout")

	cmd.AddCommand(newLoginCmd(opts))
	cmd.AddCommand(newLogoutCmd(opts))
	cmd.AddCommand(newWhoamiCmd(opts))
	cmd.AddCommand(newAccountCmd(opts))
	cmd.AddCommand(newProfileCmd(opts))
	cmd.AddCommand(newConversationsCmd(opts))
	cmd.AddCommand(newConfigCmd(opts))
	return cmd
}

func (o *rootOptions) resolveConfigPath() (string, error) {
	if o.configPath != "" {
		return o.configPath, nil
	}
	return defaultConfigPath()
}

// config merges file, environment and flags, in increasing priority.
func (o *rootOptions) config() (*cliConfig, error) {
	path, err := o.resolveConfigPath()
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig(path)
	if err != nil {
		return nil, err
	}
	if o.serverURL != "" {
		cfg.ServerURL = o.serverURL
	}
	if o.token != "" {
		cfg.Token = o.token
	}
	if o.subject != "" {
		cfg.Subject = o.subject
	}
	return cfg, nil
}

func (o *rootOptions) client(ctx context.Context) (*client.Client, error) {
	cfg, err := o.config()
	if err != nil {
		return nil, err
	}
	if err := o.refreshStoredToken(ctx, cfg); err != nil {
		return nil, err
	}
	return client.New(cfg.ServerURL,
		client.WithToken(cfg.Token),
		client.WithSubject(cfg.Subject),
		client.WithTimeout(o.timeout),
	), nil
}

func newWhoamiCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the identity the server resolves for your credentials",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(cmd.Context())
			if err != nil {
				return err
			}
			me, err := c.GetMe(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), me)
		},
	}
}

func newAccountCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "account",
		Short: "Manage your account",
	}

	var confirm bool
	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete your identity, profile and all tracked conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !confirm {
				return fmt.Errorf("refusing to delete account without --yes")
			}
			c, err := opts.client(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.DeleteMe(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "account deleted")
			return nil
		},
	}
	deleteCmd.Flags().BoolVar(&confirm, "yes", false, "confirm deletion")

	cmd.AddCommand(deleteCmd)
	return cmd
}

func printJSON(out io.Writer, v any) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func execute(cmd *cobra.Command) int {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := cmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute(newRootCmd()))
}
