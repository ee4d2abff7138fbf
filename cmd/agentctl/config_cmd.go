package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
)

func newConfigCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change agentctl settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			token := "(not set)"
			if cfg.Token != "" {
				token = "(set)"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "server_url: %s\n", cfg.ServerURL)
			fmt.Fprintf(out, "token:      %s\n", token)
			if !cfg.TokenExpiry.IsZero() {
				fmt.Fprintf(out, "expires:    %s\n", cfg.TokenExpiry.Format(time.RFC3339))
			}
			if cfg.Subject != "" {
				fmt.Fprintf(out, "subject:    %s\n", cfg.Subject)
			}
			if cfg.OAuth.configured() {
				fmt.Fprintf(out, "oauth:      %s (client %s)\n", cfg.OAuth.TokenURL, cfg.OAuth.ClientID)
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set <key> <value>",
		Short: "Persist a setting (server_url, token, subject, oauth.client_id, oauth.device_auth_url, oauth.token_url, oauth.scopes)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := opts.resolveConfigPath()
			if err != nil {
				return err
			}
			// file values only, so environment overrides are not written back
			cfg, err := loadFileConfig(path)
			if err != nil {
				return err
			}
			if err := cfg.set(args[0], args[1]); err != nil {
				return err
			}
			if err := saveConfig(path, cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s updated in %s\n", args[0], path)
			return nil
		},
	})
	return cmd
}
