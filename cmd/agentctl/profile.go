package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/janhq/agent-middleware/pkg/client"
)

func newProfileCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "profile",
		Short: "View or update your agent profile",
	}
	cmd.AddCommand(newProfileGetCmd(opts))
	cmd.AddCommand(newProfileSetCmd(opts))
	return cmd
}

func newProfileGetCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get",
		Short: "Show your profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(cmd.Context())
			if err != nil {
				return err
			}
			p, err := c.GetProfile(cmd.Context())
			if client.IsNotFound(err) {
				fmt.Fprintln(cmd.OutOrStdout(), "no profile yet; create one with 'agentctl profile set'")
				return nil
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}
}

func newProfileSetCmd(opts *rootOptions) *cobra.Command {
	var (
		instructions  string
		workflowsFile string
	)

	cmd := &cobra.Command{
		Use:   "set",
		Short: "Update profile fields; unspecified fields keep their value",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var update client.ProfileUpdate
			if cmd.Flags().Changed("instructions") {
				update.PreferredAgentInstructions = &instructions
			}
			if workflowsFile != "" {
				data, err := os.ReadFile(workflowsFile)
				if err != nil {
					return fmt.Errorf("read workflows file: %w", err)
				}
				workflows := string(data)
				update.CustomWorkflowsJSON = &workflows
			}
			if update.PreferredAgentInstructions == nil && update.CustomWorkflowsJSON == nil {
				return fmt.Errorf("nothing to update: pass --instructions and/or --workflows-file")
			}

			c, err := opts.client(cmd.Context())
			if err != nil {
				return err
			}
			p, err := c.UpdateProfile(cmd.Context(), update)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), p)
		},
	}

	cmd.Flags().StringVar(&instructions, "instructions", "", "preferred agent instructions")
	cmd.Flags().StringVar(&workflowsFile, "workflows-file", "", "path to a custom workflows JSON document")
	return cmd
}
