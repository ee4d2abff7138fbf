package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/janhq/agent-middleware/pkg/client"
)

func newConversationsCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "conversations",
		Aliases: []string{"conv"},
		Short:   "Manage tracked conversations",
	}
	cmd.AddCommand(newConversationsListCmd(opts))
	cmd.AddCommand(newConversationsCreateCmd(opts))
	cmd.AddCommand(newConversationsTouchCmd(opts))
	cmd.AddCommand(newConversationsRenameCmd(opts))
	cmd.AddCommand(newConversationsDeleteCmd(opts))
	return cmd
}

func newConversationsListCmd(opts *rootOptions) *cobra.Command {
	var limit, offset int

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List conversations, most recently active first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(cmd.Context())
			if err != nil {
				return err
			}
			page, err := c.ListConversations(cmd.Context(), limit, offset)
			if err != nil {
				return err
			}
			return printConversations(cmd.OutOrStdout(), page.Data)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 0, "page size (server default 50, max 200)")
	cmd.Flags().IntVar(&offset, "offset", 0, "rows to skip")
	return cmd
}

func newConversationsCreateCmd(opts *rootOptions) *cobra.Command {
	var title string

	cmd := &cobra.Command{
		Use:   "create <thread-id>",
		Short: "Track an agent thread",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(cmd.Context())
			if err != nil {
				return err
			}
			var titlePtr *string
			if cmd.Flags().Changed("title") {
				titlePtr = &title
			}
			conv, err := c.CreateConversation(cmd.Context(), args[0], titlePtr)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), conv)
		},
	}
	cmd.Flags().StringVar(&title, "title", "", "conversation title")
	return cmd
}

func newConversationsTouchCmd(opts *rootOptions) *cobra.Command {
	var byThread bool

	cmd := &cobra.Command{
		Use:   "touch <conversation-id>",
		Short: "Record new activity on a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := opts.client(cmd.Context())
			if err != nil {
				return err
			}

			var conv *client.Conversation
			if byThread {
				conv, err = c.TouchThread(cmd.Context(), args[0])
			} else {
				id, parseErr := parseID(args[0])
				if parseErr != nil {
					return parseErr
				}
				conv, err = c.TouchConversation(cmd.Context(), id)
			}
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), conv)
		},
	}
	cmd.Flags().BoolVar(&byThread, "thread", false, "treat the argument as an external thread id")
	return cmd
}

func newConversationsRenameCmd(opts *rootOptions) *cobra.Command {
	var clearTitle bool

	cmd := &cobra.Command{
		Use:   "rename <conversation-id> [title]",
		Short: "Set or clear a conversation title",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			var title *string
			switch {
			case clearTitle:
			case len(args) == 2:
				title = &args[1]
			default:
				return fmt.Errorf("pass a title or --clear")
			}

			c, err := opts.client(cmd.Context())
			if err != nil {
				return err
			}
			conv, err := c.RenameConversation(cmd.Context(), id, title)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), conv)
		},
	}
	cmd.Flags().BoolVar(&clearTitle, "clear", false, "remove the title")
	return cmd
}

func newConversationsDeleteCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <conversation-id>",
		Short: "Stop tracking a conversation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			c, err := opts.client(cmd.Context())
			if err != nil {
				return err
			}
			if err := c.DeleteConversation(cmd.Context(), id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "conversation %d deleted\n", id)
			return nil
		},
	}
}

func printConversations(out io.Writer, items []client.Conversation) error {
	if len(items) == 0 {
		_, err := fmt.Fprintln(out, "no conversations")
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTHREAD\tTITLE\tLAST ACTIVITY")
	for _, conv := range items {
		title := "-"
		if conv.Title != nil && *conv.Title != "" {
			title = *conv.Title
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\n", conv.ID, conv.ExternalThreadID, title, conv.LastMessageAt.Local().Format(time.RFC3339))
	}
	return tw.Flush()
}

func parseID(raw string) (uint, error) {
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid conversation id %q", raw)
	}
	return uint(id), nil
}
