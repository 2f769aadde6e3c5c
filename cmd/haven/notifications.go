package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/naveenspark/haven/internal/store"
	"github.com/naveenspark/haven/pkg/domain"
)

// storeErr reports why a store operation returned false.
func storeErr(ok bool, f *store.Failure) error {
	if ok {
		return nil
	}
	if f == nil {
		return errors.New("request was superseded, try again")
	}
	return f
}

func newNotificationsCmd(c *cli) *cobra.Command {
	var unreadOnly bool
	list := func(cmd *cobra.Command, _ []string) error {
		svc, err := c.session()
		if err != nil {
			return err
		}
		n := svc.Notifications
		if err := storeErr(n.Refresh(cmd.Context()), n.LastError()); err != nil {
			return err
		}
		printNotifications(c.out, n.Items(), unreadOnly)
		return nil
	}

	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"inbox"},
		Short:   "List, count and mark notifications",
		Args:    cobra.NoArgs,
		RunE:    list,
	}
	cmd.PersistentFlags().BoolVarP(&unreadOnly, "unread", "u", false, "only show unread notifications")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List notifications, newest first",
			Args:  cobra.NoArgs,
			RunE:  list,
		},
		&cobra.Command{
			Use:   "count",
			Short: "Print the unread count",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				svc, err := c.session()
				if err != nil {
					return err
				}
				count, err := svc.Client.UnreadCount(cmd.Context())
				if err != nil {
					return err
				}
				fmt.Fprintln(c.out, count) //nolint:errcheck
				return nil
			},
		},
		&cobra.Command{
			Use:   "read <id>",
			Short: "Mark one notification read",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				svc, err := c.session()
				if err != nil {
					return err
				}
				n := svc.Notifications
				if err := storeErr(n.MarkRead(cmd.Context(), domain.ID(args[0])), n.LastError()); err != nil {
					return fmt.Errorf("mark read: %w", err)
				}
				c.console.Info("notification " + args[0] + " marked read")
				return nil
			},
		},
		&cobra.Command{
			Use:   "read-all",
			Short: "Mark every notification read",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				svc, err := c.session()
				if err != nil {
					return err
				}
				n := svc.Notifications
				if err := storeErr(n.Refresh(cmd.Context()), n.LastError()); err != nil {
					return err
				}
				unread := n.UnreadCount()
				if unread == 0 {
					c.console.Info("nothing unread")
					return nil
				}
				if err := storeErr(n.MarkAllRead(cmd.Context()), n.LastError()); err != nil {
					return fmt.Errorf("mark all read: %w", err)
				}
				c.console.Info(fmt.Sprintf("marked %d read, all caught up", unread))
				return nil
			},
		},
	)
	return cmd
}

func printNotifications(w io.Writer, items []domain.Notification, unreadOnly bool) {
	shown := 0
	for _, n := range items {
		if unreadOnly && !n.Unread() {
			continue
		}
		marker := " "
		if n.Unread() {
			marker = "•"
		}
		msg := n.Message
		if msg == "" {
			msg = string(n.Type) + " notification"
		}
		fmt.Fprintf(w, "%s %-6s %-12s %-12s %s\n", //nolint:errcheck
			marker, n.ID, n.Type, n.CreatedAt.Local().Format("Jan 2 15:04"), msg)
		shown++
	}
	if shown == 0 {
		fmt.Fprintln(w, dimStyle.Render("no notifications")) //nolint:errcheck
	}
}
