package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	apperrors "github.com/jrsteele09/kaziflow-client/internal/errors"
	"github.com/jrsteele09/kaziflow-client/notifications"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

func notificationsCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notes"},
		Short:   "Read your notifications",
	}

	var unreadOnly bool
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			list, err := a.API.ListNotifications(cmd.Context())
			if err != nil {
				return err
			}
			printNotifications(cmd.OutOrStdout(), newPainter(opts), list, unreadOnly)
			return nil
		},
	}
	listCmd.Flags().BoolVar(&unreadOnly, "unread", false, "Only unread notifications")

	readCmd := &cobra.Command{
		Use:   "read <id>",
		Short: "Mark a notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.Notifications.MarkAsRead(cmd.Context(), args[0]) {
				return errors.Wrapf(apperrors.ErrServer, "[notifications read] %s was not acknowledged", args[0])
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Marked %s as read, %d unread\n", args[0], a.Notifications.UnreadCount())
			return nil
		},
	}

	var duration time.Duration
	watchCmd := &cobra.Command{
		Use:   "watch",
		Short: "Poll for notifications until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.Store.Current().Authenticated() {
				return errors.Wrap(apperrors.ErrNotAuthenticated, "[notifications watch] log in first")
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			if duration > 0 {
				var cancel context.CancelFunc
				ctx, cancel = context.WithTimeout(ctx, duration)
				defer cancel()
			}

			a.Start(ctx)
			watchNotifications(ctx, cmd.OutOrStdout(), newPainter(opts), a.Notifications)
			return nil
		},
	}
	watchCmd.Flags().DurationVar(&duration, "for", 0, "Stop after this long, 0 watches until interrupted")

	cmd.AddCommand(listCmd, readCmd, watchCmd)
	return cmd
}

// watchNotifications prints each notification the first time it shows up in
// the poller's snapshot.
func watchNotifications(ctx context.Context, out io.Writer, p painter, poller *notifications.Poller) {
	seen := make(map[string]bool)
	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		var fresh []notifications.Notification
		for _, n := range poller.Snapshot() {
			if !seen[n.ID] {
				seen[n.ID] = true
				fresh = append(fresh, n)
			}
		}
		if len(fresh) > 0 {
			printNotifications(out, p, fresh, false)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func printNotifications(out io.Writer, p painter, list []notifications.Notification, unreadOnly bool) {
	printed := 0
	for _, n := range list {
		if unreadOnly && n.IsRead {
			continue
		}
		marker := p.paint(Gray, " ")
		if !n.IsRead {
			marker = p.paint(Yellow, "*")
		}
		fmt.Fprintf(out, "%s %s  %s  %s\n", marker, n.CreatedAt.Local().Format("2006-01-02 15:04"), n.ID, n.Title)
		if n.Message != "" {
			fmt.Fprintf(out, "    %s\n", n.Message)
		}
		printed++
	}
	if printed == 0 {
		fmt.Fprintln(out, "No notifications.")
		return
	}
	fmt.Fprintf(out, "%d unread\n", notifications.CountUnread(list))
}
