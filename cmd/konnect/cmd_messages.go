package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/konnect-cli/internal/app"
	"github.com/vovakirdan/konnect-cli/internal/chat"
)

// withLoadedEngine builds a headless app, loads the message log and hands
// both to fn. Every message subcommand needs the same preamble.
func withLoadedEngine(fn func(ctx context.Context, a *app.App) error) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()

	if !a.Session.Credential().Present() {
		return chat.ErrNotLoggedIn
	}

	ctx := context.Background()
	if err := a.Engine.Load(ctx); err != nil {
		return fmt.Errorf("load messages: %w", err)
	}
	return fn(ctx, a)
}

// messagesCmd prints the current message log.
var messagesCmd = &cobra.Command{
	Use:   "messages",
	Short: "List messages",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLoadedEngine(func(ctx context.Context, a *app.App) error {
			msgs := a.Engine.Messages()
			if len(msgs) == 0 {
				fmt.Println("no messages")
				return nil
			}
			for _, m := range msgs {
				marker := " "
				if m.Mine {
					marker = "*"
				}
				author := m.Author
				if author == "" {
					author = "unknown"
				}
				fmt.Printf("%s %s  %-16s %s  (%s)\n",
					marker,
					m.CreatedAt.Local().Format(time.DateTime),
					author,
					m.Text,
					m.ID,
				)
			}
			return nil
		})
	},
}

// sendCmd posts one message.
var sendCmd = &cobra.Command{
	Use:   "send <text>...",
	Short: "Send a message",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLoadedEngine(func(ctx context.Context, a *app.App) error {
			msg, err := a.Engine.Send(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			fmt.Printf("sent %s\n", msg.ID)
			return nil
		})
	},
}

// deleteCmd removes one of our own messages by id.
var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete one of your messages",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withLoadedEngine(func(ctx context.Context, a *app.App) error {
			if err := a.Engine.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Printf("deleted %s\n", args[0])
			return nil
		})
	},
}
