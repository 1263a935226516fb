package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Backland-Labs/outreach/internal/dify"
)

// newChatCommand creates the chat subcommand, one turn with the support assistant
func newChatCommand(deps *Dependencies, configPath *string) *cobra.Command {
	var conversationID string
	var user string

	cmd := &cobra.Command{
		Use:   "chat <query>",
		Short: "Ask the support assistant a question",
		Long: `Ask the support assistant a question. The answer is printed as it
streams. Pass --conversation with the printed id to continue a conversation.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			query := strings.TrimSpace(strings.Join(args, " "))
			if query == "" {
				return errors.New("query must not be empty")
			}

			a, err := setup(deps, *configPath, clientOptions{})
			if err != nil {
				return err
			}
			if !a.client.HasEndpoint(chatEndpoint) {
				return errors.New("chat is not configured; set OUTREACH_CHAT_API_KEY or OUTREACH_DIFY_API_KEY")
			}

			ctx, cancel := withInterrupt(cmd.Context(), a.printer)
			defer cancel()

			streamed := false
			reply, err := a.client.Chat(ctx, chatEndpoint, dify.ChatRequest{
				Query:          query,
				ConversationID: conversationID,
				User:           user,
			}, func(delta string) {
				streamed = true
				a.printer.Print("%s", delta)
			})
			if streamed {
				a.printer.Println()
			}
			if err != nil {
				return fmt.Errorf("chat failed: %s", dify.Message(err))
			}

			if !streamed {
				a.printer.Println(reply.Text())
			}
			if reply.ConversationID != "" {
				a.printer.Detail("conversation: %s", reply.ConversationID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&conversationID, "conversation", "", "Continue an earlier conversation")
	cmd.Flags().StringVar(&user, "user", "", "Caller identity (default from config)")

	return cmd
}
