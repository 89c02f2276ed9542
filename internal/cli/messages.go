package cli

import (
	"github.com/BloggingApp/feed-service/internal/dto"
	"github.com/spf13/cobra"
)

func newMessageCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "message",
		Short: "Contact form commands",
	}
	cmd.AddCommand(newMessageSendCmd(app))
	return cmd
}

func newMessageSendCmd(app *App) *cobra.Command {
	var input dto.MessageInput

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message to the blog owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			msg, err := app.services.Message.Send(cmd.Context(), input)
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, msg)
		},
	}

	cmd.Flags().StringVar(&input.Name, "name", "", "Your name")
	cmd.Flags().StringVar(&input.Email, "email", "", "Reply address")
	cmd.Flags().StringVar(&input.Message, "message", "", "Message body")
	_ = cmd.MarkFlagRequired("email")
	_ = cmd.MarkFlagRequired("message")
	return cmd
}
