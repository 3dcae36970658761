package cmd

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rentportal/rentportal-cli/internal/api"
	"github.com/rentportal/rentportal-cli/internal/iocontext"
	"github.com/rentportal/rentportal-cli/internal/outfmt"
	"github.com/rentportal/rentportal-cli/internal/validation"
)

func newMessagesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "messages",
		Aliases: []string{"message", "msg"},
		Short:   "Read and send messages",
	}

	cmd.AddCommand(newMessagesListCmd())
	cmd.AddCommand(newMessagesShowCmd())
	cmd.AddCommand(newMessagesSendCmd())
	cmd.AddCommand(newMessagesReadCmd())

	return cmd
}

func writeMessagesTable(f *outfmt.Formatter, messages []api.Message) {
	f.StartTable([]string{"ID", "FROM", "TO", "SUBJECT", "READ", "SENT"})
	for _, m := range messages {
		f.Row(messageRow(m)...)
	}
	_ = f.EndTable()
}

func messageRow(m api.Message) []string {
	subject := m.Subject
	if subject == "" {
		subject = m.Content
	}
	return []string{
		m.ID,
		m.SenderName,
		m.RecipientName,
		outfmt.Truncate(subject, 40),
		outfmt.YesNo(m.Read),
		outfmt.FormatDate(m.CreatedAt),
	}
}

func newMessagesListCmd() *cobra.Command {
	var unread bool

	cmd := NewListCommand(ListConfig[api.Message]{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List messages",
		Example: strings.TrimSpace(`
  rp messages list --unread
`),
		Fetch: func(ctx context.Context, p *portal, token string) ([]api.Message, error) {
			return p.Messages().List(ctx, token)
		},
		Filter: func(m api.Message) bool {
			return !unread || !m.Read
		},
		Headers:      []string{"ID", "FROM", "TO", "SUBJECT", "READ", "SENT"},
		RowFunc:      messageRow,
		EmptyMessage: "No messages found",
	})
	cmd.Flags().BoolVarP(&unread, "unread", "u", false, "Only unread messages")
	return cmd
}

func newMessagesShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "show <id>",
		Aliases: []string{"get"},
		Short:   "Show one message",
		Args:    cobra.ExactArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			id, err := requireArgID(args, "message ID")
			if err != nil {
				return err
			}

			p, err := getPortal()
			if err != nil {
				return err
			}
			defer p.Close()

			tok, err := p.storedToken(cmdContext(cmd))
			if err != nil {
				return err
			}
			messages, err := withRetry(cmd, func(ctx context.Context) ([]api.Message, error) {
				return p.Messages().List(ctx, tok)
			})
			if err != nil {
				return err
			}
			var msg *api.Message
			for i := range messages {
				if messages[i].ID == id {
					msg = &messages[i]
					break
				}
			}
			if msg == nil {
				return &api.Error{Category: api.CategoryClient, StatusCode: http.StatusNotFound, Message: fmt.Sprintf("Message %s not found", id), Details: api.NoDetails}
			}

			if isJSON(cmd) {
				return printJSON(cmd, msg)
			}
			f := formatter(cmd)
			f.Field("From", msg.SenderName)
			f.Field("To", msg.RecipientName)
			f.Field("Subject", msg.Subject)
			f.Field("Sent", outfmt.FormatDate(msg.CreatedAt))
			f.Field("Read", outfmt.YesNo(msg.Read))
			f.Section(msg.Content)
			return nil
		}),
	}
}

// readContent returns value, or all of stdin when value is "-".
func readContent(cmd *cobra.Command, value string) (string, error) {
	if value != "-" {
		return value, nil
	}
	data, err := io.ReadAll(io.LimitReader(iocontext.GetIO(cmd.Context()).In, validation.MaxMessageLength+1))
	if err != nil {
		return "", fmt.Errorf("reading message from stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\r\n"), nil
}

func newMessagesSendCmd() *cobra.Command {
	var to, subject, content, property string

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a message",
		Example: strings.TrimSpace(`
  rp messages send --to u_42 --subject "Heating" --content "The radiator is cold"

  # Read the body from stdin
  echo "See you at 5" | rp messages send --to u_42 --content -
`),
		Args: cobra.NoArgs,
		RunE: RunE(func(cmd *cobra.Command, _ []string) error {
			recipient, err := validation.ValidateID(to, "recipient")
			if err != nil {
				return err
			}
			body, err := readContent(cmd, content)
			if err != nil {
				return err
			}
			if err := validation.ValidateMessageContent(body); err != nil {
				return err
			}
			in := api.MessageInput{
				RecipientID: recipient,
				Subject:     subject,
				Content:     body,
				PropertyID:  property,
			}
			if done, err := previewMutation(cmd, "send", "message", "", in); done {
				return err
			}

			p, err := getPortal()
			if err != nil {
				return err
			}
			defer p.Close()

			tok, err := p.storedToken(cmdContext(cmd))
			if err != nil {
				return err
			}
			msg, err := p.Messages().Send(cmdContext(cmd), tok, in)
			if err != nil {
				return err
			}
			if isJSON(cmd) {
				return printJSON(cmd, msg)
			}
			printAction(cmd, "Sent", "message", msg.ID, "")
			return nil
		}),
	}

	cmd.Flags().StringVarP(&to, "to", "t", "", "Recipient user ID (required)")
	cmd.Flags().StringVarP(&subject, "subject", "s", "", "Subject")
	cmd.Flags().StringVarP(&content, "content", "c", "", "Message body, or - for stdin (required)")
	cmd.Flags().StringVar(&property, "property", "", "Related property ID")
	flagAlias(cmd.Flags(), "content", "body")
	addDryRunFlag(cmd)
	_ = cmd.MarkFlagRequired("to")
	_ = cmd.MarkFlagRequired("content")
	return cmd
}

func newMessagesReadCmd() *cobra.Command {
	var concurrency int64

	cmd := &cobra.Command{
		Use:   "read <id>...",
		Short: "Mark messages as read",
		Args:  cobra.MinimumNArgs(1),
		RunE: RunE(func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDArgs(args, "message ID")
			if err != nil {
				return err
			}

			p, err := getPortal()
			if err != nil {
				return err
			}
			defer p.Close()

			tok, err := p.storedToken(cmdContext(cmd))
			if err != nil {
				return err
			}
			results := runBulkOperation(cmdContext(cmd), ids, concurrency, bulkProgress(cmd), func(ctx context.Context, id string) (*api.Message, error) {
				return p.Messages().MarkRead(ctx, tok, id)
			})
			return reportBulk(cmd, "Marked read", "message", results)
		}),
	}

	cmd.Flags().Int64VarP(&concurrency, "concurrency", "c", DefaultConcurrency, "Parallel requests")
	return cmd
}
