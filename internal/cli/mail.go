package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/nhle/ghostmail/internal/content"
	"github.com/nhle/ghostmail/internal/model"
	appsync "github.com/nhle/ghostmail/internal/sync"
	"github.com/nhle/ghostmail/internal/term"
)

// loadInbox runs one sync cycle for the active identity. An expired token
// is refreshed once.
func loadInbox(ctx context.Context, env *Env) (appsync.SyncResultMsg, error) {
	active, ok := env.Session.Active()
	if !ok {
		return appsync.SyncResultMsg{}, errNoIdentity
	}
	env.Inbox.Reset(active)

	res := env.Poller.SyncOnce(ctx)
	if res.AuthError {
		term.Debugf("token of %s expired, refreshing", active.Address)
		mb, err := env.Session.RefreshToken(ctx, active.ID)
		if err != nil {
			return res, err
		}
		env.Inbox.UpdateToken(mb.ID, mb.Token)
		res = env.Poller.SyncOnce(ctx)
	}
	if res.Error != nil {
		return res, fmt.Errorf("fetching inbox of %s: %w", active.Address, res.Error)
	}
	if res.Expired > 0 {
		term.Debugf("%d expired messages deleted", res.Expired)
	}
	return res, nil
}

// openMessage loads the inbox, then fetches id in full and marks it seen.
func openMessage(ctx context.Context, env *Env, id string) (*model.FullMessage, error) {
	if _, err := loadInbox(ctx, env); err != nil {
		return nil, err
	}
	return env.Inbox.Open(ctx, id)
}

func newInboxCmd(r *runner) *cobra.Command {
	var unread bool

	cmd := &cobra.Command{
		Use:   "inbox",
		Short: "Fetch and list the messages of the active identity",
		Args:  cobra.NoArgs,
		RunE: r.withEnv(func(ctx context.Context, cmd *cobra.Command, env *Env, _ []string) error {
			if _, err := loadInbox(ctx, env); err != nil {
				return err
			}

			mb := env.Inbox.Mailbox()
			if acc := env.Inbox.Account(); acc != nil && acc.Quota > 0 {
				term.Infof("%s (%s / %s)", mb.Address,
					humanize.Bytes(uint64(acc.Used)), humanize.Bytes(uint64(acc.Quota)))
			} else {
				term.Info(mb.Address)
			}

			msgs := env.Inbox.Messages()
			if len(msgs) == 0 {
				term.Info("no messages")
				return nil
			}

			var rows [][]string
			for _, m := range msgs {
				if unread && m.Seen {
					continue
				}
				rows = append(rows, messageRow(m))
			}
			return term.Table(cmd.OutOrStdout(), []string{"", "ID", "From", "Subject", "Received"}, rows)
		}),
	}

	cmd.Flags().BoolVarP(&unread, "unread", "u", false, "only list unread messages")
	return cmd
}

func messageRow(m model.MailMessage) []string {
	marker := ""
	if !m.Seen {
		marker = "●"
	}
	subject := m.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	return []string{marker, m.ID, m.Sender(), subject, humanize.Time(m.Date)}
}

func newReadCmd(r *runner) *cobra.Command {
	var source bool
	var htmlFile string

	cmd := &cobra.Command{
		Use:   "read <message-id>",
		Short: "Print a message and mark it read",
		Args:  cobra.ExactArgs(1),
		RunE: r.withEnv(func(ctx context.Context, cmd *cobra.Command, env *Env, args []string) error {
			out := cmd.OutOrStdout()

			if source {
				if _, err := loadInbox(ctx, env); err != nil {
					return err
				}
				raw, err := env.Inbox.Source(ctx, args[0])
				if err != nil {
					return err
				}
				if htmlFile != "" {
					if err := writeParsedHTML(raw, htmlFile); err != nil {
						return err
					}
				}
				_, err = out.Write(raw)
				return err
			}

			msg, err := openMessage(ctx, env, args[0])
			if err != nil {
				return err
			}
			printMessage(out, msg)

			if htmlFile != "" {
				if !msg.HasHTML() {
					term.Warn("message has no HTML part")
					return nil
				}
				return writeHTML(htmlFile, strings.Join(msg.HTML, "\n"))
			}
			return nil
		}),
	}

	cmd.Flags().BoolVar(&source, "source", false, "print the raw RFC 5322 source")
	cmd.Flags().StringVar(&htmlFile, "html", "", "write the sanitized HTML body to `file`")
	return cmd
}

func printMessage(w io.Writer, msg *model.FullMessage) {
	from := msg.From
	if msg.FromName != "" {
		from = fmt.Sprintf("%s <%s>", msg.FromName, msg.From)
	}
	fmt.Fprintf(w, "From:    %s\n", from)
	if len(msg.To) > 0 {
		fmt.Fprintf(w, "To:      %s\n", strings.Join(msg.To, ", "))
	}
	fmt.Fprintf(w, "Date:    %s (%s)\n", msg.Date.Local().Format("2006-01-02 15:04"), humanize.Time(msg.Date))
	fmt.Fprintf(w, "Subject: %s\n", msg.Subject)

	body := content.MessageBody(msg)
	if codes := content.ExtractCodes(msg.Subject + "\n" + body); len(codes) > 0 {
		fmt.Fprintf(w, "Codes:   %s\n", strings.Join(codes, ", "))
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, body)

	if len(msg.Attachments) > 0 {
		fmt.Fprintln(w)
		for _, a := range msg.Attachments {
			fmt.Fprintf(w, "[attachment] %s (%s, %s)\n", a.Filename, a.ContentType, humanize.Bytes(uint64(a.Size)))
		}
	}
}

// writeParsedHTML extracts the HTML part of a raw message into path.
func writeParsedHTML(raw []byte, path string) error {
	parsed, err := content.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.HTML == "" {
		term.Warn("message has no HTML part")
		return nil
	}
	return writeHTML(path, parsed.HTML)
}

func writeHTML(path, body string) error {
	if err := os.WriteFile(path, []byte(content.SanitizeHTML(body)), 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	term.Infof("HTML written to %s", path)
	return nil
}
