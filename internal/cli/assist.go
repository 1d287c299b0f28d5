package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/nhle/ghostmail/internal/content"
	"github.com/nhle/ghostmail/internal/model"
	"github.com/nhle/ghostmail/internal/term"
)

func warnUnconfigured(env *Env) {
	if !env.AI.Configured() {
		term.Warn("no Gemini API key configured; set GEMINI_API_KEY or run `ghostmail ai-key`")
	}
}

func newAnalyzeCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "analyze <message-id>",
		Short: "Grade the phishing risk of a message and summarise it",
		Args:  cobra.ExactArgs(1),
		RunE: r.withEnv(func(ctx context.Context, cmd *cobra.Command, env *Env, args []string) error {
			warnUnconfigured(env)
			msg, err := openMessage(ctx, env, args[0])
			if err != nil {
				return err
			}

			a := env.AI.AnalyzeEmail(ctx, msg)
			printAnalysis(cmd.OutOrStdout(), a)
			return nil
		}),
	}
}

func printAnalysis(w io.Writer, a model.Analysis) {
	fmt.Fprintf(w, "Risk:     %s (phishing score %d/100)\n", a.RiskLevel, a.PhishingScore)
	fmt.Fprintf(w, "Summary:  %s\n", a.Summary)
	for _, item := range a.ActionableItems {
		fmt.Fprintf(w, "  - %s\n", item)
	}
}

func newOverviewCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "overview",
		Short: "Summarise the inbox and collect verification codes",
		Args:  cobra.NoArgs,
		RunE: r.withEnv(func(ctx context.Context, cmd *cobra.Command, env *Env, _ []string) error {
			warnUnconfigured(env)
			if _, err := loadInbox(ctx, env); err != nil {
				return err
			}
			msgs := env.Inbox.Messages()
			if len(msgs) == 0 {
				term.Info("inbox is empty")
				return nil
			}

			a := env.AI.AnalyzeInbox(ctx, msgs)
			if len(a.ExtractedCodes) == 0 {
				a.ExtractedCodes = content.CodesFromMessages(msgs)
			}
			printOverview(cmd.OutOrStdout(), a)
			return nil
		}),
	}
}

func printOverview(w io.Writer, a model.InboxAnalysis) {
	fmt.Fprintln(w, a.Overview)
	if a.UrgentCount > 0 {
		fmt.Fprintf(w, "Urgent: %d\n", a.UrgentCount)
	}
	for _, c := range a.Categories {
		fmt.Fprintf(w, "  %-16s %d\n", c.Name, c.Count)
	}
	for _, c := range a.ExtractedCodes {
		fmt.Fprintf(w, "Code %s  (%s)\n", c.Code, c.Source)
	}
}

func newReplyCmd(r *runner) *cobra.Command {
	var tone string

	cmd := &cobra.Command{
		Use:   "reply <message-id>",
		Short: "Draft a reply to a message",
		Args:  cobra.ExactArgs(1),
		RunE: r.withEnv(func(ctx context.Context, cmd *cobra.Command, env *Env, args []string) error {
			t, ok := matchTone(tone)
			if !ok {
				return fmt.Errorf("unknown tone %q (want one of %s)", tone, strings.Join(model.ReplyTones, ", "))
			}
			warnUnconfigured(env)
			msg, err := openMessage(ctx, env, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), env.AI.DraftReply(ctx, msg, t))
			return nil
		}),
	}

	cmd.Flags().StringVarP(&tone, "tone", "t", model.ReplyTones[0], strings.Join(model.ReplyTones, ", "))
	return cmd
}

// matchTone maps a tone name in any case onto model.ReplyTones.
func matchTone(name string) (string, bool) {
	for _, t := range model.ReplyTones {
		if strings.EqualFold(t, strings.TrimSpace(name)) {
			return t, true
		}
	}
	return "", false
}

func newTranslateCmd(r *runner) *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "translate <message-id>",
		Short: "Translate the body of a message",
		Args:  cobra.ExactArgs(1),
		RunE: r.withEnv(func(ctx context.Context, cmd *cobra.Command, env *Env, args []string) error {
			warnUnconfigured(env)
			msg, err := openMessage(ctx, env, args[0])
			if err != nil {
				return err
			}

			text := env.AI.Translate(ctx, content.MessageBody(msg), strings.TrimSpace(lang))
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&lang, "lang", "l", "English", "target language")
	return cmd
}
