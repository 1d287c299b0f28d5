package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nhle/ghostmail/internal/credential"
	"github.com/nhle/ghostmail/internal/model"
	"github.com/nhle/ghostmail/internal/session"
	"github.com/nhle/ghostmail/internal/term"
)

func newNewCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "new",
		Short: "Create a new identity and make it active",
		Args:  cobra.NoArgs,
		RunE: r.withEnv(func(ctx context.Context, cmd *cobra.Command, env *Env, _ []string) error {
			mb, err := env.Session.Add(ctx)
			if err != nil {
				return err
			}
			term.Infof("created identity %s", mb.ID)
			fmt.Fprintln(cmd.OutOrStdout(), mb.Address)
			return nil
		}),
	}
}

func newIdentitiesCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:     "identities",
		Aliases: []string{"ids", "ls"},
		Short:   "List identities; * marks the active one",
		Args:    cobra.NoArgs,
		RunE: r.withEnv(func(_ context.Context, cmd *cobra.Command, env *Env, _ []string) error {
			active, _ := env.Session.Active()

			var rows [][]string
			for _, mb := range env.Session.Identities() {
				marker := ""
				if mb.ID == active.ID {
					marker = "*"
				}
				rows = append(rows, []string{marker, mb.ID, mb.Address})
			}
			return term.Table(cmd.OutOrStdout(), []string{"", "ID", "Address"}, rows)
		}),
	}
}

func newUseCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "use <id|address>",
		Short: "Switch the active identity",
		Args:  cobra.ExactArgs(1),
		RunE: r.withEnv(func(ctx context.Context, cmd *cobra.Command, env *Env, args []string) error {
			mb, err := resolveIdentity(env.Session, args[0])
			if err != nil {
				return err
			}
			if _, err := env.Session.Switch(ctx, mb.ID); err != nil {
				return err
			}
			term.Infof("now using %s", mb.Address)
			return nil
		}),
	}
}

func newRemoveCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id|address>",
		Aliases: []string{"destroy"},
		Short:   "Destroy an identity and its server-side account",
		Args:    cobra.ExactArgs(1),
		RunE: r.withEnv(func(ctx context.Context, cmd *cobra.Command, env *Env, args []string) error {
			mb, err := resolveIdentity(env.Session, args[0])
			if err != nil {
				return err
			}
			if err := env.Session.Remove(ctx, mb.ID); err != nil {
				return err
			}
			term.Infof("destroyed %s", mb.Address)
			if active, ok := env.Session.Active(); ok {
				term.Infof("active identity: %s", active.Address)
			}
			return nil
		}),
	}
}

func newExportCmd(r *runner) *cobra.Command {
	var format, output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a backup of every identity",
		Args:  cobra.NoArgs,
		RunE: r.withEnv(func(_ context.Context, cmd *cobra.Command, env *Env, _ []string) error {
			if output == "" {
				return env.Session.Export(cmd.OutOrStdout(), format)
			}

			f, err := os.OpenFile(output, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
			if err != nil {
				return err
			}
			if err := env.Session.Export(f, format); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			term.Infof("exported %d identities to %s", len(env.Session.Identities()), output)
			return nil
		}),
	}

	cmd.Flags().StringVarP(&format, "format", "f", "json", "json or yaml")
	cmd.Flags().StringVarP(&output, "output", "o", "", "file to write instead of stdout")
	return cmd
}

func newAIKeyCmd(r *runner) *cobra.Command {
	var remove bool

	cmd := &cobra.Command{
		Use:   "ai-key [key]",
		Short: "Store the Gemini API key in the keyring",
		Args:  cobra.MaximumNArgs(1),
		RunE: r.withEnv(func(_ context.Context, cmd *cobra.Command, env *Env, args []string) error {
			if remove {
				if err := env.Secrets.Delete(credential.AIKeyName); err != nil {
					return err
				}
				term.Info("API key removed")
				return nil
			}

			var key string
			if len(args) == 1 {
				key = args[0]
			} else if err := promptAIKey(&key); err != nil {
				return err
			}

			key = strings.TrimSpace(key)
			if key == "" {
				return errors.New("empty API key")
			}
			if err := env.Secrets.Set(credential.AIKeyName, key); err != nil {
				return err
			}
			term.Info("API key saved")
			return nil
		}),
	}

	cmd.Flags().BoolVar(&remove, "clear", false, "remove the stored key")
	return cmd
}

func promptAIKey(key *string) error {
	return huh.NewInput().
		Title("Gemini API key").
		EchoMode(huh.EchoModePassword).
		Value(key).
		Run()
}

// resolveIdentity finds an identity by id or address.
func resolveIdentity(s *session.Store, ref string) (model.Mailbox, error) {
	for _, mb := range s.Identities() {
		if mb.ID == ref || strings.EqualFold(mb.Address, ref) {
			return mb, nil
		}
	}
	return model.Mailbox{}, fmt.Errorf("%w: %s", session.ErrUnknownIdentity, ref)
}
