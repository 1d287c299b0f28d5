// Package cli is the ghostmail command line: the TUI by default, plus
// scriptable subcommands for identities and mail.
package cli

import (
	"context"
	"errors"
	"io"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/nhle/ghostmail/internal/model"
	"github.com/nhle/ghostmail/internal/term"
)

var errNoIdentity = errors.New("no active identity")

type globalFlags struct {
	configFile string
	quiet      bool
	verbose    bool
}

// runner carries the flags and configuration shared by every subcommand.
type runner struct {
	flags  globalFlags
	open   Opener
	config *model.AppConfig
}

// envFunc is the body of a command that needs services.
type envFunc func(ctx context.Context, cmd *cobra.Command, env *Env, args []string) error

// withEnv opens the services around fn and closes them afterwards.
func (r *runner) withEnv(fn envFunc) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		env, err := r.open(ctx, r.config)
		if err != nil {
			return err
		}
		defer func() {
			if err := env.Close(); err != nil {
				term.Warnf("closing: %v", err)
			}
		}()

		return fn(ctx, cmd, env, args)
	}
}

func (r *runner) initConfig() error {
	cfg, err := model.LoadConfig(r.flags.configFile)
	if err != nil {
		return err
	}
	r.config = cfg
	return nil
}

func (r *runner) initLog() {
	switch {
	case r.flags.verbose:
		term.SetLevel(term.LevelDebug)
		log.SetOutput(os.Stderr)
	case r.flags.quiet:
		term.SetLevel(term.LevelWarn)
		log.SetOutput(io.Discard)
	default:
		term.SetLevel(term.LevelInfo)
		log.SetOutput(io.Discard)
	}
}

// NewRootCmd builds the command tree. open is called once per command that
// needs services.
func NewRootCmd(open Opener) *cobra.Command {
	r := &runner{open: open}

	root := &cobra.Command{
		Use:           "ghostmail",
		Short:         "Disposable email in the terminal",
		Long:          "\nGhostMail: throwaway inboxes with an optional AI assistant",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			r.initLog()
			return r.initConfig()
		},
		Args: cobra.NoArgs,
		RunE: r.withEnv(runTUI),
	}

	flag := root.PersistentFlags()
	flag.StringVarP(&r.flags.configFile, "config", "c", model.DefaultConfigPath(), "configuration file")
	flag.BoolVarP(&r.flags.quiet, "quiet", "q", false, "only display warnings and errors")
	flag.BoolVarP(&r.flags.verbose, "verbose", "v", false, "display debugging information")

	root.AddCommand(
		newNewCmd(r),
		newIdentitiesCmd(r),
		newUseCmd(r),
		newRemoveCmd(r),
		newExportCmd(r),
		newAIKeyCmd(r),
		newInboxCmd(r),
		newReadCmd(r),
		newOverviewCmd(r),
		newAnalyzeCmd(r),
		newReplyCmd(r),
		newTranslateCmd(r),
	)

	return root
}

// Execute runs the command line against the real services.
func Execute() {
	// A missing .env is fine.
	_ = godotenv.Load()

	if err := NewRootCmd(OpenEnv).Execute(); err != nil {
		term.Error(err)
		os.Exit(1)
	}
}
