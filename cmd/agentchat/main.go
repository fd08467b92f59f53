// Command agentchat is the terminal chat front-end.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/hupe1980/agentchat"
	"github.com/hupe1980/agentchat/config"
	"github.com/hupe1980/agentchat/tui"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "agentchat: %v\n", err)
		if errors.Is(err, config.ErrMissingConfig) {
			fmt.Fprintf(os.Stderr, "Set %s and %s (or %s=1) and restart.\n",
				config.EnvProjectEndpoint, config.EnvModelDeploymentName, config.EnvUseMock)
		}
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logFile    string
	)

	cmd := &cobra.Command{
		Use:          "agentchat",
		Short:        "Chat with a hosted agent in the terminal",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}

			// The terminal belongs to the UI; logs go to a file or nowhere.
			var out io.Writer = io.Discard
			if logFile != "" {
				f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
				if err != nil {
					return fmt.Errorf("opening log file: %w", err)
				}
				defer f.Close()
				out = f
			}

			logger, err := agentchat.NewLogger(cfg, out, "tui")
			if err != nil {
				return err
			}

			app, err := agentchat.New(cfg, func(o *agentchat.Options) {
				o.Logger = logger
			})
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			err = tui.Run(ctx, app.NewTUI(ctx))
			if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
				return nil
			}
			return err
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to a YAML config file (overrides "+config.EnvConfigFile+")")
	flags.StringVar(&logFile, "log-file", "", "write logs to this file (logs are discarded otherwise)")
	return cmd
}
