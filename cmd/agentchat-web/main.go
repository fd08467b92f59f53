// Command agentchat-web serves the browser chat front-end.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hupe1980/agentchat"
	"github.com/hupe1980/agentchat/config"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "agentchat-web: %v\n", err)
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
		addr       string
	)

	cmd := &cobra.Command{
		Use:          "agentchat-web",
		Short:        "Chat with a hosted agent in the browser",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Addr = addr
			}

			logger, err := agentchat.NewLogger(cfg, cmd.OutOrStdout(), "web")
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

			logger.Info("starting agentchat web front-end",
				"addr", cfg.Addr,
				"mock", cfg.UseMock,
				"agent_id_configured", cfg.AgentID != "",
			)
			return app.NewWebServer().ListenAndServe(ctx)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to a YAML config file (overrides "+config.EnvConfigFile+")")
	flags.StringVar(&addr, "addr", "", "listen address (overrides "+config.EnvAddr+")")
	return cmd
}
