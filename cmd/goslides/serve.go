package main

import (
	"fmt"
	"net/http"

	"github.com/spf13/cobra"

	config "github.com/drummonds/goslides/config"
	engine "github.com/drummonds/goslides/engine"
)

func serveCmd() *cobra.Command {
	var port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			serverConfig, logger := config.SetupServer()
			injectGlobals(logger)
			if port != "" {
				serverConfig.ListenAddrPort = port
			}

			renderer, err := engine.NewSlideRenderer(serverConfig)
			if err != nil {
				return err
			}
			defer renderer.Close()

			serverHandler := engine.NewServerHandler(serverConfig, renderer)
			if err := serverHandler.StartupChecks(); err != nil {
				return fmt.Errorf("startup checks failed: %w", err)
			}

			addr := fmt.Sprintf("%s:%s", serverConfig.ListenAddrIP, serverConfig.ListenAddrPort)
			Logger.Info("Starting goslides server", "address", addr)
			if err := serverHandler.Echo.Start(addr); err != nil && err != http.ErrServerClosed {
				return err
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&port, "port", "", "port to listen on (overrides SERVER_PORT)")
	return cmd
}
