package main

import (
	"fmt"
	"log/slog"
	"net/http"
	"os"

	config "github.com/drummonds/goslides/config"
	engine "github.com/drummonds/goslides/engine"
	extract "github.com/drummonds/goslides/extract"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	config.Logger = Logger
	engine.Logger = Logger
	extract.Logger = Logger
}

func main() {
	serverConfig, logger := config.SetupServer()
	injectGlobals(logger) //inject the logger into all of the packages

	renderer, err := engine.NewSlideRenderer(serverConfig)
	if err != nil {
		Logger.Error("Unable to set up slide renderer", "error", err)
		os.Exit(1)
	}
	defer renderer.Close()

	serverHandler := engine.NewServerHandler(serverConfig, renderer)
	if err := serverHandler.StartupChecks(); err != nil { //Run all the sanity checks
		Logger.Error("Startup checks failed", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf("%s:%s", serverConfig.ListenAddrIP, serverConfig.ListenAddrPort)
	Logger.Info("Starting goslides server", "address", addr)
	fmt.Printf("\n✅  goslides running on %s\n", addr)
	fmt.Printf("🏥  Health check: http://%s/api/health\n\n", addr)

	if err := serverHandler.Echo.Start(addr); err != nil && err != http.ErrServerClosed {
		Logger.Error("Server failed to start", "error", err)
		os.Exit(1)
	}
}
