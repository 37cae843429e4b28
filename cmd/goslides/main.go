package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	config "github.com/drummonds/goslides/config"
	engine "github.com/drummonds/goslides/engine"
	extract "github.com/drummonds/goslides/extract"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger = slog.Default()

// injectGlobals injects all of our globals into their packages
func injectGlobals(logger *slog.Logger) {
	Logger = logger
	config.Logger = Logger
	engine.Logger = Logger
	extract.Logger = Logger
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "goslides",
		Short:         "Extract text from presentations and render their slides as images",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(extractCmd())
	root.AddCommand(renderCmd())
	return root
}

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
