package main

import (
	"fmt"

	"github.com/spf13/cobra"

	config "github.com/drummonds/goslides/config"
	engine "github.com/drummonds/goslides/engine"
)

func renderCmd() *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "render <file.pptx>",
		Short: "Render every slide to a PNG file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			serverConfig := config.Load()
			renderer, err := engine.NewSlideRenderer(serverConfig)
			if err != nil {
				return err
			}
			defer renderer.Close()

			spin := newProgress("Rendering " + args[0])
			spin.Start()
			images, err := renderer.RenderSlides(args[0], out)
			spin.Stop()
			if err != nil {
				return err
			}
			for _, image := range images {
				fmt.Fprintln(cmd.OutOrStdout(), image)
			}
			success(cmd.ErrOrStderr(), "Rendered %d slides into %s", len(images), out)
			return nil
		},
	}
	cmd.Flags().StringVarP(&out, "out", "o", "slides", "output directory for the slide images")
	return cmd
}
