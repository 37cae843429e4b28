package main

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	config "github.com/drummonds/goslides/config"
	engine "github.com/drummonds/goslides/engine"
	extract "github.com/drummonds/goslides/extract"
)

func TestInjectGlobals(t *testing.T) {
	previous := []*slog.Logger{Logger, config.Logger, engine.Logger, extract.Logger}
	t.Cleanup(func() {
		Logger, config.Logger, engine.Logger, extract.Logger = previous[0], previous[1], previous[2], previous[3]
	})

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	injectGlobals(logger)

	for name, got := range map[string]*slog.Logger{
		"main":    Logger,
		"config":  config.Logger,
		"engine":  engine.Logger,
		"extract": extract.Logger,
	} {
		if got != logger {
			t.Errorf("%s logger was not injected", name)
		}
	}

	engine.Logger.Info("routed through the injected logger")
	if !strings.Contains(buf.String(), "routed through the injected logger") {
		t.Errorf("Expected log output in the injected handler, got %q", buf.String())
	}
}
