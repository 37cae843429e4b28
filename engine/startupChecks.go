package engine

import (
	"fmt"
	"os"

	"github.com/drummonds/goslides/engine/external"
)

// StartupChecks performs all the checks to make sure everything works
func (serverHandler *ServerHandler) StartupChecks() error {
	converterChecks(serverHandler)
	rasterizerChecks(serverHandler)
	return tempDirectoryChecks(serverHandler.ServerConfig.TempPath)
}

// converterChecks records the office converter, a missing one only disables /vision/
func converterChecks(serverHandler *ServerHandler) {
	serverHandler.converterPath = ""
	if serverHandler.Renderer == nil {
		Logger.Warn("Slide renderer not configured, rendering will be unavailable")
		return
	}
	path, err := external.Find(serverHandler.Renderer.ConverterCandidates...)
	if err != nil {
		Logger.Warn("Office converter not found, rendering will fail until it is installed", "error", err)
		return
	}
	serverHandler.converterPath = path
	Logger.Info("Office converter found", "path", path)
}

func rasterizerChecks(serverHandler *ServerHandler) {
	if serverHandler.Renderer == nil || serverHandler.Renderer.Rasterizer == nil {
		return
	}
	name := serverHandler.Renderer.Rasterizer.Name()
	if name != "pdftoppm" {
		Logger.Info("Using in-process rasterizer", "rasterizer", name)
		return
	}
	candidates := serverHandler.ServerConfig.RasterizerCandidates
	if len(candidates) == 0 {
		candidates = []string{"pdftoppm"}
	}
	path, err := external.Find(candidates...)
	if err != nil {
		Logger.Warn("pdftoppm not found, rendering will fail until it is installed", "error", err)
		return
	}
	Logger.Info("Rasterizer found", "path", path)
}

// tempDirectoryChecks ensures the temp root exists
func tempDirectoryChecks(tempPath string) error {
	if tempPath == "" {
		Logger.Info("Temp path not configured, using the OS temp directory")
		return nil
	}

	tempInfo, err := os.Stat(tempPath)
	if err != nil {
		if os.IsNotExist(err) {
			Logger.Info("Creating temp directory", "path", tempPath)
			if err := os.MkdirAll(tempPath, 0755); err != nil {
				Logger.Error("Failed to create temp directory", "path", tempPath, "error", err)
				return err
			}
			return nil
		}
		Logger.Error("Error checking temp directory", "path", tempPath, "error", err)
		return err
	}

	if !tempInfo.IsDir() {
		Logger.Error("Temp path exists but is not a directory", "path", tempPath)
		return fmt.Errorf("temp path is not a directory: %s", tempPath)
	}

	Logger.Info("Temp directory exists", "path", tempPath)
	return nil
}
