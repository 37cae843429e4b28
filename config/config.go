package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Logger is global since we will need it everywhere
var Logger *slog.Logger = slog.Default()

// ServerConfig contains all of the server settings
type ServerConfig struct {
	ListenAddrIP         string
	ListenAddrPort       string
	ConverterCandidates  []string      // office converter program names tried on PATH, in order
	Rasterizer           string        // pdftoppm, fitz or pdfium
	RasterizerCandidates []string      // program names tried on PATH for the pdftoppm backend
	ConversionTimeout    time.Duration // wall-clock limit for each external process
	RenderDPI            int           // 0 keeps the rasterizer default
	ImageWidth           int           // 0 keeps the rendered width
	TempPath             string        // root for per-request workspaces
	UploadLimit          string        // echo body limit, e.g. 64M
}

// getEnv gets an environment variable with a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	intVal, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return intVal
}

// getEnvList splits a comma separated environment variable, dropping blank entries
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var list []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			list = append(list, item)
		}
	}
	if len(list) == 0 {
		return defaultValue
	}
	return list
}

// SetupServer loads configuration and returns ServerConfig and Logger
func SetupServer() (ServerConfig, *slog.Logger) {
	// Load .env file (silently ignore if doesn't exist)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("config.env")

	logger := setupLogging()
	Logger = logger

	serverConfigLive := Load()

	logger.Info("Configuration loaded",
		"converters", strings.Join(serverConfigLive.ConverterCandidates, ","),
		"rasterizer", serverConfigLive.Rasterizer,
		"timeout", serverConfigLive.ConversionTimeout,
		"tempPath", serverConfigLive.TempPath)

	fmt.Println("\n========================================")
	fmt.Println("   goslides - Presentation Processor")
	fmt.Println("========================================")
	fmt.Printf("Server will start on: %s:%s\n", serverConfigLive.ListenAddrIP, serverConfigLive.ListenAddrPort)
	if serverConfigLive.ListenAddrIP == "" {
		fmt.Println("(Listening on all network interfaces)")
	}

	return serverConfigLive, logger
}

// Load reads the server settings from the environment, applying defaults
func Load() ServerConfig {
	serverConfigLive := ServerConfig{}

	// Server configuration
	serverConfigLive.ListenAddrPort = getEnv("SERVER_PORT", "8000")
	serverConfigLive.ListenAddrIP = getEnv("SERVER_ADDR", "")
	serverConfigLive.UploadLimit = getEnv("UPLOAD_LIMIT", "64M")

	// Converter configuration
	serverConfigLive.ConverterCandidates = getEnvList("CONVERTER_CANDIDATES", []string{"libreoffice", "soffice"})
	serverConfigLive.Rasterizer = strings.ToLower(getEnv("RASTERIZER", "pdftoppm"))
	serverConfigLive.RasterizerCandidates = getEnvList("RASTERIZER_CANDIDATES", []string{"pdftoppm"})

	timeoutSeconds := getEnvInt("CONVERSION_TIMEOUT_SECONDS", 120)
	if timeoutSeconds <= 0 {
		Logger.Warn("Invalid conversion timeout, using default", "value", timeoutSeconds)
		timeoutSeconds = 120
	}
	serverConfigLive.ConversionTimeout = time.Duration(timeoutSeconds) * time.Second
	serverConfigLive.RenderDPI = getEnvInt("RENDER_DPI", 0)
	serverConfigLive.ImageWidth = getEnvInt("IMAGE_WIDTH", 0)

	// Workspace configuration
	tempPath := filepath.ToSlash(getEnv("TEMP_PATH", os.TempDir()))
	tempPathAbs, err := filepath.Abs(tempPath)
	if err != nil {
		Logger.Error("Failed creating absolute path for temp directory", "path", tempPath, "error", err)
		tempPathAbs = tempPath
	}
	serverConfigLive.TempPath = tempPathAbs

	return serverConfigLive
}

// setupLogging configures the application logger
func setupLogging() *slog.Logger {
	logLevel := getEnv("LOG_LEVEL", "info")
	var level slog.Level

	switch logLevel {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	handlerOptions := &slog.HandlerOptions{Level: level}

	logOutput := getEnv("LOG_OUTPUT", "stdout")
	var logWriter io.Writer

	if logOutput == "stdout" {
		logWriter = os.Stdout
	} else {
		logPath, err := filepath.Abs(filepath.ToSlash(getEnv("LOG_FILE", "goslides.log")))
		if err != nil {
			fmt.Printf("Error creating log file path: %v\n", err)
			logWriter = os.Stdout
		} else {
			logFile, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
			if err != nil {
				fmt.Printf("Failed to open log file: %v\n", err)
				logWriter = os.Stdout
			} else {
				logWriter = logFile
				fmt.Println("Logging to file: ", logPath)
			}
		}
	}

	handler := slog.NewTextHandler(logWriter, handlerOptions)
	return slog.New(handler)
}
