package config

import (
	"path/filepath"
	"reflect"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"SERVER_PORT", "SERVER_ADDR", "UPLOAD_LIMIT", "CONVERTER_CANDIDATES",
		"RASTERIZER", "RASTERIZER_CANDIDATES", "CONVERSION_TIMEOUT_SECONDS", "RENDER_DPI", "IMAGE_WIDTH"} {
		t.Setenv(key, "")
	}
	tempDir := t.TempDir()
	t.Setenv("TEMP_PATH", tempDir)

	cfg := Load()
	if cfg.ListenAddrPort != "8000" || cfg.ListenAddrIP != "" {
		t.Errorf("Unexpected listen address %q:%q", cfg.ListenAddrIP, cfg.ListenAddrPort)
	}
	if !reflect.DeepEqual(cfg.ConverterCandidates, []string{"libreoffice", "soffice"}) {
		t.Errorf("Unexpected converter candidates %v", cfg.ConverterCandidates)
	}
	if cfg.Rasterizer != "pdftoppm" || !reflect.DeepEqual(cfg.RasterizerCandidates, []string{"pdftoppm"}) {
		t.Errorf("Unexpected rasterizer %s %v", cfg.Rasterizer, cfg.RasterizerCandidates)
	}
	if cfg.ConversionTimeout != 120*time.Second {
		t.Errorf("Expected 120s timeout, got %s", cfg.ConversionTimeout)
	}
	if cfg.UploadLimit != "64M" {
		t.Errorf("Expected 64M upload limit, got %s", cfg.UploadLimit)
	}
	if want, _ := filepath.Abs(tempDir); cfg.TempPath != want {
		t.Errorf("Expected temp path %s, got %s", want, cfg.TempPath)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("CONVERTER_CANDIDATES", " soffice , ,lowriter")
	t.Setenv("RASTERIZER", "FITZ")
	t.Setenv("CONVERSION_TIMEOUT_SECONDS", "15")
	t.Setenv("RENDER_DPI", "96")
	t.Setenv("IMAGE_WIDTH", "1024")

	cfg := Load()
	if cfg.ListenAddrPort != "9090" {
		t.Errorf("Expected port 9090, got %s", cfg.ListenAddrPort)
	}
	if !reflect.DeepEqual(cfg.ConverterCandidates, []string{"soffice", "lowriter"}) {
		t.Errorf("Unexpected converter candidates %v", cfg.ConverterCandidates)
	}
	if cfg.Rasterizer != "fitz" {
		t.Errorf("Expected fitz, got %s", cfg.Rasterizer)
	}
	if cfg.ConversionTimeout != 15*time.Second || cfg.RenderDPI != 96 || cfg.ImageWidth != 1024 {
		t.Errorf("Unexpected render settings %+v", cfg)
	}
}

func TestLoadInvalidTimeout(t *testing.T) {
	for _, value := range []string{"-5", "0", "soon"} {
		t.Setenv("CONVERSION_TIMEOUT_SECONDS", value)
		if cfg := Load(); cfg.ConversionTimeout != 120*time.Second {
			t.Errorf("Timeout %q should fall back to 120s, got %s", value, cfg.ConversionTimeout)
		}
	}
}

func TestGetEnvList(t *testing.T) {
	t.Setenv("GOSLIDES_TEST_LIST", " , ")
	if got := getEnvList("GOSLIDES_TEST_LIST", []string{"a"}); !reflect.DeepEqual(got, []string{"a"}) {
		t.Errorf("Blank list should use the default, got %v", got)
	}
}
