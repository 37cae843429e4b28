package engine

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/drummonds/goslides/extract"
	"github.com/drummonds/goslides/pptx/pptxtest"
	"github.com/labstack/echo/v4"
)

func newTestServer(t *testing.T) *ServerHandler {
	t.Helper()
	serverConfig := testConfig(t)
	return NewServerHandler(serverConfig, testRenderer(t, serverConfig))
}

func uploadRequest(t *testing.T, target, filename string, data []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	if err != nil {
		t.Fatalf("Failed to create form file: %v", err)
	}
	if _, err := part.Write(data); err != nil {
		t.Fatalf("Failed to write form file: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("Failed to close multipart writer: %v", err)
	}
	req := httptest.NewRequest(http.MethodPost, target, body)
	req.Header.Set(echo.HeaderContentType, writer.FormDataContentType())
	return req
}

func serve(serverHandler *ServerHandler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	serverHandler.Echo.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Response is not JSON: %v (%s)", err, rec.Body.String())
	}
	return body
}

// assertWorkspaceRemoved checks that no request workspace survived the request
func assertWorkspaceRemoved(t *testing.T, serverHandler *ServerHandler) {
	t.Helper()
	entries, err := os.ReadDir(serverHandler.ServerConfig.TempPath)
	if err != nil {
		t.Fatalf("Failed to read temp root: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("Expected the request workspace to be removed, found %d entries", len(entries))
	}
}

func TestHealthCheck(t *testing.T) {
	serverHandler := newTestServer(t)

	rec := serve(serverHandler, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["status"] != "ok" {
		t.Errorf("Expected status ok, got %v", body)
	}
}

func TestAPIHealth(t *testing.T) {
	installTools(t, fakeConverter, fakePdftoppm)
	serverHandler := newTestServer(t)
	if err := serverHandler.StartupChecks(); err != nil {
		t.Fatalf("StartupChecks failed: %v", err)
	}

	rec := serve(serverHandler, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	body := decodeBody(t, rec)
	if body["status"] != "healthy" || body["rasterizer"] != "pdftoppm" {
		t.Errorf("Unexpected health body %v", body)
	}
	if converter, _ := body["converter"].(string); !strings.HasSuffix(converter, "soffice") {
		t.Errorf("Expected the fake soffice to be reported, got %q", converter)
	}
}

func TestUnknownRouteReturnsJSON404(t *testing.T) {
	serverHandler := newTestServer(t)

	rec := serve(serverHandler, httptest.NewRequest(http.MethodGet, "/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("Expected status 404, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["path"] != "/missing" {
		t.Errorf("Unexpected 404 body %v", body)
	}
}

func TestProcessRoundTrip(t *testing.T) {
	serverHandler := newTestServer(t)
	var deck []pptxtest.Slide
	for _, title := range []string{"Alpha", "Beta", "Gamma"} {
		deck = append(deck, pptxtest.Slide{Shapes: []string{
			pptxtest.Title(2, title),
			pptxtest.TextBox(3, title+" one"),
			pptxtest.TextBox(4, title+" two"),
		}})
	}

	rec := serve(serverHandler, uploadRequest(t, "/process/", "deck.pptx", pptxtest.Build(deck...)))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response struct {
		Filename   string          `json:"filename"`
		TextData   []extract.Slide `json:"text_data"`
		ImagePaths []string        `json:"image_paths"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if response.Filename != "deck.pptx" {
		t.Errorf("Expected filename deck.pptx, got %s", response.Filename)
	}
	if response.ImagePaths == nil || len(response.ImagePaths) != 0 {
		t.Errorf("Expected an empty image_paths list, got %v", response.ImagePaths)
	}
	if len(response.TextData) != 3 {
		t.Fatalf("Expected 3 slides, got %d", len(response.TextData))
	}
	for i, slide := range response.TextData {
		if slide.SlideNumber != i+1 {
			t.Errorf("Slide %d numbered %d", i+1, slide.SlideNumber)
		}
		want := []extract.Bullet{{Text: slide.Title + " one"}, {Text: slide.Title + " two"}}
		if !reflect.DeepEqual(slide.Bullets, want) {
			t.Errorf("Slide %d bullets = %+v, want %+v", slide.SlideNumber, slide.Bullets, want)
		}
	}
	assertWorkspaceRemoved(t, serverHandler)
}

func TestProcessInvalidUpload(t *testing.T) {
	serverHandler := newTestServer(t)

	rec := serve(serverHandler, uploadRequest(t, "/process/", "notes.pptx", []byte("this is not a presentation")))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if msg, _ := body["error"].(string); msg == "" {
		t.Errorf("Expected a non-empty error, got %v", body)
	}
	if details, _ := body["details"].(string); details == "" {
		t.Errorf("Expected details, got %v", body)
	}
	if _, ok := body["text_data"]; ok {
		t.Errorf("Error response must not carry text_data: %v", body)
	}
	assertWorkspaceRemoved(t, serverHandler)
}

func TestUploadMissingFile(t *testing.T) {
	serverHandler := newTestServer(t)

	for _, target := range []string{"/process/", "/vision/"} {
		req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(""))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
		rec := serve(serverHandler, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("%s: expected status 400, got %d", target, rec.Code)
		}
	}
}

func TestVisionReturnsImagePerSlide(t *testing.T) {
	installTools(t, fakeConverter, fakePdftoppm)
	serverHandler := newTestServer(t)

	rec := serve(serverHandler, uploadRequest(t, "/vision/", "deck.pptx", []byte("any bytes")))
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var response struct {
		Filename string `json:"filename"`
		Images   []struct {
			Slide  int    `json:"slide"`
			Base64 string `json:"base64"`
		} `json:"images"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to decode response: %v", err)
	}
	if len(response.Images) != 3 {
		t.Fatalf("Expected 3 images, got %d", len(response.Images))
	}
	for i, img := range response.Images {
		if img.Slide != i+1 {
			t.Errorf("Image %d has slide %d", i, img.Slide)
		}
		data, err := base64.StdEncoding.DecodeString(img.Base64)
		if err != nil {
			t.Fatalf("Image %d is not valid base64: %v", i, err)
		}
		if want := "page " + string(rune('1'+i)) + "\n"; string(data) != want {
			t.Errorf("Image %d content %q, want %q", i, data, want)
		}
	}
	assertWorkspaceRemoved(t, serverHandler)
}

func TestVisionConverterMissing(t *testing.T) {
	t.Setenv("PATH", t.TempDir())
	serverHandler := newTestServer(t)

	rec := serve(serverHandler, uploadRequest(t, "/vision/", "deck.pptx", []byte("any bytes")))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", rec.Code)
	}
	body := decodeBody(t, rec)
	if body["kind"] != "tool_not_found" {
		t.Errorf("Expected tool_not_found, got %v", body)
	}
	if _, ok := body["images"]; ok {
		t.Errorf("Error response must not carry images: %v", body)
	}
	assertWorkspaceRemoved(t, serverHandler)
}

func TestVisionCarriesProcessOutput(t *testing.T) {
	installTools(t, `echo "javaldx: Could not find a Java Runtime Environment!" 1>&2; exit 77`, fakePdftoppm)
	serverHandler := newTestServer(t)

	rec := serve(serverHandler, uploadRequest(t, "/vision/", "deck.pptx", []byte("any bytes")))
	body := decodeBody(t, rec)
	if body["kind"] != "process_failed" {
		t.Errorf("Expected process_failed, got %v", body)
	}
	if details, _ := body["details"].(string); !strings.Contains(details, "Java Runtime") {
		t.Errorf("Expected captured stderr in details, got %q", details)
	}
}

func TestVisionTimeout(t *testing.T) {
	installTools(t, "exec sleep 30", fakePdftoppm)
	serverConfig := testConfig(t)
	serverConfig.ConversionTimeout = 200 * time.Millisecond
	serverHandler := NewServerHandler(serverConfig, testRenderer(t, serverConfig))

	rec := serve(serverHandler, uploadRequest(t, "/vision/", "deck.pptx", []byte("any bytes")))
	if body := decodeBody(t, rec); body["kind"] != "timeout" {
		t.Errorf("Expected timeout, got %v", body)
	}
	assertWorkspaceRemoved(t, serverHandler)
}

func TestPanicBecomesServerError(t *testing.T) {
	serverHandler := newTestServer(t)
	serverHandler.Echo.GET("/boom", func(c echo.Context) error {
		panic("unexpected state")
	})

	rec := serve(serverHandler, httptest.NewRequest(http.MethodGet, "/boom", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("Expected status 500, got %d", rec.Code)
	}
	if body := decodeBody(t, rec); body["error"] == "" || body["error"] == nil {
		t.Errorf("Expected an error body, got %v", body)
	}

	// The server keeps answering after a failed request
	if rec := serve(serverHandler, httptest.NewRequest(http.MethodGet, "/", nil)); rec.Code != http.StatusOK {
		t.Errorf("Expected status 200 after a panic, got %d", rec.Code)
	}
}

func TestUploadName(t *testing.T) {
	tests := map[string]string{
		"deck.pptx":             "deck.pptx",
		"../../etc/passwd":      "passwd",
		`C:\Users\me\deck.pptx`: "deck.pptx",
		"":                      "upload.pptx",
		"/":                     "upload.pptx",
	}
	for input, want := range tests {
		if got := uploadName(input); got != want {
			t.Errorf("uploadName(%q) = %q, want %q", input, got, want)
		}
	}
}
