package engine

import (
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/drummonds/goslides/config"
	"github.com/drummonds/goslides/extract"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/oklog/ulid/v2"
)

const (
	processErrorMessage = "An unexpected error occurred while extracting text from the presentation."
	visionErrorMessage  = "An unexpected error occurred while rendering the presentation."
)

// ServerHandler will inject the variables needed into routes
type ServerHandler struct {
	Echo         *echo.Echo
	ServerConfig config.ServerConfig
	Renderer     *SlideRenderer

	converterPath string // set by StartupChecks, empty when no converter was found
}

type processResponse struct {
	Filename   string          `json:"filename"`
	TextData   []extract.Slide `json:"text_data"`
	ImagePaths []string        `json:"image_paths"`
}

type slideImage struct {
	Slide  int    `json:"slide"`
	Base64 string `json:"base64"`
}

type visionResponse struct {
	Filename string       `json:"filename"`
	Images   []slideImage `json:"images"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Details string `json:"details,omitempty"`
}

// NewServerHandler creates the echo server with its middleware and routes
func NewServerHandler(serverConfig config.ServerConfig, renderer *SlideRenderer) *ServerHandler {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = jsonErrorHandler

	serverHandler := &ServerHandler{Echo: e, ServerConfig: serverConfig, Renderer: renderer}

	e.Use(middleware.Recover())
	if serverConfig.UploadLimit != "" {
		e.Use(middleware.BodyLimit(serverConfig.UploadLimit))
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
	}))
	e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
		Format: "method=${method}, uri=${uri}, status=${status}, latency=${latency_human}\n",
	}))

	e.GET("/", serverHandler.HealthCheck)
	e.POST("/process/", serverHandler.ProcessPresentation)
	e.POST("/vision/", serverHandler.VisionPresentation)
	e.GET("/api/health", serverHandler.APIHealth)

	return serverHandler
}

// jsonErrorHandler answers every unhandled error, including recovered panics, with a JSON body
func jsonErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code := http.StatusInternalServerError
	message := http.StatusText(code)
	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		message = fmt.Sprint(he.Message)
	}

	if code == http.StatusNotFound {
		c.JSON(http.StatusNotFound, map[string]string{
			"error":   "Not Found",
			"message": "The requested API endpoint does not exist",
			"path":    c.Request().URL.Path,
		})
		return
	}

	if code >= http.StatusInternalServerError {
		Logger.Error("Unhandled error in request", "path", c.Request().URL.Path, "error", err)
		c.JSON(code, errorResponse{Error: message, Details: err.Error()})
		return
	}
	c.JSON(code, errorResponse{Error: message})
}

// HealthCheck is the liveness probe
func (serverHandler *ServerHandler) HealthCheck(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// APIHealth reports which tools were located at startup
func (serverHandler *ServerHandler) APIHealth(c echo.Context) error {
	rasterizer := ""
	if serverHandler.Renderer != nil && serverHandler.Renderer.Rasterizer != nil {
		rasterizer = serverHandler.Renderer.Rasterizer.Name()
	}
	return c.JSON(http.StatusOK, map[string]string{
		"status":     "healthy",
		"service":    "goslides",
		"converter":  serverHandler.converterPath,
		"rasterizer": rasterizer,
	})
}

// ProcessPresentation extracts the text of every slide of the uploaded presentation
func (serverHandler *ServerHandler) ProcessPresentation(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "No file uploaded, expected multipart field 'file'"})
	}

	workspace, err := serverHandler.newWorkspace()
	if err != nil {
		return serverError(c, processErrorMessage, err)
	}
	defer removeWorkspace(workspace)

	inputPath, err := saveUpload(fileHeader, workspace)
	if err != nil {
		return serverError(c, processErrorMessage, err)
	}

	slides, err := extract.ParseFile(inputPath)
	if err != nil {
		return serverError(c, processErrorMessage, err)
	}
	Logger.Info("Extracted presentation text", "file", fileHeader.Filename, "slides", len(slides))

	// Rendering is served by /vision/
	return c.JSON(http.StatusOK, processResponse{
		Filename:   fileHeader.Filename,
		TextData:   slides,
		ImagePaths: []string{},
	})
}

// VisionPresentation renders every slide of the uploaded presentation and returns the images
// as base64 encoded PNGs
func (serverHandler *ServerHandler) VisionPresentation(c echo.Context) error {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "No file uploaded, expected multipart field 'file'"})
	}
	if serverHandler.Renderer == nil {
		return serverError(c, visionErrorMessage, errors.New("slide rendering is not configured"))
	}

	workspace, err := serverHandler.newWorkspace()
	if err != nil {
		return serverError(c, visionErrorMessage, err)
	}
	defer removeWorkspace(workspace)

	inputPath, err := saveUpload(fileHeader, workspace)
	if err != nil {
		return serverError(c, visionErrorMessage, err)
	}

	imagePaths, err := serverHandler.Renderer.RenderSlides(inputPath, filepath.Join(workspace, "images"))
	if err != nil {
		return serverError(c, visionErrorMessage, err)
	}

	images := make([]slideImage, 0, len(imagePaths))
	for i, imagePath := range imagePaths {
		data, err := os.ReadFile(imagePath)
		if err != nil {
			return serverError(c, visionErrorMessage, fmt.Errorf("unable to read rendered slide %d: %w", i+1, err))
		}
		images = append(images, slideImage{Slide: i + 1, Base64: base64.StdEncoding.EncodeToString(data)})
	}

	return c.JSON(http.StatusOK, visionResponse{Filename: fileHeader.Filename, Images: images})
}

// serverError logs err and writes the 500 body. Conversion errors carry their kind and the
// captured process output.
func serverError(c echo.Context, message string, err error) error {
	response := errorResponse{Error: message, Details: err.Error()}
	var convErr *ConversionError
	if errors.As(err, &convErr) {
		response.Kind = string(convErr.Kind)
		if output := convErr.Output(); output != "" {
			response.Details += "\n" + output
		}
	}
	Logger.Error(message, "path", c.Request().URL.Path, "error", err)
	return c.JSON(http.StatusInternalServerError, response)
}

// newWorkspace creates a private directory for one request under the configured temp root
func (serverHandler *ServerHandler) newWorkspace() (string, error) {
	root := serverHandler.ServerConfig.TempPath
	if root == "" {
		root = os.TempDir()
	}
	if err := os.MkdirAll(root, 0755); err != nil {
		return "", fmt.Errorf("unable to create temp root: %w", err)
	}
	workspace, err := os.MkdirTemp(root, "goslides-"+ulid.Make().String()+"-")
	if err != nil {
		return "", fmt.Errorf("unable to create request workspace: %w", err)
	}
	Logger.Debug("Created request workspace", "path", workspace)
	return workspace, nil
}

func removeWorkspace(workspace string) {
	if err := os.RemoveAll(workspace); err != nil {
		Logger.Warn("Unable to remove request workspace", "path", workspace, "error", err)
	}
}

// uploadName reduces a client supplied filename to a safe base name
func uploadName(filename string) string {
	name := filepath.Base(filepath.Clean("/" + strings.ReplaceAll(filename, `\`, "/")))
	if name == "/" || name == "." || name == "" {
		return "upload.pptx"
	}
	return name
}

// saveUpload copies the uploaded file into the workspace and returns its path
func saveUpload(fileHeader *multipart.FileHeader, workspace string) (string, error) {
	src, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("unable to open upload: %w", err)
	}
	defer src.Close()

	path := filepath.Join(workspace, uploadName(fileHeader.Filename))
	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("unable to store upload: %w", err)
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return "", fmt.Errorf("unable to store upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		return "", fmt.Errorf("unable to store upload: %w", err)
	}
	return path, nil
}
