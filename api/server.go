// Package api is the main api web server
package api

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"smartmirror/album"
	"smartmirror/api/models"
	"smartmirror/config"
	"smartmirror/mirror"
	"smartmirror/schedule"
)

//go:embed web/templates/*
var webFiles embed.FS

const proxyTimeout = 10 * time.Second

type WebServer struct {
	router       *gin.Engine
	cfg          *config.Store
	rootPath     string
	defaultAlbum string

	shared *album.SharedAlbumLister
	s3     *album.S3Lister

	albumManager *AlbumManager
	mirror       *mirror.Mirror

	proxyClient *http.Client
}

// NewWebServer wires the http surface. defaultAlbum may be empty, in which
// case every /api/album request must carry its own url. s3Lister may be nil
// when no AWS configuration is available; s3:// albums then fail with an
// upstream error.
func NewWebServer(cfg *config.Store, rootPath, defaultAlbum string, s3Lister *album.S3Lister) *WebServer {
	router := gin.Default()

	ws := &WebServer{
		router:       router,
		cfg:          cfg,
		rootPath:     rootPath,
		defaultAlbum: defaultAlbum,
		shared:       album.NewSharedAlbumLister(),
		s3:           s3Lister,
		proxyClient:  &http.Client{Timeout: proxyTimeout},
	}

	if defaultAlbum != "" {
		lister, err := ws.listerFor(defaultAlbum)
		if err != nil {
			log.Fatalf("Failed to initialize album manager: %v", err)
		}
		ws.albumManager = NewAlbumManager(lister, defaultAlbum)
	}

	// Setup routes
	ws.setupRoutes()

	return ws
}

// SetMirror attaches the dashboard core backing /api/state.
func (ws *WebServer) SetMirror(m *mirror.Mirror) {
	ws.mirror = m
}

func (ws *WebServer) setupRoutes() {
	// Create filesystem for templates
	templatesFS, err := fs.Sub(webFiles, "web/templates")
	if err != nil {
		log.Fatalf("Failed to create templates filesystem: %v", err)
	}

	// Serve index.html from embedded filesystem
	ws.router.GET("/", func(c *gin.Context) {
		data, err := fs.ReadFile(templatesFS, "index.html")
		if err != nil {
			slog.Error("failed to read index.html", "error", err)
			c.String(http.StatusInternalServerError, "Failed to load index.html")
			return
		}
		c.Data(http.StatusOK, "text/html; charset=utf-8", data)
	})

	// Catalog assets generated out-of-band under the public directory
	ws.router.Static("/fonts", filepath.Join(ws.rootPath, "fonts"))
	for _, name := range []string{"fonts.json", "fonts.css", "themes.json", "FALLBACK.png"} {
		ws.router.StaticFile("/"+name, filepath.Join(ws.rootPath, name))
	}

	// API routes
	ws.router.GET("/api/album", ws.handleAlbum)
	ws.router.GET("/api/proxy", ws.handleProxy)
	ws.router.GET("/api/state", ws.handleState)
	ws.router.GET("/api/schedule", ws.handleSchedule)
	ws.router.GET("/api/settings", ws.handleGetSettings)
	ws.router.PUT("/api/settings", ws.handleUpdateSettings)
	ws.router.DELETE("/api/settings", ws.handleRevertSettings)
}

func (ws *WebServer) Start(port string) {
	if ws.albumManager != nil {
		go ws.albumManager.Run()
	}

	log.Printf("Starting web server on port %s", port)
	if err := ws.router.Run(port); err != nil {
		log.Fatalf("Failed to start web server: %v", err)
	}
}

func (ws *WebServer) listerFor(albumURL string) (album.Lister, error) {
	if strings.HasPrefix(albumURL, "s3://") {
		if ws.s3 == nil {
			return nil, fmt.Errorf("s3 album %s requested but no aws configuration is loaded", albumURL)
		}
		return ws.s3, nil
	}
	return ws.shared, nil
}

func (ws *WebServer) handleAlbum(c *gin.Context) {
	albumURL := c.Query("url")
	if albumURL == "" {
		albumURL = ws.defaultAlbum
	}
	if albumURL == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "No album URL provided"})
		return
	}

	// The default album is served from the 5 minute cache; explicit urls
	// are resolved live.
	if albumURL == ws.defaultAlbum && ws.albumManager != nil {
		urls := ws.albumManager.Get()
		if urls == nil {
			urls = []string{}
		}
		c.JSON(http.StatusOK, urls)
		return
	}

	lister, err := ws.listerFor(albumURL)
	if err != nil {
		slog.Error("album fetch failed", "albumUrl", albumURL, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to fetch album"})
		return
	}

	ctx, cancel := contextWithFetchTimeout(c)
	defer cancel()

	urls, err := lister.List(ctx, albumURL)
	if err != nil {
		slog.Error("album fetch failed", "albumUrl", albumURL, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to fetch album"})
		return
	}
	if urls == nil {
		urls = []string{}
	}

	c.JSON(http.StatusOK, urls)
}

func (ws *WebServer) handleProxy(c *gin.Context) {
	rawURL := c.Query("url")
	if rawURL == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Missing URL"})
		return
	}

	if strings.HasPrefix(rawURL, "s3://") {
		ws.proxyS3(c, rawURL)
		return
	}

	req, err := http.NewRequestWithContext(c.Request.Context(), http.MethodGet, rawURL, nil)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "Invalid URL"})
		return
	}

	resp, err := ws.proxyClient.Do(req)
	if err != nil {
		slog.Error("proxy fetch failed", "url", rawURL, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to fetch image"})
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Error("proxy fetch failed", "url", rawURL, "status", resp.StatusCode)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to fetch image"})
		return
	}

	contentType := resp.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "image/jpeg"
	}

	c.DataFromReader(http.StatusOK, resp.ContentLength, contentType, resp.Body, nil)
}

func (ws *WebServer) proxyS3(c *gin.Context, objectURL string) {
	if ws.s3 == nil {
		slog.Error("proxy fetch failed", "url", objectURL, "error", "no aws configuration loaded")
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to fetch image"})
		return
	}

	ctx, cancel := contextWithFetchTimeout(c)
	defer cancel()

	data, contentType, err := ws.s3.FetchObject(ctx, objectURL)
	if err != nil {
		slog.Error("proxy fetch failed", "url", objectURL, "error", err)
		c.JSON(http.StatusInternalServerError, models.ErrorResponse{Error: "Failed to fetch image"})
		return
	}

	c.Data(http.StatusOK, contentType, data)
}

func (ws *WebServer) handleState(c *gin.Context) {
	if ws.mirror == nil {
		c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "Dashboard not mounted"})
		return
	}
	c.JSON(http.StatusOK, ws.mirror.Snapshot())
}

func (ws *WebServer) handleSchedule(c *gin.Context) {
	c.JSON(http.StatusOK, schedule.Default)
}

func (ws *WebServer) handleGetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, ws.cfg.Current())
}

func (ws *WebServer) handleUpdateSettings(c *gin.Context) {
	var req config.Partial
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: fmt.Sprintf("Invalid request body: %v", err)})
		return
	}

	// Input floor; the store itself only rejects non-positive values.
	if req.SlideshowSpeed != nil && *req.SlideshowSpeed < 5 {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{Error: "slideshowSpeed must be at least 5 seconds"})
		return
	}

	c.JSON(http.StatusOK, ws.cfg.Update(req))
}

func (ws *WebServer) handleRevertSettings(c *gin.Context) {
	c.JSON(http.StatusOK, ws.cfg.Revert())
}

func contextWithFetchTimeout(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), albumFetchTimeout)
}
