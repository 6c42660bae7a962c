// Package httpapi exposes the ledger over a JSON HTTP API. Handlers stay
// thin: bind, resolve the caller, delegate to a service, render a DTO.
package httpapi

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/verarta/artledger/internal/server/config"
	"github.com/verarta/artledger/internal/server/services"
)

const requestBodyLimit = "1M"

type Server struct {
	echo    *echo.Echo
	config  *config.Config
	ledger  *services.LedgerService
	quota   *services.QuotaService
	escrow  *services.EscrowService
	audit   *services.AuditService
	archive *services.ArchiveService
}

func NewServer(cfg *config.Config, ledger *services.LedgerService, quota *services.QuotaService,
	escrow *services.EscrowService, audit *services.AuditService, archive *services.ArchiveService) *Server {

	s := &Server{
		config:  cfg,
		ledger:  ledger,
		quota:   quota,
		escrow:  escrow,
		audit:   audit,
		archive: archive,
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = HTTPErrorHandler

	e.Use(RequestID())
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.BodyLimit(requestBodyLimit))

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	api := e.Group("/api")
	api.Use(s.RequireCaller())

	api.POST("/auth/token", s.mintToken)

	api.POST("/artworks", s.createArtwork)
	api.GET("/artworks/:id", s.getArtwork)
	api.PATCH("/artworks/:id", s.updateArtwork)
	api.DELETE("/artworks/:id", s.deleteArtwork)
	api.POST("/artworks/:id/transfer", s.transferArtwork)
	api.GET("/artworks/:id/files", s.listFiles)

	api.POST("/files", s.addFile)
	api.GET("/files/:id", s.getFile)
	api.DELETE("/files/:id", s.deleteFile)
	api.POST("/files/:id/complete", s.completeFile)
	api.GET("/files/:id/chunks", s.chunkManifest)
	api.POST("/files/:id/admin-dek", s.addAdminDek)
	api.GET("/files/:id/access-logs", s.listFileAccess)
	api.POST("/files/:id/archive/upload-url", s.archiveUploadURL)
	api.GET("/files/:id/archive/download-url", s.archiveDownloadURL)

	api.POST("/chunks", s.uploadChunk)
	api.GET("/chunks/:id/payload", s.chunkPayload)

	api.POST("/quotas", s.setQuota)
	api.GET("/quotas/:account", s.getQuota)

	api.POST("/admin-keys", s.addAdminKey)
	api.GET("/admin-keys", s.listAdminKeys)
	api.DELETE("/admin-keys/:id", s.removeAdminKey)

	api.POST("/access-logs", s.logAccess)

	s.echo = e
	return s
}

// Start begins serving on the configured address and blocks until the
// server stops.
func (s *Server) Start() error {
	return s.echo.Start(s.config.EndpointAddrHTTP)
}

// Shutdown drains in-flight requests and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

// Echo exposes the underlying router for tests.
func (s *Server) Echo() *echo.Echo {
	return s.echo
}
