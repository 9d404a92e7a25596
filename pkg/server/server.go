package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/echo/v4/health"
	"github.com/robinjoseph08/golib/echo/v4/middleware/logger"
	"github.com/robinjoseph08/golib/echo/v4/middleware/recovery"
	"github.com/terftw/doc-management/pkg/auth"
	"github.com/terftw/doc-management/pkg/binder"
	"github.com/terftw/doc-management/pkg/config"
	"github.com/terftw/doc-management/pkg/documents"
	"github.com/terftw/doc-management/pkg/errcodes"
	"github.com/terftw/doc-management/pkg/folders"
	"github.com/terftw/doc-management/pkg/fsentry"
	"github.com/terftw/doc-management/pkg/search"
	"github.com/uptrace/bun"
)

func New(cfg *config.Config, db *bun.DB) (*http.Server, error) {
	e, err := newEcho(cfg, db)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf("%s:%d", cfg.ServerHost, cfg.ServerPort),
		Handler:           e,
		ReadHeaderTimeout: 3 * time.Second,
	}

	return srv, nil
}

func newEcho(cfg *config.Config, db *bun.DB) (*echo.Echo, error) {
	e := echo.New()

	b, err := binder.New()
	if err != nil {
		return nil, errors.WithStack(err)
	}
	e.Binder = b
	e.JSONSerializer = &jsonSerializer{}

	e.Use(logger.Middleware())
	e.Use(recovery.Middleware())
	if len(cfg.CORSOrigins) > 0 {
		e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
			AllowOrigins:     cfg.CORSOrigins,
			AllowCredentials: true,
		}))
	} else {
		e.Use(middleware.CORS())
	}

	health.RegisterRoutes(e)

	authService := auth.NewService(db, cfg.JWTSecret)
	authMiddleware := auth.NewMiddleware(authService)
	auth.RegisterRoutes(e, authService, authMiddleware)

	// Everything below requires a session.
	registerProtectedRoutes(e, db, cfg, authMiddleware)

	echo.NotFoundHandler = notFoundHandler
	e.HTTPErrorHandler = errcodes.NewHandler().Handle

	return e, nil
}

func registerProtectedRoutes(e *echo.Echo, db *bun.DB, cfg *config.Config, authMiddleware *auth.Middleware) {
	folderService := folders.NewService(db, cfg)
	documentService := documents.NewService(db, folderService)
	searchService := search.NewService(db, cfg)
	entryService := fsentry.NewService(folderService, documentService, searchService, cfg.MaxPageSize)

	foldersGroup := e.Group("/folders")
	foldersGroup.Use(authMiddleware.Authenticate)
	folders.RegisterRoutesWithGroup(foldersGroup, folderService, searchService)

	documentsGroup := e.Group("/documents")
	documentsGroup.Use(authMiddleware.Authenticate)
	documents.RegisterRoutesWithGroup(documentsGroup, documentService, searchService)

	fileTypesGroup := e.Group("/file-types")
	fileTypesGroup.Use(authMiddleware.Authenticate)
	documents.RegisterFileTypeRoutesWithGroup(fileTypesGroup, documentService)

	entriesGroup := e.Group("/fsentries")
	entriesGroup.Use(authMiddleware.Authenticate)
	fsentry.RegisterRoutesWithGroup(entriesGroup, entryService, cfg)
}

func notFoundHandler(c echo.Context) error {
	c.SetPath("/:path")
	return errcodes.NotFound("Page")
}
