package fsentry

import (
	"github.com/labstack/echo/v4"
	"github.com/terftw/doc-management/pkg/config"
)

func RegisterRoutesWithGroup(g *echo.Group, entryService *Service, cfg *config.Config) {
	h := &handler{
		entryService:    entryService,
		defaultPageSize: cfg.DefaultPageSize,
		defaultSort:     defaultSort(cfg),
	}

	g.GET("", h.list)
	g.GET("/:folderId", h.listInFolder)
}
