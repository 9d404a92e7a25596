package documents

import (
	"github.com/labstack/echo/v4"
	"github.com/terftw/doc-management/pkg/search"
)

func RegisterRoutesWithGroup(g *echo.Group, documentService *Service, searchService *search.Service) {
	h := &handler{
		documentService: documentService,
		searchService:   searchService,
	}

	g.POST("", h.create)
	g.GET("/:id", h.retrieve)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
}

func RegisterFileTypeRoutesWithGroup(g *echo.Group, documentService *Service) {
	h := &handler{documentService: documentService}

	g.GET("", h.listFileTypes)
}
