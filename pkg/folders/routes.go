package folders

import (
	"github.com/labstack/echo/v4"
	"github.com/terftw/doc-management/pkg/search"
)

func RegisterRoutesWithGroup(g *echo.Group, folderService *Service, searchService *search.Service) {
	h := &handler{
		folderService: folderService,
		searchService: searchService,
	}

	g.POST("", h.create)
	g.GET("/:id", h.retrieve)
	g.PATCH("/:id", h.update)
	g.DELETE("/:id", h.delete)
}
