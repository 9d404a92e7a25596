package fsentry

import (
	"net/http"
	"strconv"

	"github.com/iancoleman/strcase"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/terftw/doc-management/pkg/config"
	"github.com/terftw/doc-management/pkg/errcodes"
	"github.com/terftw/doc-management/pkg/models"
)

type handler struct {
	entryService *Service

	defaultPageSize int
	defaultSort     models.Sort
}

func (h *handler) list(c echo.Context) error {
	return h.respond(c, nil)
}

func (h *handler) listInFolder(c echo.Context) error {
	folderID, err := strconv.Atoi(c.Param("folderId"))
	if err != nil {
		return errcodes.NotFound("Folder")
	}
	return h.respond(c, &folderID)
}

func (h *handler) respond(c echo.Context, folderID *int) error {
	ctx := c.Request().Context()

	user, ok := c.Get("user").(*models.User)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := ListEntriesQuery{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	result, err := h.entryService.ListEntries(ctx, user.ID, h.query(params), folderID)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, result))
}

// query fills in defaults for whatever the request left out.
func (h *handler) query(params ListEntriesQuery) Query {
	q := Query{
		Page:        1,
		PageSize:    h.defaultPageSize,
		SearchQuery: params.SearchQuery,
		Sort:        h.defaultSort,
	}
	if params.Page != nil {
		q.Page = *params.Page
	}
	if params.PageSize != nil {
		q.PageSize = *params.PageSize
	} else if params.Limit != nil {
		q.PageSize = *params.Limit
	}
	if params.SortBy != "" {
		q.Sort.By = strcase.ToSnake(params.SortBy)
	}
	if params.SortOrder != "" {
		q.Sort.Order = params.SortOrder
	}
	return q
}

func defaultSort(cfg *config.Config) models.Sort {
	sort := models.DefaultSort
	if cfg.DefaultSortBy != "" {
		sort.By = strcase.ToSnake(cfg.DefaultSortBy)
	}
	if cfg.DefaultSortOrder != "" {
		sort.Order = cfg.DefaultSortOrder
	}
	return sort
}
