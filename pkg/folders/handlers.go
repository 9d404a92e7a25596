package folders

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"
	"github.com/robinjoseph08/golib/logger"
	"github.com/robinjoseph08/golib/pointerutil"
	"github.com/terftw/doc-management/pkg/errcodes"
	"github.com/terftw/doc-management/pkg/models"
	"github.com/terftw/doc-management/pkg/search"
)

type handler struct {
	folderService *Service
	searchService *search.Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	user, ok := c.Get("user").(*models.User)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := CreateFolderPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	folder := &models.Folder{
		Name:        params.Name,
		Description: params.Description,
		ParentID:    params.ParentID,
		CreatorID:   user.ID,
	}
	if err := h.folderService.CreateFolder(ctx, folder); err != nil {
		return errors.WithStack(err)
	}

	if err := h.searchService.IndexFolder(ctx, folder); err != nil {
		log.Warn("failed to update search index for folder", logger.Data{"folder_id": folder.ID, "error": err.Error()})
	}

	return errors.WithStack(c.JSON(http.StatusCreated, folder))
}

func (h *handler) retrieve(c echo.Context) error {
	folder, err := h.retrieveOwned(c)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, folder))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	folder, err := h.retrieveOwned(c)
	if err != nil {
		return errors.WithStack(err)
	}

	params := UpdateFolderPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := UpdateFolderOptions{Columns: []string{}}
	if params.Name != nil && *params.Name != folder.Name {
		folder.Name = *params.Name
		opts.Columns = append(opts.Columns, "name")
	}
	if params.Description != nil {
		if *params.Description == "" {
			folder.Description = nil
		} else {
			folder.Description = params.Description
		}
		opts.Columns = append(opts.Columns, "description")
	}

	if err := h.folderService.UpdateFolder(ctx, folder, opts); err != nil {
		return errors.WithStack(err)
	}

	if len(opts.Columns) > 0 {
		if err := h.searchService.IndexFolder(ctx, folder); err != nil {
			log.Warn("failed to update search index for folder", logger.Data{"folder_id": folder.ID, "error": err.Error()})
		}
	}

	return errors.WithStack(c.JSON(http.StatusOK, folder))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	folder, err := h.retrieveOwned(c)
	if err != nil {
		return errors.WithStack(err)
	}

	folderIDs, documentIDs, err := h.folderService.DeleteFolder(ctx, folder)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.searchService.MarkDeleted(ctx, models.EntryKindFolder, folderIDs); err != nil {
		log.Warn("failed to update search index for folders", logger.Data{"folder_ids": folderIDs, "error": err.Error()})
	}
	if err := h.searchService.MarkDeleted(ctx, models.EntryKindDocument, documentIDs); err != nil {
		log.Warn("failed to update search index for documents", logger.Data{"document_ids": documentIDs, "error": err.Error()})
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

// retrieveOwned loads the folder named by the :id param. Folders of other
// users are reported as missing.
func (h *handler) retrieveOwned(c echo.Context) (*models.Folder, error) {
	ctx := c.Request().Context()

	user, ok := c.Get("user").(*models.User)
	if !ok {
		return nil, errcodes.Unauthorized("Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, errcodes.NotFound("Folder")
	}

	return h.folderService.RetrieveFolder(ctx, RetrieveFolderOptions{
		ID:        pointerutil.Int(id),
		CreatorID: pointerutil.Int(user.ID),
	})
}
