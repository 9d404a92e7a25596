package documents

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
	documentService *Service
	searchService   *search.Service
}

func (h *handler) create(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	user, ok := c.Get("user").(*models.User)
	if !ok {
		return errcodes.Unauthorized("Authentication required")
	}

	params := CreateDocumentPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	fileType, err := h.documentService.RetrieveFileType(ctx, params.FileExtension)
	if err != nil {
		return errors.WithStack(err)
	}

	doc := &models.Document{
		Name:        params.Name,
		Description: params.Description,
		FileTypeID:  fileType.ID,
		FileSize:    params.FileSize,
		FolderID:    params.FolderID,
		CreatorID:   user.ID,
	}
	if err := h.documentService.CreateDocument(ctx, doc); err != nil {
		return errors.WithStack(err)
	}
	doc.FileType = fileType

	if err := h.searchService.IndexDocument(ctx, doc); err != nil {
		log.Warn("failed to update search index for document", logger.Data{"document_id": doc.ID, "error": err.Error()})
	}

	return errors.WithStack(c.JSON(http.StatusCreated, doc))
}

func (h *handler) retrieve(c echo.Context) error {
	doc, err := h.retrieveOwned(c)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, doc))
}

func (h *handler) update(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	doc, err := h.retrieveOwned(c)
	if err != nil {
		return errors.WithStack(err)
	}

	params := UpdateDocumentPayload{}
	if err := c.Bind(&params); err != nil {
		return errors.WithStack(err)
	}

	opts := UpdateDocumentOptions{Columns: []string{}}
	if params.Name != nil && *params.Name != doc.Name {
		doc.Name = *params.Name
		opts.Columns = append(opts.Columns, "name")
	}
	if params.Description != nil {
		if *params.Description == "" {
			doc.Description = nil
		} else {
			doc.Description = params.Description
		}
		opts.Columns = append(opts.Columns, "description")
	}

	if err := h.documentService.UpdateDocument(ctx, doc, opts); err != nil {
		return errors.WithStack(err)
	}

	if len(opts.Columns) > 0 {
		if err := h.searchService.IndexDocument(ctx, doc); err != nil {
			log.Warn("failed to update search index for document", logger.Data{"document_id": doc.ID, "error": err.Error()})
		}
	}

	return errors.WithStack(c.JSON(http.StatusOK, doc))
}

func (h *handler) delete(c echo.Context) error {
	ctx := c.Request().Context()
	log := logger.FromContext(ctx)

	doc, err := h.retrieveOwned(c)
	if err != nil {
		return errors.WithStack(err)
	}

	if err := h.documentService.DeleteDocument(ctx, doc); err != nil {
		return errors.WithStack(err)
	}

	if err := h.searchService.MarkDeleted(ctx, models.EntryKindDocument, []int{doc.ID}); err != nil {
		log.Warn("failed to update search index for document", logger.Data{"document_id": doc.ID, "error": err.Error()})
	}

	return errors.WithStack(c.NoContent(http.StatusNoContent))
}

func (h *handler) listFileTypes(c echo.Context) error {
	ctx := c.Request().Context()

	fileTypes, err := h.documentService.ListFileTypes(ctx)
	if err != nil {
		return errors.WithStack(err)
	}

	return errors.WithStack(c.JSON(http.StatusOK, fileTypes))
}

// retrieveOwned loads the document named by the :id param. Documents of other
// users are reported as missing.
func (h *handler) retrieveOwned(c echo.Context) (*models.Document, error) {
	ctx := c.Request().Context()

	user, ok := c.Get("user").(*models.User)
	if !ok {
		return nil, errcodes.Unauthorized("Authentication required")
	}

	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		return nil, errcodes.NotFound("Document")
	}

	return h.documentService.RetrieveDocument(ctx, RetrieveDocumentOptions{
		ID:        pointerutil.Int(id),
		CreatorID: pointerutil.Int(user.ID),
	})
}
