package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"chatgw/internal/service"
)

// ListDocuments returns the local document collection in its current order.
//
// @Summary      List documents
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}  model.Document
// @Router       /documents [get]
func ListDocuments(dir service.DocumentDirectory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(dir.All())
	}
}

// UploadDocument accepts a multipart upload (field name: file) and returns
// the pending placeholder record.
//
// @Summary      Upload a document
// @Tags         documents
// @Security     BearerAuth
// @Accept       multipart/form-data
// @Produce      json
// @Param        file  formData  file  true  "Document file"
// @Success      201   {object}  model.Document
// @Failure      400   {object}  errorPayload
// @Failure      502   {object}  errorPayload
// @Router       /documents [post]
func UploadDocument(dir service.DocumentDirectory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "file is required")
		}

		f, err := fh.Open()
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_OPEN_ERROR", "cannot open uploaded file")
		}
		defer f.Close()

		ct := fh.Header.Get("Content-Type")
		if ct == "" {
			ct = "application/octet-stream"
		}

		doc, err := dir.Upload(c.UserContext(), fh.Filename, ct, fh.Size, f)
		if err != nil {
			if errors.Is(err, service.ErrValidation) {
				return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", "filename is required")
			}
			if isUpstreamError(err) {
				return writeError(c, fiber.StatusBadGateway, "UPSTREAM_ERROR", "document store unavailable")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.Status(fiber.StatusCreated).JSON(doc)
	}
}

// RefreshDocuments re-synchronizes the local view from the remote listing
// and returns the merged collection.
//
// @Summary      Refresh documents from the remote listing
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   model.Document
// @Failure      502  {object}  errorPayload
// @Router       /documents/refresh [post]
func RefreshDocuments(dir service.DocumentDirectory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := dir.Refresh(c.UserContext()); err != nil {
			if isUpstreamError(err) {
				return writeError(c, fiber.StatusBadGateway, "UPSTREAM_ERROR", "document listing unavailable")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.JSON(dir.All())
	}
}

// GetDocument returns a single document from the local view. The id is the
// remainder of the path: object keys contain slashes.
//
// @Summary      Get document by ID
// @Tags         documents
// @Security     BearerAuth
// @Produce      json
// @Param        id   path      string  true  "Document ID (object key)"
// @Success      200  {object}  model.Document
// @Failure      404  {object}  errorPayload
// @Router       /documents/{id} [get]
func GetDocument(dir service.DocumentDirectory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, ok := dir.Lookup(c.Params("+"))
		if !ok {
			return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
		}
		return c.JSON(doc)
	}
}

// DeleteDocument removes a document from the local view only. The remote
// object is untouched and reappears on the next refresh.
//
// @Summary      Delete document from the local view
// @Tags         documents
// @Security     BearerAuth
// @Param        id  path  string  true  "Document ID (object key)"
// @Success      204
// @Failure      400  {object}  errorPayload
// @Router       /documents/{id} [delete]
func DeleteDocument(dir service.DocumentDirectory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := dir.Remove(c.UserContext(), c.Params("+")); err != nil {
			if errors.Is(err, service.ErrIDRequired) {
				return writeError(c, fiber.StatusBadRequest, "INVALID_ID", "id is required")
			}
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
		return c.SendStatus(fiber.StatusNoContent)
	}
}
