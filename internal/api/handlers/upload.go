package handlers

import (
	"context"
	"errors"
	"log/slog"
	"mime/multipart"
	"net/http"

	"realtime-threads/internal/adapters/storage"
	"realtime-threads/pkg/response"

	"github.com/gin-gonic/gin"
)

type ImageUploader interface {
	UploadImage(ctx context.Context, file *multipart.FileHeader) (*storage.UploadResult, error)
}

type UploadHandler struct {
	uploader ImageUploader
}

func NewUploadHandler(uploader ImageUploader) *UploadHandler {
	return &UploadHandler{uploader: uploader}
}

// UploadImage godoc
// @Summary Upload an image
// @Description Stores an image of at most 10 MB and returns its public URL, for use as a message imageUrl or avatar
// @Tags upload
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image file"
// @Success 201 {object} storage.UploadResult
// @Failure 400 {object} models.ErrorResponse
// @Failure 413 {object} models.ErrorResponse
// @Router /upload/image [post]
func (h *UploadHandler) UploadImage(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, storage.MaxImageSize+(1<<20))

	file, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, http.StatusRequestEntityTooLarge, "", "")
			return
		}
		response.Error(c, http.StatusBadRequest, "file is required", err.Error())
		return
	}

	result, err := h.uploader.UploadImage(c.Request.Context(), file)
	switch {
	case err == nil:
		response.Created(c, result)
	case errors.Is(err, storage.ErrNotAnImage):
		response.Error(c, http.StatusBadRequest, err.Error(), "")
	case errors.Is(err, storage.ErrFileTooLarge):
		response.Error(c, http.StatusRequestEntityTooLarge, "", err.Error())
	default:
		slog.Error("Failed to upload image", "userID", currentUserID(c), "error", err)
		response.Error(c, http.StatusInternalServerError, "", "")
	}
}
