package handlers

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/kerimovok/go-pkg-utils/httpx"
	"github.com/kerimovok/go-pkg-utils/validator"

	"chat-files-api/internal/faults"
	"chat-files-api/internal/metrics"
	"chat-files-api/internal/middleware"
	"chat-files-api/internal/models"
	"chat-files-api/internal/requests"
	"chat-files-api/internal/services"
	"chat-files-api/internal/utils"
)

// FileHandler handles file-related HTTP requests
type FileHandler struct {
	fileService *services.FileService
}

// NewFileHandler creates a new file handler
func NewFileHandler(fileService *services.FileService) *FileHandler {
	return &FileHandler{fileService: fileService}
}

// fileMetadata is the caller-facing view of a file record. Storage paths
// never leave the service.
type fileMetadata struct {
	ID           uuid.UUID           `json:"id"`
	Filename     string              `json:"filename"`
	MimeType     string              `json:"mimeType"`
	FileType     models.FileType     `json:"fileType"`
	Size         int64               `json:"size"`
	UsageContext models.UsageContext `json:"usageContext"`
	HasThumbnail bool                `json:"hasThumbnail"`
	CreatedAt    time.Time           `json:"createdAt"`
}

func toMetadata(f *models.File) fileMetadata {
	return fileMetadata{
		ID:           f.ID,
		Filename:     f.Filename,
		MimeType:     f.MimeType,
		FileType:     f.FileType,
		Size:         f.Size,
		UsageContext: f.UsageContext,
		HasThumbnail: f.HasThumbnail(),
		CreatedAt:    f.CreatedAt,
	}
}

// respondError maps service errors onto HTTP responses. NotFound and
// Forbidden stay distinct so a 404 means "does not exist (for you)" and a
// 403 means "exists but you may not see it".
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case faults.IsValidation(err), faults.IsQuota(err):
		response := httpx.BadRequest(err.Error(), err)
		return httpx.SendResponse(c, response)
	case faults.IsNotFound(err):
		response := httpx.NotFound("File not found")
		return httpx.SendResponse(c, response)
	case faults.IsForbidden(err):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
			"success": false,
			"message": "You do not have access to this file",
		})
	case err == faults.ErrNotImplemented:
		return c.Status(fiber.StatusNotImplemented).JSON(fiber.Map{
			"success": false,
			"message": "Storage backend does not support this operation",
		})
	default:
		response := httpx.InternalServerError("Failed to process request", err)
		return httpx.SendResponse(c, response)
	}
}

// UploadFile handles file upload requests
func (h *FileHandler) UploadFile(c *fiber.Ctx) error {
	file, err := c.FormFile("file")
	if err != nil {
		response := httpx.BadRequest("No file provided", err)
		return httpx.SendResponse(c, response)
	}

	var input requests.UploadFileRequest
	if err := c.BodyParser(&input); err != nil {
		response := httpx.BadRequest("Invalid request body", err)
		return httpx.SendResponse(c, response)
	}
	if err := validator.ValidateStruct(&input); err != nil {
		response := httpx.BadRequest("Validation failed", err)
		return httpx.SendResponse(c, response)
	}

	src, err := file.Open()
	if err != nil {
		response := httpx.InternalServerError("Failed to open uploaded file", err)
		return httpx.SendResponse(c, response)
	}
	defer src.Close()

	mimeType := file.Header.Get(fiber.HeaderContentType)
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	created, err := h.fileService.Upload(c.UserContext(), services.UploadInput{
		Reader:            src,
		Filename:          file.Filename,
		MimeType:          mimeType,
		Size:              file.Size,
		UsageContext:      models.UsageContext(input.UsageContext),
		RelatedResourceID: input.RelatedResourceID,
		UploaderID:        middleware.CallerID(c),
	})
	if err != nil {
		return respondError(c, err)
	}

	response := httpx.Created("File uploaded successfully", toMetadata(created))
	return httpx.SendResponse(c, response)
}

// GetFile returns a file's metadata
func (h *FileHandler) GetFile(c *fiber.Ctx) error {
	fileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		response := httpx.BadRequest("Invalid file ID", err)
		return httpx.SendResponse(c, response)
	}

	file, err := h.fileService.Get(c.UserContext(), middleware.CallerID(c), fileID)
	if err != nil {
		return respondError(c, err)
	}

	response := httpx.OK("File retrieved successfully", toMetadata(file))
	return httpx.SendResponse(c, response)
}

// GetContent streams the file body, honoring a single byte range.
func (h *FileHandler) GetContent(c *fiber.Ctx) error {
	fileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		response := httpx.BadRequest("Invalid file ID", err)
		return httpx.SendResponse(c, response)
	}

	start := time.Now()
	metrics.ActiveDownloads.Inc()
	defer metrics.ActiveDownloads.Dec()

	res, err := h.fileService.OpenContent(c.UserContext(), middleware.CallerID(c), fileID, c.Get(fiber.HeaderRange))
	if err != nil {
		metrics.DownloadsTotal.WithLabelValues("error").Inc()
		return respondError(c, err)
	}

	c.Set(fiber.HeaderAcceptRanges, "bytes")

	if res.Status == fiber.StatusRequestedRangeNotSatisfiable {
		metrics.DownloadsTotal.WithLabelValues("unsatisfiable").Inc()
		c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes */%d", res.File.Size))
		return c.SendStatus(fiber.StatusRequestedRangeNotSatisfiable)
	}

	c.Set(fiber.HeaderContentType, res.File.MimeType)
	if res.Status == fiber.StatusPartialContent {
		c.Set(fiber.HeaderContentRange, fmt.Sprintf("bytes %d-%d/%d", res.Start, res.End, res.File.Size))
	} else {
		c.Set(fiber.HeaderContentDisposition, utils.ContentDisposition(res.File.Filename))
	}

	metrics.DownloadsTotal.WithLabelValues("success").Inc()
	metrics.DownloadBytesTotal.Add(float64(res.Length))
	metrics.DownloadDuration.Observe(time.Since(start).Seconds())

	c.Status(res.Status)
	return c.SendStream(res.Reader, int(res.Length))
}

// GetThumbnail serves the derived thumbnail, if one exists. Thumbnails are
// immutable once generated, so they get long-lived cache headers.
func (h *FileHandler) GetThumbnail(c *fiber.Ctx) error {
	fileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		response := httpx.BadRequest("Invalid file ID", err)
		return httpx.SendResponse(c, response)
	}

	data, err := h.fileService.OpenThumbnail(c.UserContext(), middleware.CallerID(c), fileID)
	if err != nil {
		return respondError(c, err)
	}

	c.Set(fiber.HeaderContentType, "image/jpeg")
	c.Set(fiber.HeaderCacheControl, "public, max-age=31536000, immutable")
	return c.Send(data)
}

// DeleteFile soft-deletes a file owned by the caller
func (h *FileHandler) DeleteFile(c *fiber.Ctx) error {
	fileID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		response := httpx.BadRequest("Invalid file ID", err)
		return httpx.SendResponse(c, response)
	}

	if err := h.fileService.Delete(c.UserContext(), middleware.CallerID(c), fileID); err != nil {
		return respondError(c, err)
	}

	response := httpx.OK("File deleted successfully", nil)
	return httpx.SendResponse(c, response)
}

// ListFiles returns the caller's own files, newest first
func (h *FileHandler) ListFiles(c *fiber.Ctx) error {
	var input requests.ListFilesRequest
	if err := c.QueryParser(&input); err != nil {
		response := httpx.BadRequest("Invalid query parameters", err)
		return httpx.SendResponse(c, response)
	}

	files, total, err := h.fileService.ListOwn(c.UserContext(), middleware.CallerID(c), input.Page, input.Limit)
	if err != nil {
		return respondError(c, err)
	}

	items := make([]fileMetadata, 0, len(files))
	for i := range files {
		items = append(items, toMetadata(&files[i]))
	}

	result := map[string]interface{}{
		"files": items,
		"total": total,
	}
	response := httpx.OK("Files retrieved successfully", result)
	return httpx.SendResponse(c, response)
}
