package middleware

import (
	"fmt"
	"mime/multipart"
	"strings"

	"plastikhb/internal/models"
	"plastikhb/pkg/logger"
	"plastikhb/pkg/storage"

	"github.com/gofiber/fiber/v2"
)

const uploadedFilesKey = "uploaded_files"

// UploadConfig limits what UploadImages accepts.
type UploadConfig struct {
	Field    string // multipart field holding the files
	MaxFiles int
	MaxSize  int64 // per file, in bytes
}

// UploadImages saves the image files of a multipart request to store before the handler runs.
// Requests that are not multipart pass through with no files. If the handler fails, the saved
// files that are still on disk are removed.
func UploadImages(store *storage.FileStore, cfg UploadConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEMultipartForm) {
			return c.Next()
		}

		form, err := c.MultipartForm()
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid multipart form")
		}
		headers := form.File[cfg.Field]
		if len(headers) > cfg.MaxFiles {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Too many files. Maximum is %d", cfg.MaxFiles))
		}
		for _, h := range headers {
			if err := checkImage(h, cfg.MaxSize); err != nil {
				return err
			}
		}

		files := make([]models.UploadedFile, 0, len(headers))
		for _, h := range headers {
			name := store.NewName(h.Filename)
			if err := c.SaveFile(h, store.Path(name)); err != nil {
				store.Remove(storage.ReasonRejected, models.UploadedFilenames(files)...)
				logger.Error().Err(err).Str("file", h.Filename).Msg("failed to save upload")
				return fiber.NewError(fiber.StatusInternalServerError, "Failed to store uploaded file")
			}
			files = append(files, models.UploadedFile{
				Filename:     name,
				OriginalName: h.Filename,
				MimeType:     h.Header.Get(fiber.HeaderContentType),
				Size:         h.Size,
			})
		}
		c.Locals(uploadedFilesKey, files)

		if err := c.Next(); err != nil {
			var leftovers []string
			for _, f := range files {
				if store.Exists(f.Filename) {
					leftovers = append(leftovers, f.Filename)
				}
			}
			store.Remove(storage.ReasonRejected, leftovers...)
			return err
		}
		return nil
	}
}

// UploadedFiles returns the files saved by UploadImages for this request.
func UploadedFiles(c *fiber.Ctx) []models.UploadedFile {
	files, _ := c.Locals(uploadedFilesKey).([]models.UploadedFile)
	return files
}

func checkImage(h *multipart.FileHeader, maxSize int64) error {
	if !strings.HasPrefix(h.Header.Get(fiber.HeaderContentType), "image/") {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("File '%s' is not an image. Only image files are allowed", h.Filename))
	}
	if maxSize > 0 && h.Size > maxSize {
		return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("File '%s' exceeds the maximum size of %d bytes", h.Filename, maxSize))
	}
	return nil
}
