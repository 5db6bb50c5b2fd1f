package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"plastikhb/pkg/logger"
	"plastikhb/pkg/metrics"

	"github.com/google/uuid"
)

// Removal reasons, reported as metric labels.
const (
	ReasonSuperseded = "superseded"
	ReasonRollback   = "rollback"
	ReasonRejected   = "rejected"
)

const placeholderImage = "/placeholder.jpg"

// FileStore keeps uploaded product media in a single flat directory.
// Rows reference files by base name only.
type FileStore struct {
	dir string
}

// NewFileStore makes sure dir exists and returns a store rooted at it.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, fmt.Errorf("upload directory is not configured")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory %s: %w", dir, err)
	}
	return &FileStore{dir: dir}, nil
}

// Dir returns the root directory of the store.
func (s *FileStore) Dir() string {
	return s.dir
}

// NewName derives a unique stored name from the client's file name, keeping its extension.
func (s *FileStore) NewName(originalName string) string {
	ext := strings.ToLower(filepath.Ext(originalName))
	return fmt.Sprintf("product-%d-%s%s", time.Now().UnixMilli(), uuid.NewString()[:8], ext)
}

// Path returns the absolute location of a stored file.
func (s *FileStore) Path(name string) string {
	return filepath.Join(s.dir, name)
}

// Exists reports whether name refers to a stored file.
func (s *FileStore) Exists(name string) bool {
	if !managed(name) {
		return false
	}
	_, err := os.Stat(s.Path(name))
	return err == nil
}

// Size returns the size of a stored file, or 0 when it is missing.
func (s *FileStore) Size(name string) int64 {
	if !managed(name) {
		return 0
	}
	info, err := os.Stat(s.Path(name))
	if err != nil {
		return 0
	}
	return info.Size()
}

// Remove deletes the named files. Failures are logged and counted, never returned:
// an orphaned file only costs disk space.
func (s *FileStore) Remove(reason string, names ...string) {
	for _, name := range names {
		if !managed(name) {
			continue
		}
		err := os.Remove(s.Path(name))
		switch {
		case err == nil:
			metrics.UploadedFilesDeleted.WithLabelValues(reason, "deleted").Inc()
			logger.Debug().Str("file", name).Str("reason", reason).Msg("file deleted")
		case errors.Is(err, fs.ErrNotExist):
			metrics.UploadedFilesDeleted.WithLabelValues(reason, "missing").Inc()
			logger.Warn().Str("file", name).Str("reason", reason).Msg("file to delete not found")
		default:
			metrics.UploadedFilesDeleted.WithLabelValues(reason, "failed").Inc()
			logger.Error().Err(err).Str("file", name).Str("reason", reason).Msg("failed to delete file")
		}
	}
}

// managed filters out placeholders, remote URLs and anything that is not a bare file name.
func managed(name string) bool {
	if name == "" || name == placeholderImage {
		return false
	}
	if strings.HasPrefix(name, "http://") || strings.HasPrefix(name, "https://") {
		return false
	}
	return filepath.Base(name) == name && name != "." && name != ".."
}
