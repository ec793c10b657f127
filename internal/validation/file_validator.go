package validation

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Upload limits used when the configuration leaves them unset.
const (
	DefaultMaxUploadBytes int64 = 50 << 20
)

// DefaultExtensions are the file types the ingestion layer can parse.
var DefaultExtensions = []string{".csv", ".xlsx", ".json"}

var (
	ErrUnsupportedExtension = errors.New("unsupported file extension")
	ErrFileTooLarge         = errors.New("file exceeds the upload size limit")
	ErrEmptyFile            = errors.New("file is empty")
)

// FileValidator checks uploads and local input/output paths before any parsing happens.
type FileValidator struct {
	logger     *slog.Logger
	maxBytes   int64
	extensions map[string]bool
}

// NewFileValidator creates a validator. Non-positive maxBytes and empty extensions select the
// defaults.
func NewFileValidator(logger *slog.Logger, maxBytes int64, extensions []string) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUploadBytes
	}
	if len(extensions) == 0 {
		extensions = DefaultExtensions
	}

	allowed := make(map[string]bool, len(extensions))
	for _, ext := range extensions {
		ext = strings.ToLower(strings.TrimSpace(ext))
		if ext != "" && !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		allowed[ext] = true
	}
	return &FileValidator{
		logger:     logger,
		maxBytes:   maxBytes,
		extensions: allowed,
	}
}

// MaxBytes returns the upload size limit.
func (v *FileValidator) MaxBytes() int64 {
	return v.maxBytes
}

// ValidateUpload checks the name and size of an uploaded file.
func (v *FileValidator) ValidateUpload(filename string, size int64) error {
	ext := strings.ToLower(filepath.Ext(filename))
	if !v.extensions[ext] {
		v.logger.Warn("Upload rejected: unsupported extension",
			slog.String("file", filename),
			slog.String("extension", ext))
		return fmt.Errorf("%w: %q", ErrUnsupportedExtension, ext)
	}
	if size == 0 {
		return fmt.Errorf("%w: %s", ErrEmptyFile, filename)
	}
	if size > v.maxBytes {
		v.logger.Warn("Upload rejected: too large",
			slog.String("file", filename),
			slog.Int64("size", size),
			slog.Int64("limit", v.maxBytes))
		return fmt.Errorf("%w: %d bytes, limit %d", ErrFileTooLarge, size, v.maxBytes)
	}
	return nil
}

// ValidateFile checks that path is a readable regular file acceptable as an upload.
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	if err := v.ValidateUpload(filepath.Base(path), info.Size()); err != nil {
		return err
	}

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutputDirectory ensures dir exists or can be created, and is writable.
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	probe := filepath.Join(dir, ".write_test")
	file, err := os.Create(probe)
	if err != nil {
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(probe)
	return nil
}
