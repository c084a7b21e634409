package validation

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// zipMagic opens every xlsx (OOXML) container
var zipMagic = []byte("PK\x03\x04")

// ExcelExtension is the only workbook format the loader reads
const ExcelExtension = ".xlsx"

// FileValidator provides common file validation functions for the server
// and the command line tools
type FileValidator struct {
	logger   *slog.Logger
	maxBytes int64
}

// NewFileValidator creates a new file validator. maxBytes caps uploads;
// zero disables the cap.
func NewFileValidator(logger *slog.Logger, maxBytes int64) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger:   logger,
		maxBytes: maxBytes,
	}
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
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

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateExcelFile checks that path is an existing xlsx workbook that is
// not an Office lock file
func (v *FileValidator) ValidateExcelFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}
	return v.checkExcelName(path)
}

// ValidateUpload checks an uploaded workbook before it is parsed: name,
// declared size and the zip signature of its first bytes. The returned
// reader replays the sniffed bytes.
func (v *FileValidator) ValidateUpload(filename string, size int64, r io.Reader) (io.Reader, error) {
	if err := v.checkExcelName(filename); err != nil {
		return nil, err
	}
	if size == 0 {
		return nil, fmt.Errorf("file %s is empty", filename)
	}
	if v.maxBytes > 0 && size > v.maxBytes {
		v.logger.Warn("Upload too large",
			slog.String("file", filename),
			slog.Int64("size", size),
			slog.Int64("max_size", v.maxBytes))
		return nil, fmt.Errorf("file %s is %d bytes, limit is %d", filename, size, v.maxBytes)
	}

	head := make([]byte, len(zipMagic))
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, fmt.Errorf("failed to read upload %s: %w", filename, err)
	}
	if !bytes.Equal(head[:n], zipMagic) {
		v.logger.Warn("Upload is not an xlsx container",
			slog.String("file", filename))
		return nil, fmt.Errorf("file %s is not an xlsx workbook", filename)
	}
	return io.MultiReader(bytes.NewReader(head[:n]), r), nil
}

// ValidateOutputDirectory ensures output directory exists or can be created
func (v *FileValidator) ValidateOutputDirectory(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to create output directory %s: %w", dir, err)
	}

	testFile := filepath.Join(dir, ".write_test")
	file, err := os.Create(testFile)
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("output directory %s is not writable: %w", dir, err)
	}
	file.Close()
	os.Remove(testFile)

	v.logger.Debug("Output directory validated",
		slog.String("directory", dir))
	return nil
}

// ValidateExportPath checks that an export target has a supported
// extension and that its directory is writable
func (v *FileValidator) ValidateExportPath(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ExcelExtension && ext != ".csv" {
		return fmt.Errorf("export file %s must end in .xlsx or .csv", path)
	}
	return v.ValidateOutputDirectory(filepath.Dir(path))
}

func (v *FileValidator) checkExcelName(path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ExcelExtension {
		v.logger.Error("File is not an Excel file",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("file %s is not an Excel file (extension: %s)", path, ext)
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Rejecting temporary Excel file",
			slog.String("file", path))
		return fmt.Errorf("file %s is a temporary Excel file", path)
	}
	return nil
}
