package service

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// UploadFile describes one uploaded source file kept on disk.
type UploadFile struct {
	Name     string `json:"name" doc:"File name" example:"fields.geojson"`
	Size     string `json:"size" doc:"Human-readable file size" example:"1.2 MB"`
	FileType string `json:"fileType" doc:"File type" example:"GeoJSON"`
}

// extToType maps accepted upload extensions to display types.
var extToType = map[string]string{
	".tif":     "GeoTIFF",
	".tiff":    "GeoTIFF",
	".gpkg":    "GeoPackage",
	".geojson": "GeoJSON",
	".json":    "GeoJSON",
}

// UploadService keeps the original uploaded files under the data dir
// so ingested layers can be re-derived later.
type UploadService struct {
	uploadsDir string
}

// NewUploadService creates an upload service rooted at dataDir.
func NewUploadService(dataDir string) *UploadService {
	return &UploadService{uploadsDir: filepath.Join(dataDir, "uploads")}
}

// Accepted reports whether the filename has a recognized extension.
func Accepted(filename string) bool {
	_, ok := extToType[strings.ToLower(filepath.Ext(filename))]
	return ok
}

// Save stores an uploaded file. The filename must be a bare name with
// an accepted extension.
func (s *UploadService) Save(filename string, r io.Reader) (string, error) {
	if err := validateFilename(filename); err != nil {
		return "", err
	}
	if err := os.MkdirAll(s.uploadsDir, 0755); err != nil {
		return "", err
	}

	destPath := filepath.Join(s.uploadsDir, filename)
	dest, err := os.Create(destPath)
	if err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	defer dest.Close()

	if _, err := io.Copy(dest, r); err != nil {
		return "", fmt.Errorf("failed to write file: %w", err)
	}
	return destPath, nil
}

// List returns the uploaded files with recognized extensions.
func (s *UploadService) List() ([]UploadFile, error) {
	entries, err := os.ReadDir(s.uploadsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return []UploadFile{}, nil
		}
		return nil, err
	}

	var files []UploadFile
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		fileType, ok := extToType[strings.ToLower(filepath.Ext(entry.Name()))]
		if !ok {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		files = append(files, UploadFile{
			Name:     entry.Name(),
			Size:     formatSize(info.Size()),
			FileType: fileType,
		})
	}
	return files, nil
}

// Delete removes an uploaded file.
func (s *UploadService) Delete(filename string) error {
	if err := validateFilename(filename); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(s.uploadsDir, filename)); err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("file not found: %s", filename)
		}
		return err
	}
	return nil
}

// UploadsDir returns the path to the uploads directory.
func (s *UploadService) UploadsDir() string {
	return s.uploadsDir
}

func validateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename required")
	}
	if strings.Contains(filename, "/") || strings.Contains(filename, "\\") || strings.Contains(filename, "..") {
		return fmt.Errorf("invalid filename")
	}
	if !Accepted(filename) {
		return fmt.Errorf("unsupported file type: %s", filepath.Ext(filename))
	}
	return nil
}

// formatSize returns a human-readable file size.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}
	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(bytes)/float64(div), "KMGTPE"[exp])
}
