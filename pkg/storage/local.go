package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// LocalStorage stores documents on the local filesystem under
// year/month/day directories.
type LocalStorage struct {
	basePath string
}

// LocalConfig holds local storage settings.
type LocalConfig struct {
	Path string
}

// NewLocalStorage creates a filesystem store rooted at cfg.Path.
func NewLocalStorage(cfg LocalConfig) (*LocalStorage, error) {
	absPath, err := filepath.Abs(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve absolute path: %w", err)
	}
	if err := os.MkdirAll(absPath, 0755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: absPath}, nil
}

func (s *LocalStorage) Save(reader io.Reader, filename string) (FileInfo, error) {
	id := uuid.New().String()
	ext := filepath.Ext(filename)

	now := time.Now()
	datePath := filepath.Join(
		fmt.Sprintf("%04d", now.Year()),
		fmt.Sprintf("%02d", now.Month()),
		fmt.Sprintf("%02d", now.Day()))

	dirPath := filepath.Join(s.basePath, datePath)
	filePath := filepath.Join(dirPath, id+ext)

	if err := os.MkdirAll(dirPath, 0755); err != nil {
		return FileInfo{}, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(filePath)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to create file: %w", err)
	}
	defer file.Close()

	size, err := io.Copy(file, reader)
	if err != nil {
		return FileInfo{}, fmt.Errorf("failed to write file: %w", err)
	}

	return FileInfo{
		ID:       id,
		Name:     filename,
		Size:     size,
		MimeType: mimeTypeFor(filename),
		Path:     filepath.Join(datePath, id+ext),
	}, nil
}

func (s *LocalStorage) Get(id string) (io.ReadCloser, error) {
	filePath, err := s.findPath(id)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

func (s *LocalStorage) Delete(id string) error {
	filePath, err := s.findPath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(filePath); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

func (s *LocalStorage) List() ([]FileInfo, error) {
	var files []FileInfo

	err := filepath.Walk(s.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}

		relPath, err := filepath.Rel(s.basePath, path)
		if err != nil {
			return err
		}

		fileName := filepath.Base(path)
		files = append(files, FileInfo{
			ID:       strings.TrimSuffix(fileName, filepath.Ext(fileName)),
			Name:     fileName,
			Size:     info.Size(),
			MimeType: mimeTypeFor(fileName),
			Path:     relPath,
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	return files, nil
}

func (s *LocalStorage) Exists(id string) (bool, error) {
	_, err := s.findPath(id)
	if err != nil {
		if os.IsNotExist(err) || strings.Contains(err.Error(), "not found") {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// findPath walks the date tree looking for the file with the given id.
func (s *LocalStorage) findPath(id string) (string, error) {
	var filePath string
	var found bool

	err := filepath.Walk(s.basePath, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		fileName := filepath.Base(path)
		if strings.TrimSuffix(fileName, filepath.Ext(fileName)) == id {
			filePath = path
			found = true
			return io.EOF // stop the walk
		}
		return nil
	})
	if err != nil && err != io.EOF {
		return "", fmt.Errorf("error searching for file: %w", err)
	}
	if !found {
		return "", fmt.Errorf("file with id %s not found", id)
	}
	return filePath, nil
}

// mimeTypeFor maps the supported upload extensions to MIME types.
func mimeTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".md", ".markdown":
		return "text/markdown"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
