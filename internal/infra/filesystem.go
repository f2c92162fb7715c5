package infra

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/eliteGoblin/closurebatch/internal/domain"
)

// FileSystemManagerImpl implements domain.FileSystemManager.
type FileSystemManagerImpl struct {
	homeDir string
}

// NewFileSystemManager creates a new filesystem manager.
func NewFileSystemManager() domain.FileSystemManager {
	home, _ := os.UserHomeDir()
	return &FileSystemManagerImpl{homeDir: home}
}

// NewFileSystemManagerWithHome creates a filesystem manager with custom home (for testing).
func NewFileSystemManagerWithHome(home string) domain.FileSystemManager {
	return &FileSystemManagerImpl{homeDir: home}
}

// Exists checks if a path exists.
func (fm *FileSystemManagerImpl) Exists(path string) bool {
	if path == "" {
		return false
	}
	_, err := os.Stat(fm.ExpandHome(path))
	return err == nil
}

// IsDir checks if a path exists and is a directory.
// Symlinks to directories count as directories.
func (fm *FileSystemManagerImpl) IsDir(path string) bool {
	if path == "" {
		return false
	}
	info, err := os.Stat(fm.ExpandHome(path))
	return err == nil && info.IsDir()
}

// ModTime returns the modification time of a path.
func (fm *FileSystemManagerImpl) ModTime(path string) (time.Time, error) {
	info, err := os.Stat(fm.ExpandHome(path))
	if err != nil {
		return time.Time{}, err
	}
	return info.ModTime(), nil
}

// MkdirAll creates a directory and any missing parents.
func (fm *FileSystemManagerImpl) MkdirAll(path string) error {
	return os.MkdirAll(fm.ExpandHome(path), 0755)
}

// Digest returns the hex sha256 of a file's content.
func (fm *FileSystemManagerImpl) Digest(path string) (string, error) {
	f, err := os.Open(fm.ExpandHome(path))
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// ExpandHome expands ~ to the user's home directory.
func (fm *FileSystemManagerImpl) ExpandHome(path string) string {
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(fm.homeDir, path[2:])
	}
	if path == "~" {
		return fm.homeDir
	}
	return path
}

// Ensure FileSystemManagerImpl implements domain.FileSystemManager.
var _ domain.FileSystemManager = (*FileSystemManagerImpl)(nil)
