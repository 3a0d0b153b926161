package archive

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/relabs-tech/gestion/core/logger"
)

// LocalFilesystem stores documents as files below a base folder
type LocalFilesystem struct {
	baseFolder string
}

// NewLocalFilesystem returns a new LocalFilesystem. The base folder is created if needed.
func NewLocalFilesystem(baseFolder string) (*LocalFilesystem, error) {
	if len(baseFolder) == 0 {
		baseFolder = "archive"
	}
	if err := os.MkdirAll(baseFolder, 0700); err != nil {
		return nil, err
	}
	logger.Default().Debugln("archive on local filesystem enabled:", baseFolder)
	return &LocalFilesystem{baseFolder: baseFolder}, nil
}

func (f *LocalFilesystem) filePath(key string) string {
	return filepath.Join(f.baseFolder, filepath.FromSlash(key))
}

// Put writes data to key, replacing any previous content
func (f *LocalFilesystem) Put(ctx context.Context, key string, data []byte) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	filePath := f.filePath(key)
	if err := os.MkdirAll(filepath.Dir(filePath), 0700); err != nil {
		logger.FromContext(ctx).WithError(err).Errorf("archive: cannot create folder for key '%s'", key)
		return err
	}
	return os.WriteFile(filePath, data, 0600)
}

// Get reads the data stored under key
func (f *LocalFilesystem) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ValidateKey(key); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(f.filePath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrNotFound
	}
	return data, err
}

// Delete deletes the key file. Deleting a missing key is not an error.
func (f *LocalFilesystem) Delete(ctx context.Context, key string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	err := os.Remove(f.filePath(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// List returns all keys starting with prefix
func (f *LocalFilesystem) List(ctx context.Context, prefix string) ([]string, error) {
	if strings.Contains(prefix, "..") {
		return nil, ValidateKey(prefix)
	}
	keys := []string{}
	err := filepath.WalkDir(f.baseFolder, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(f.baseFolder, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}
