package manifest

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/jamesainslie/ldc/pkg/ldc/cipher"
	"github.com/jamesainslie/ldc/pkg/ldc/logging"
	"github.com/jamesainslie/ldc/pkg/ldc/types"
)

var logger = logging.Get("manifest")

// Options controls how a manifest is written.
type Options struct {
	// Password masks the manifest when non-empty.
	Password string

	// Dir is the output directory. Empty means the working directory.
	Dir string
}

// Encode writes list as a manifest file and returns its path.
// The name is derived from the unmasked payload. Exactly one file is
// created, via a temporary file renamed into place.
func Encode(list types.ChecksumList, opts Options) (string, error) {
	payload, err := Marshal(list)
	if err != nil {
		return "", err
	}

	if err := checkDir(opts.Dir); err != nil {
		return "", err
	}

	path := filepath.Join(opts.Dir, Name(payload))

	data := payload
	if opts.Password != "" {
		data = cipher.Transform(payload, opts.Password)
	}

	if err := writeAtomic(path, data); err != nil {
		return "", fmt.Errorf("failed to write manifest: %w", err)
	}

	logger.Info("manifest saved", "path", path, "entries", len(list), "masked", opts.Password != "")
	return path, nil
}

// Decode reads the manifest at path, unmasking it when password is
// non-empty. A wrong password surfaces as ErrCorrupt.
func Decode(path, password string) (types.ChecksumList, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("manifest %s: %w", path, types.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	if password != "" {
		data = cipher.Transform(data, password)
	}

	list, err := Unmarshal(data)
	if err != nil {
		logger.Debug("manifest rejected", "path", path, "error", err)
		return nil, err
	}
	return list, nil
}

// PathFor returns the path Encode would write list to under dir.
func PathFor(list types.ChecksumList, dir string) (string, error) {
	payload, err := Marshal(list)
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, Name(payload)), nil
}

// Exists reports whether a manifest for list's exact content is already
// present under dir, returning its path.
func Exists(list types.ChecksumList, dir string) (string, bool, error) {
	path, err := PathFor(list, dir)
	if err != nil {
		return "", false, err
	}

	_, err = os.Stat(path)
	switch {
	case err == nil:
		return path, true, nil
	case errors.Is(err, fs.ErrNotExist):
		return path, false, nil
	default:
		return path, false, err
	}
}

func checkDir(dir string) error {
	if dir == "" {
		return nil
	}
	info, err := os.Stat(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("output directory %s: %w", dir, types.ErrNotFound)
		}
		return fmt.Errorf("cannot access output directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("output path %s is not a directory: %w", dir, types.ErrNotFound)
	}
	return nil
}

// writeAtomic writes data next to path and renames it into place.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".ldc-*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, 0o644); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to set permissions: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}
	return nil
}
