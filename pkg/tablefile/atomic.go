package tablefile

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
)

// writeAtomic copies the current file to a temporary file in the same
// directory, applies u to the copy and renames it over the original.
func (s *Store) writeAtomic(u *update) (err error) {
	dir, base := filepath.Split(s.path)
	if dir == "" {
		dir = "."
	}

	tmp, err := os.CreateTemp(dir, base+".tmp-*")
	if err != nil {
		return ioError("create", s.path, err)
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmpPath)
		}
	}()

	mode := fs.FileMode(0644)
	if u.info.Count > 0 {
		src, err := os.Open(s.path)
		if err != nil {
			return ioError("open", s.path, err)
		}
		fi, statErr := src.Stat()
		if statErr == nil {
			mode = fi.Mode().Perm()
		}
		_, copyErr := io.Copy(tmp, src)
		src.Close()
		if copyErr != nil {
			return ioError("copy", tmpPath, copyErr)
		}
	}

	if err := u.apply(tmp, tmpPath); err != nil {
		return err
	}
	if err := tmp.Sync(); err != nil {
		return ioError("sync", tmpPath, err)
	}
	if err := tmp.Chmod(mode); err != nil && !errors.Is(err, errors.ErrUnsupported) {
		return ioError("chmod", tmpPath, err)
	}
	if err := tmp.Close(); err != nil {
		return ioError("close", tmpPath, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		return ioError("rename", s.path, err)
	}
	return nil
}
