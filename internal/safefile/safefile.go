// Package safefile opens and writes files only when the path names a regular
// file, never a symlink, directory or device.
package safefile

import (
	"errors"
	"os"
	"path/filepath"
)

// ErrNotRegularFile is returned for symlinks, FIFOs, devices, sockets and
// directories.
var ErrNotRegularFile = errors.New("not a regular file")

// OpenRegular opens path for reading.
//
// The path is checked with Lstat before opening and the descriptor is
// checked again afterwards, which narrows the window in which the path can
// be swapped for a symlink or special file. Go has no portable O_NOFOLLOW,
// so the window is not closed entirely.
//
// On error no file is left open. The caller closes the returned file.
func OpenRegular(path string) (*os.File, os.FileInfo, error) {
	if err := lstatRegular(path); err != nil {
		return nil, nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	info, err := statOpened(f)
	if err != nil {
		return nil, nil, err
	}
	return f, info, nil
}

// WriteRegular replaces the contents of path with data, creating the file
// and its parent directories when missing. An existing path must be a
// regular file.
func WriteRegular(path string, data []byte, perm os.FileMode) error {
	switch err := lstatRegular(path); {
	case err == nil:
	case errors.Is(err, os.ErrNotExist):
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
	default:
		return err
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := statOpened(f); err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// lstatRegular fails unless path itself, not a link target, is regular.
func lstatRegular(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return ErrNotRegularFile
	}
	return nil
}

// statOpened checks the opened descriptor and closes f on failure.
func statOpened(f *os.File) (os.FileInfo, error) {
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if !info.Mode().IsRegular() {
		f.Close()
		return nil, ErrNotRegularFile
	}
	return info, nil
}
