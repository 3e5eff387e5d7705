package filesystem

import (
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/afero"
)

// CopyTree copies the directory tree rooted at srcRoot in src into dstRoot of the active backend.
// src may be any afero filesystem, e.g. a zip archive mounted with zipfs.
func CopyTree(src afero.Fs, srcRoot, dstRoot string) error {
	return afero.Walk(src, srcRoot, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		rel, err := filepath.Rel(srcRoot, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dstRoot, rel)

		if info.IsDir() {
			return API().MkdirAll(target, os.ModePerm)
		}

		return CopyFile(src, path, target)
	})
}

// CopyFile copies a single file from src into the active backend, creating parent directories.
func CopyFile(src afero.Fs, from, to string) error {
	in, err := src.Open(from)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := API().MkdirAll(filepath.Dir(to), os.ModePerm); err != nil {
		return err
	}

	out, err := API().Create(to)
	if err != nil {
		return err
	}

	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return err
	}
	return out.Close()
}

// Move renames from to to, falling back to copy+remove when the rename crosses devices.
func Move(from, to string) error {
	if err := API().MkdirAll(filepath.Dir(to), os.ModePerm); err != nil {
		return err
	}

	if err := API().Rename(from, to); err == nil {
		return nil
	}

	if err := CopyTree(API().Fs, from, to); err != nil {
		_ = API().RemoveAll(to)
		return err
	}
	return API().RemoveAll(from)
}
