// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

package config

import (
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
)

// FileSystem is the set of file operations needed to
// read and persist config files.
type FileSystem interface {
	fs.FS

	MkdirAll(path string, perm fs.FileMode) error
	WriteFile(name string, data []byte, perm fs.FileMode) error
}

// OS is a FileSystem backed by the host operating system.
// Unlike os.DirFS it accepts absolute and relative paths.
type OS struct{}

// Open implements the fs.FS interface.
func (OS) Open(name string) (fs.File, error) {
	return os.Open(name)
}

// MkdirAll implements the FileSystem interface.
func (OS) MkdirAll(path string, perm fs.FileMode) error {
	return os.MkdirAll(path, perm)
}

// WriteFile implements the FileSystem interface.
func (OS) WriteFile(name string, data []byte, perm fs.FileMode) error {
	return os.WriteFile(name, data, perm)
}

// FileReader is an io.Reader that opens its file on first Read.
type FileReader struct {
	path string

	openOnce sync.Once
	fs       fs.FS
	file     io.ReadCloser
	openErr  error
}

// NewFileReader configures a FileReader.
func NewFileReader(fs fs.FS, path string) *FileReader {
	return &FileReader{
		path: path,
		fs:   fs,
	}
}

// Read implements the io.Reader interface.
func (r *FileReader) Read(b []byte) (int, error) {
	r.openOnce.Do(func() {
		r.file, r.openErr = r.fs.Open(r.path)
	})
	if r.openErr != nil {
		return 0, r.openErr
	}
	return r.file.Read(b)
}

// Close implements the io.Closer interface.
func (r *FileReader) Close() error {
	if r.file == nil {
		return nil
	}

	err := r.file.Close()
	r.file = nil
	return err
}

// Read loads the Snapshot stored at path. When opts are given the
// file is rendered as a text/template before being decoded.
func Read(fsys fs.FS, path string, codec Codec, opts ...RenderTextTemplateOption) (Snapshot, error) {
	var r io.Reader = NewFileReader(fsys, path)
	if len(opts) > 0 {
		r = RenderTextTemplate(r, opts...)
	}
	return codec.Load(r)
}

// Write dumps s with codec and overwrites the file at path,
// creating its parent directories first.
func Write(fsys FileSystem, path string, codec Codec, s Snapshot) error {
	err := fsys.MkdirAll(filepath.Dir(path), 0o755)
	if err != nil {
		return err
	}

	b, err := codec.Dump(s)
	if err != nil {
		return err
	}
	return fsys.WriteFile(path, b, 0o644)
}
