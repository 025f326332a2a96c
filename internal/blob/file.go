package blob

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"

	"github.com/gabriel-vasile/mimetype"
)

// File is a local file handle selected for upload.
type File interface {
	Name() string
	Open() (io.ReadCloser, error)
}

// OSFile is a File backed by a path on disk.
type OSFile string

func (f OSFile) Name() string { return filepath.Base(string(f)) }

func (f OSFile) Open() (io.ReadCloser, error) { return os.Open(string(f)) }

// MemFile is a File whose content is already in memory.
type MemFile struct {
	name string
	data []byte
}

func NewMemFile(name string, data []byte) *MemFile {
	return &MemFile{name: name, data: data}
}

func (f *MemFile) Name() string { return f.name }

func (f *MemFile) Open() (io.ReadCloser, error) {
	return io.NopCloser(bytes.NewReader(f.data)), nil
}

type formFile struct {
	fh *multipart.FileHeader
}

// FormFile adapts a multipart upload to File.
func FormFile(fh *multipart.FileHeader) File {
	return formFile{fh: fh}
}

func (f formFile) Name() string { return f.fh.Filename }

func (f formFile) Open() (io.ReadCloser, error) { return f.fh.Open() }

// FromFile reads the whole content of f and wraps it as a blob.
func FromFile(ctx context.Context, f File) (*Bytes, error) {
	if f == nil {
		return nil, fmt.Errorf("%w: no file", ErrReadFile)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrReadFile, f.Name(), err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("%w %q: %w", ErrReadFile, f.Name(), err)
	}
	return &Bytes{data: data}, nil
}

var imageTypes = []string{"image/jpeg", "image/png", "image/webp"}

// MediaType sniffs the media type of data.
func MediaType(data []byte) string {
	return mimetype.Detect(data).String()
}

// ValidateImage accepts JPEG, PNG and WebP content only.
func ValidateImage(data []byte) error {
	if len(data) == 0 {
		return ErrEmptyBlob
	}
	mt := mimetype.Detect(data)
	for _, t := range imageTypes {
		if mt.Is(t) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrUnsupported, mt.String())
}
