package source

import (
	"fmt"
	"io"
	"os"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-libs/transfer/errors"
)

// sniffLen is how much of a file content type detection reads.
const sniffLen = 3072

// RangeReader is a source addressable by byte range.
type RangeReader interface {
	// Size returns the total size of the source in bytes.
	Size() int64

	// OpenRange returns a reader over n bytes starting at off.
	// Each call returns an independent reader that must be closed.
	OpenRange(off, n int64) (io.ReadSeekCloser, error)
}

// File is a regular file on a billy filesystem.
type File struct {
	fs   billy.Filesystem
	path string
	size int64
}

// NewFile stats path and returns a File for it. Missing paths, directories and
// other non-regular files fail with errors.ErrPrecondition.
func NewFile(fs billy.Filesystem, path string) (*File, error) {
	info, err := fs.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s does not exist", errors.ErrPrecondition, path)
		}
		return nil, fmt.Errorf("%w: stat %s: %w", errors.ErrPrecondition, path, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%w: %s is a directory", errors.ErrPrecondition, path)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", errors.ErrPrecondition, path)
	}

	return &File{fs: fs, path: path, size: info.Size()}, nil
}

// Path returns the path of the file on its filesystem.
func (f *File) Path() string {
	return f.path
}

// Size implements RangeReader.
func (f *File) Size() int64 {
	return f.size
}

// OpenRange implements RangeReader.
func (f *File) OpenRange(off, n int64) (io.ReadSeekCloser, error) {
	if off < 0 || n < 0 || off+n > f.size {
		return nil, fmt.Errorf("range [%d, %d) outside %s of %d bytes", off, off+n, f.path, f.size)
	}

	handle, err := f.fs.Open(f.path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.path, err)
	}
	return &section{
		SectionReader: io.NewSectionReader(handle, off, n),
		closer:        handle,
	}, nil
}

// DetectContentType sniffs the MIME type of the file from its first bytes.
func (f *File) DetectContentType() (string, error) {
	r, err := f.OpenRange(0, min(f.size, sniffLen))
	if err != nil {
		return "", err
	}
	defer r.Close()

	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", fmt.Errorf("detect content type of %s: %w", f.path, err)
	}
	return mt.String(), nil
}

type section struct {
	*io.SectionReader
	closer io.Closer
}

func (s *section) Close() error {
	return s.closer.Close()
}

var _ RangeReader = (*File)(nil)
