package reader

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
)

var (
	// ErrEmptySource is returned for a zero-length input.
	ErrEmptySource = errors.New("File is empty")

	// ErrNotPDF is returned when no %PDF- header is found.
	ErrNotPDF = errors.New("not a PDF file")

	// ErrRead wraps failures of the underlying ReadAt.
	ErrRead = errors.New("read error")

	// ErrMalformed is returned for structural damage that could not be
	// repaired.
	ErrMalformed = errors.New("malformed PDF")
)

// Source is random-access input. Reads never share a file offset, so a
// Source may be read from several goroutines at once.
type Source interface {
	io.ReaderAt
	Size() int64
}

type sizedSource struct {
	io.ReaderAt
	size int64
}

func (s sizedSource) Size() int64 { return s.size }

// NewSource adapts a random-access reader of known size, such as an
// *os.File read with positioned reads.
func NewSource(r io.ReaderAt, size int64) Source {
	return sizedSource{ReaderAt: r, size: size}
}

// BytesSource returns a Source over an in-memory buffer. The buffer must
// not be modified while the document is open.
func BytesSource(data []byte) Source {
	return bytes.NewReader(data)
}

// checkedSource tags read failures with ErrRead.
type checkedSource struct {
	src Source
}

func (c checkedSource) ReadAt(p []byte, off int64) (int, error) {
	n, err := c.src.ReadAt(p, off)
	if err != nil && err != io.EOF {
		return n, fmt.Errorf("%w at offset %d: %w", ErrRead, off, err)
	}
	return n, err
}

func (c checkedSource) Size() int64 { return c.src.Size() }

// Open opens the file at path. The file is closed by Document.Close.
func Open(path string, opts ...Option) (*Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}

	doc, err := NewDocument(NewSource(f, info.Size()), opts...)
	if err != nil {
		f.Close()
		return nil, err
	}
	doc.closer = f
	return doc, nil
}
