package extract

import (
	"bufio"
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

// Archive container format.
type Format string

const (
	FormatTarGzip Format = "tar+gzip"
	FormatTarZstd Format = "tar+zstd"
	FormatTar     Format = "tar"
)

var (
	gzipMagic = []byte{0x1f, 0x8b}
	zstdMagic = []byte{0x28, 0xb5, 0x2f, 0xfd}
	tarMagic  = []byte("ustar")
)

// Offset of the "ustar" magic in a tar header block.
const tarMagicOffset = 257

// Identifies the archive format from the leading bytes of r.
//
// The reader is not consumed; peeked bytes remain available to the caller.
func Detect(r *bufio.Reader) (Format, error) {
	head, err := r.Peek(tarMagicOffset + len(tarMagic))
	if err != nil && err != io.EOF && err != bufio.ErrBufferFull {
		return "", err
	}

	switch {
	case bytes.HasPrefix(head, gzipMagic):
		return FormatTarGzip, nil
	case bytes.HasPrefix(head, zstdMagic):
		return FormatTarZstd, nil
	case len(head) >= tarMagicOffset+len(tarMagic) && bytes.Equal(head[tarMagicOffset:], tarMagic):
		return FormatTar, nil
	}

	return "", ErrUnsupportedFormat
}

// Returns a reader yielding the uncompressed tar stream.
//
// The returned close function releases decoder resources.
func decompress(r *bufio.Reader) (io.Reader, func(), error) {
	format, err := Detect(r)
	if err != nil {
		return nil, nil, err
	}

	switch format {
	case FormatTarGzip:
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return gz, func() { gz.Close() }, nil

	case FormatTarZstd:
		zr, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, fmt.Errorf("zstd: %w", err)
		}
		return zr, zr.Close, nil
	}

	return r, func() {}, nil
}
