package datablobstorage

import (
	"context"
	"io"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

type Compression string

const (
	CompressionNone Compression = ""
	CompressionGzip Compression = ".gz"
	CompressionZstd Compression = ".zst"
	CompressionLZ4  Compression = ".lz4"
)

var compressions = []Compression{CompressionGzip, CompressionZstd, CompressionLZ4}

// SplitCompression returns key without its compression suffix, along with
// the compression the suffix names.
func SplitCompression(key string) (string, Compression) {
	for _, c := range compressions {
		if strings.HasSuffix(key, string(c)) {
			return strings.TrimSuffix(key, string(c)), c
		}
	}
	return key, CompressionNone
}

type multiCloser struct {
	io.Reader
	closers []func() error
}

func (m *multiCloser) Close() error {
	var err error
	for _, c := range m.closers {
		err = errors.CombineErrors(err, c())
	}
	return err
}

// Decompress wraps rc so that reads return the decompressed contents.
// Closing the result closes rc.
func Decompress(rc io.ReadCloser, c Compression) (io.ReadCloser, error) {
	switch c {
	case CompressionNone:
		return rc, nil
	case CompressionGzip:
		gz, err := gzip.NewReader(rc)
		if err != nil {
			_ = rc.Close()
			return nil, errors.Wrap(err, "error opening gzip stream")
		}
		return &multiCloser{Reader: gz, closers: []func() error{gz.Close, rc.Close}}, nil
	case CompressionZstd:
		zr, err := zstd.NewReader(rc)
		if err != nil {
			_ = rc.Close()
			return nil, errors.Wrap(err, "error opening zstd stream")
		}
		return &multiCloser{
			Reader: zr,
			closers: []func() error{
				func() error { zr.Close(); return nil },
				rc.Close,
			},
		}, nil
	case CompressionLZ4:
		return &multiCloser{Reader: lz4.NewReader(rc), closers: []func() error{rc.Close}}, nil
	}
	_ = rc.Close()
	return nil, errors.Newf("unknown compression %q", c)
}

// Open returns the decompressed contents of a resource.
func Open(ctx context.Context, r Resource) (io.ReadCloser, error) {
	rc, err := r.Reader(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "error opening %s", r.URL())
	}
	_, c := SplitCompression(r.Key())
	return Decompress(rc, c)
}
