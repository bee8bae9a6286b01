package datablobstorage

import (
	"bytes"
	"io"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/stretchr/testify/require"
)

func TestSplitCompression(t *testing.T) {
	for _, tc := range []struct {
		key         string
		expectedKey string
		expected    Compression
	}{
		{key: "a.csv", expectedKey: "a.csv", expected: CompressionNone},
		{key: "a.csv.gz", expectedKey: "a.csv", expected: CompressionGzip},
		{key: "a.csv.zst", expectedKey: "a.csv", expected: CompressionZstd},
		{key: "a.csv.lz4", expectedKey: "a.csv", expected: CompressionLZ4},
		{key: "a.gz.csv", expectedKey: "a.gz.csv", expected: CompressionNone},
	} {
		t.Run(tc.key, func(t *testing.T) {
			key, c := SplitCompression(tc.key)
			require.Equal(t, tc.expectedKey, key)
			require.Equal(t, tc.expected, c)
		})
	}
}

func TestDecompress(t *testing.T) {
	const contents = "id,v\n1,a\n2,b\n"
	compress := map[Compression]func(w io.Writer) io.WriteCloser{
		CompressionGzip: func(w io.Writer) io.WriteCloser {
			return gzip.NewWriter(w)
		},
		CompressionZstd: func(w io.Writer) io.WriteCloser {
			zw, err := zstd.NewWriter(w)
			require.NoError(t, err)
			return zw
		},
		CompressionLZ4: func(w io.Writer) io.WriteCloser {
			return lz4.NewWriter(w)
		},
	}
	for _, c := range compressions {
		t.Run(string(c), func(t *testing.T) {
			var buf bytes.Buffer
			w := compress[c](&buf)
			_, err := w.Write([]byte(contents))
			require.NoError(t, err)
			require.NoError(t, w.Close())

			rc, err := Decompress(io.NopCloser(&buf), c)
			require.NoError(t, err)
			b, err := io.ReadAll(rc)
			require.NoError(t, err)
			require.NoError(t, rc.Close())
			require.Equal(t, contents, string(b))
		})
	}

	_, err := Decompress(io.NopCloser(bytes.NewBufferString("not gzip")), CompressionGzip)
	require.Error(t, err)
}
