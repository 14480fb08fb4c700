// Package compression provides the codecs applied to draft content before it is stored.
package compression

import "fmt"

type Compressor interface {
	// Name is recorded next to stored content so it can be read back after
	// the configured compression changes.
	Name() string
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

const (
	NameZstd = "zstd"
	NameGzip = "gzip"
	NameNone = "none"
)

// ForName returns the compressor registered under name. An empty name selects zstd.
func ForName(name string) (Compressor, error) {
	switch name {
	case NameZstd, "":
		return ZstdCompressor{}, nil
	case NameGzip:
		return GzipCompressor{}, nil
	case NameNone:
		return NoneCompressor{}, nil
	default:
		return nil, fmt.Errorf("unknown compression %q", name)
	}
}

// NoneCompressor stores content as-is.
type NoneCompressor struct{}

func (NoneCompressor) Name() string { return NameNone }

func (NoneCompressor) Compress(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}

func (NoneCompressor) Decompress(data []byte) ([]byte, error) {
	return append([]byte(nil), data...), nil
}
