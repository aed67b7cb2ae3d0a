// Package compression wraps result archives in a streaming codec.
package compression

import (
	"fmt"
	"io"
	"strings"
)

// Algorithm defines compression types
type Algorithm string

const (
	None   Algorithm = "none"
	Snappy Algorithm = "snappy"
)

// Compressor wraps streams with a codec
type Compressor interface {
	// NewWriter returns a writer that compresses into w. Close flushes it but
	// does not close w.
	NewWriter(w io.Writer) io.WriteCloser

	// NewReader returns a reader that decompresses r
	NewReader(r io.Reader) io.Reader

	// Extension is the file suffix used for archives, including the dot
	Extension() string

	// Algorithm returns the compression algorithm type
	Algorithm() Algorithm
}

// ParseAlgorithm maps a configuration value to an Algorithm.
// The empty string selects None.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch Algorithm(strings.ToLower(name)) {
	case "", None:
		return None, nil
	case Snappy:
		return Snappy, nil
	default:
		return "", fmt.Errorf("unsupported compression algorithm: %s", name)
	}
}

// GetCompressor returns a compressor for the given algorithm
func GetCompressor(algo Algorithm) (Compressor, error) {
	switch algo {
	case None:
		return NoneCompressor{}, nil
	case Snappy:
		return NewSnappyCompressor(), nil
	default:
		return nil, fmt.Errorf("unsupported compression algorithm: %s", algo)
	}
}

// NoneCompressor passes data through unchanged
type NoneCompressor struct{}

type nopWriteCloser struct{ io.Writer }

func (nopWriteCloser) Close() error { return nil }

func (NoneCompressor) NewWriter(w io.Writer) io.WriteCloser { return nopWriteCloser{w} }
func (NoneCompressor) NewReader(r io.Reader) io.Reader      { return r }
func (NoneCompressor) Extension() string                    { return "" }
func (NoneCompressor) Algorithm() Algorithm                 { return None }
