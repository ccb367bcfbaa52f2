package collector

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
)

// Source opens a CSV stream of trades.
type Source interface {
	Open(ctx context.Context) (io.ReadCloser, error)
	Name() string
}

// FileSource reads trades from a local file.
type FileSource struct {
	Path string
}

func (s *FileSource) Name() string { return s.Path }

func (s *FileSource) Open(_ context.Context) (io.ReadCloser, error) {
	f, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	return f, nil
}

// StringSource serves fixed CSV text, for development and testing.
type StringSource struct {
	Label string
	Data  string
}

func (s *StringSource) Name() string {
	if s.Label == "" {
		return "inline"
	}
	return s.Label
}

func (s *StringSource) Open(_ context.Context) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader(s.Data)), nil
}

// NewSource picks an HTTP source for http(s) URLs and a file source otherwise.
func NewSource(location, proxyURL string) Source {
	if strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://") {
		return NewHTTPSource(location, proxyURL)
	}
	return &FileSource{Path: location}
}
