package render

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Sink receives the files of a rendered site.
type Sink interface {
	WriteFile(ctx context.Context, name string, data []byte, contentType string) error
}

// DirSink writes files into a local directory.
type DirSink struct {
	Dir string
}

// NewDirSink creates a DirSink rooted at dir. The directory is created on first write.
func NewDirSink(dir string) *DirSink {
	return &DirSink{Dir: dir}
}

// WriteFile replaces name through a rename so readers never see a partial file.
func (s *DirSink) WriteFile(ctx context.Context, name string, data []byte, contentType string) error {
	path := filepath.Join(s.Dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("DirSink.WriteFile: create directory: %w", err)
	}

	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("DirSink.WriteFile: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("DirSink.WriteFile: rename: %w", err)
	}
	return nil
}

// MultiSink writes every file to each sink in order.
type MultiSink []Sink

func (m MultiSink) WriteFile(ctx context.Context, name string, data []byte, contentType string) error {
	for _, s := range m {
		if err := s.WriteFile(ctx, name, data, contentType); err != nil {
			return err
		}
	}
	return nil
}
