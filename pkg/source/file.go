package source

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/mchmarny/menugate/pkg/menu"
)

// File reads a JSON or YAML menu document from disk on every load.
type File struct {
	Path     string
	Observer LoadObserver
}

func (f *File) Load(ctx context.Context) (*menu.Menu, error) {
	m, err := f.load(ctx)
	if f.Observer != nil {
		f.Observer.ObserveLoad("file", err)
	}
	return m, err
}

func (f *File) load(ctx context.Context) (*menu.Menu, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	b, err := os.ReadFile(f.Path)
	if err != nil {
		return nil, fmt.Errorf("read menu file: %w", err)
	}

	m, err := Decode(b, FormatFor(f.Path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", f.Path, err)
	}

	slog.Debug("menu loaded", "path", f.Path, "nodes", menu.Count(m.Items))

	return m, nil
}

// Ready reports whether the file exists.
func (f *File) Ready(context.Context) error {
	if _, err := os.Stat(f.Path); err != nil {
		return fmt.Errorf("menu file: %w", err)
	}
	return nil
}
