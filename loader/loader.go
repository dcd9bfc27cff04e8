// Package loader provides file-load collaborators for template
// resolution: a directory loader confined to one base directory, and an
// in-memory loader for tests and embedded template sets.
//
// Both loaders use slash-separated canonical paths relative to their
// root as the resolved identity, so resolution behaves identically
// across operating systems and backing stores.
package loader

import (
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ardnew/plume/lang"
)

// Ext is appended to requested paths that carry no extension.
const Ext = ".plume"

// normalize maps a requested path to its canonical form: relative paths
// resolve against the requesting template's directory, paths starting
// with a slash resolve against the root, and extensionless paths gain
// the template extension. Paths that escape the root are rejected.
func normalize(requested, from string) (string, error) {
	p := requested
	if path.Ext(p) == "" {
		p += Ext
	}

	switch {
	case strings.HasPrefix(p, "/"):
		p = path.Clean(strings.TrimPrefix(p, "/"))

	case from != "":
		p = path.Clean(path.Join(path.Dir(from), p))

	default:
		p = path.Clean(p)
	}

	if p == ".." || strings.HasPrefix(p, "../") {
		return "", lang.NewError(fmt.Sprintf("path %q escapes the template root", requested)).
			Wrap(lang.ErrLoad).
			With(slog.String("path", requested), slog.String("from", from))
	}

	return p, nil
}

// Dir serves templates from one base directory. Resolution is confined
// to the base through [os.Root]: requested paths may step between
// subdirectories but never above the base itself, and symlinks cannot
// lead outside it.
type Dir struct {
	base string
	root *os.Root
}

// NewDir returns a loader rooted at base.
func NewDir(base string) (*Dir, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, lang.NewError(fmt.Sprintf("template root %q", base)).Wrap(err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, lang.NewError(fmt.Sprintf("template root %q", base)).
			Wrap(err).
			With(slog.String("root", abs))
	}

	if !info.IsDir() {
		return nil, lang.NewError(fmt.Sprintf("template root %q is not a directory", base)).
			Wrap(lang.ErrLoad).
			With(slog.String("root", abs))
	}

	root, err := os.OpenRoot(abs)
	if err != nil {
		return nil, lang.NewError(fmt.Sprintf("template root %q", base)).
			Wrap(err).
			With(slog.String("root", abs))
	}

	return &Dir{base: abs, root: root}, nil
}

// Close releases the directory handle backing the loader.
func (d *Dir) Close() error { return d.root.Close() }

// Root returns the absolute base directory.
func (d *Dir) Root() string { return d.base }

// Resolve maps a requested path to its canonical form and verifies the
// file exists.
func (d *Dir) Resolve(requested, from string) (string, error) {
	p, err := normalize(requested, from)
	if err != nil {
		return "", err
	}

	if _, err := d.root.Stat(filepath.FromSlash(p)); err != nil {
		return "", lang.NewError(fmt.Sprintf("template %q", requested)).
			Wrap(lang.ErrNotFound).
			With(slog.String("path", p), slog.String("root", d.base))
	}

	return p, nil
}

// Read returns the contents of a previously resolved path.
func (d *Dir) Read(resolved string) ([]byte, error) {
	src, err := d.root.ReadFile(filepath.FromSlash(resolved))
	if err != nil {
		return nil, lang.NewError(fmt.Sprintf("read template %q", resolved)).
			Wrap(err).
			With(slog.String("path", resolved), slog.String("root", d.base))
	}

	return src, nil
}

// Map serves templates from memory, keyed by canonical slash path. It
// applies the same resolution rules as [Dir].
type Map map[string]string

// Resolve maps a requested path to its canonical form and verifies an
// entry exists.
func (m Map) Resolve(requested, from string) (string, error) {
	p, err := normalize(requested, from)
	if err != nil {
		return "", err
	}

	if _, ok := m[p]; !ok {
		return "", lang.NewError(fmt.Sprintf("template %q", requested)).
			Wrap(lang.ErrNotFound).
			With(slog.String("path", p))
	}

	return p, nil
}

// Read returns the contents of a previously resolved path.
func (m Map) Read(resolved string) ([]byte, error) {
	src, ok := m[resolved]
	if !ok {
		return nil, lang.NewError(fmt.Sprintf("template %q", resolved)).
			Wrap(lang.ErrNotFound).
			With(slog.String("path", resolved))
	}

	return []byte(src), nil
}
