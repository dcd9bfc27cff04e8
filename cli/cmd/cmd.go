package cmd

import (
	"context"
	"io/fs"
	"path/filepath"
	"slices"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/ardnew/plume/loader"
)

// contextKey is used to store a [kong.Context] value in [context.Context].
type contextKey struct{}

// WithContext returns a new context.Context containing the given kong.Context.
func WithContext(ctx context.Context, ktx *kong.Context) context.Context {
	return context.WithValue(ctx, contextKey{}, ktx)
}

func kongContextFrom(ctx context.Context) *kong.Context {
	ktx, ok := ctx.Value(contextKey{}).(*kong.Context)
	if !ok || ktx == nil {
		return nil
	}

	return ktx
}

// loaderKey is used to store the template [loader.Dir] in [context.Context].
type loaderKey struct{}

// WithLoader returns a new context.Context containing the template loader
// rooted at the directory selected on the command line.
func WithLoader(ctx context.Context, dir *loader.Dir) context.Context {
	return context.WithValue(ctx, loaderKey{}, dir)
}

// loaderFrom retrieves the template loader stored in ctx by [WithLoader].
// Returns nil if no loader was stored.
func loaderFrom(ctx context.Context) *loader.Dir {
	dir, _ := ctx.Value(loaderKey{}).(*loader.Dir)

	return dir
}

// listTemplates returns the template paths to operate on, relative to the
// loader root.
//
// When args is non-empty, each argument is returned with the template
// extension inferred. Otherwise the root directory is walked for template
// files, skipping the mixins directory: mixin libraries are compiled into
// the templates that call them, not rendered on their own.
func listTemplates(dir *loader.Dir, args []string, mixinDir string) ([]string, error) {
	if len(args) > 0 {
		paths := make([]string, len(args))
		for i, arg := range args {
			path := filepath.ToSlash(arg)
			if filepath.Ext(path) == "" {
				path += loader.Ext
			}

			paths[i] = path
		}

		return paths, nil
	}

	var paths []string

	err := filepath.WalkDir(dir.Root(),
		func(path string, entry fs.DirEntry, err error) error {
			if err != nil {
				return err
			}

			rel, relErr := filepath.Rel(dir.Root(), path)
			if relErr != nil {
				return relErr
			}

			rel = filepath.ToSlash(rel)

			if entry.IsDir() {
				if rel == mixinDir {
					return fs.SkipDir
				}

				return nil
			}

			if filepath.Ext(rel) == loader.Ext {
				paths = append(paths, rel)
			}

			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	slices.Sort(paths)

	return paths, nil
}

// exportName derives an exported Go identifier from a template path.
// Path separators, hyphens, and dots split words, and each word is
// capitalized: "user/profile-card" becomes "UserProfileCard".
func exportName(path string) string {
	path = strings.TrimSuffix(path, loader.Ext)

	var b strings.Builder

	upper := true

	for _, r := range path {
		switch r {
		case '/', '-', '_', '.':
			upper = true
		default:
			if upper {
				b.WriteString(strings.ToUpper(string(r)))
				upper = false
			} else {
				b.WriteRune(r)
			}
		}
	}

	return b.String()
}
