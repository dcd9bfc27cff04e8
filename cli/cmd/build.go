package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ardnew/plume/lang"
	"github.com/ardnew/plume/loader"
	"github.com/ardnew/plume/log"
)

// Build compiles templates ahead of time into Go source files.
//
// Each template produces one generated file containing a render function
// named after the template path. The generated code depends only on the
// lang and lang/value packages.
type Build struct {
	Templates []string `arg:"" help:"Template paths to compile (default: all under root)" name:"templates" optional:""`

	Out     string `default:"gen"       help:"Output directory for generated source" type:"path"`
	Package string `default:"templates" help:"Package name for generated source"`

	MixinDir   string `default:"mixins" help:"Directory searched for undeclared mixins"`
	WhileLimit int    `default:"10000"  help:"Maximum iterations per while loop"`
}

// Run executes the build command.
func (b *Build) Run(ctx context.Context) error {
	dir := loaderFrom(ctx)
	if dir == nil {
		return ErrNoLoader
	}

	paths, err := listTemplates(dir, b.Templates, b.MixinDir)
	if err != nil {
		return ErrNoTemplates.Wrap(err)
	}

	if len(paths) == 0 {
		return ErrNoTemplates.With(slog.String("dir", dir.Root()))
	}

	err = os.MkdirAll(b.Out, 0o755) //nolint:gosec
	if err != nil {
		return ErrWriteOutput.Wrap(err).
			With(slog.String("path", b.Out))
	}

	for _, path := range paths {
		err = b.compile(ctx, dir, path)
		if err != nil {
			return err
		}
	}

	log.InfoContext(ctx, "build complete",
		slog.Int("templates", len(paths)),
		slog.String("out", b.Out),
	)

	return nil
}

// compile generates Go source for a single template.
func (b *Build) compile(
	ctx context.Context,
	dir *loader.Dir,
	path string,
) error {
	name := strings.TrimSuffix(path, loader.Ext)

	tmpl, err := lang.CompileFile(dir, path,
		lang.WithMixinDir(b.MixinDir),
		lang.WithWhileLimit(b.WhileLimit),
	)
	if err != nil {
		return ErrCompile.Wrap(err).
			With(slog.String("template", path))
	}

	var buf bytes.Buffer

	err = tmpl.Generate(&buf,
		lang.WithPackage(b.Package),
		lang.WithFunc("Render"+exportName(name)),
		lang.WithTemplateName(name),
	)
	if err != nil {
		return ErrCompile.Wrap(err).
			With(slog.String("template", path))
	}

	outFile := filepath.Join(b.Out, b.fileName(name))

	err = os.WriteFile(outFile, buf.Bytes(), 0o644) //nolint:gosec
	if err != nil {
		return ErrWriteOutput.Wrap(err).
			With(slog.String("path", outFile))
	}

	log.DebugContext(ctx, "generated template",
		slog.String("template", path),
		slog.String("out", outFile),
	)

	return nil
}

// fileName maps a template name to its generated file name, flattening
// path separators: "user/profile" becomes "user_profile.go".
func (b *Build) fileName(name string) string {
	return strings.ReplaceAll(name, "/", "_") + ".go"
}
