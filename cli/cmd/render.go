package cmd

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"

	"github.com/ardnew/plume/lang"
	"github.com/ardnew/plume/loader"
	"github.com/ardnew/plume/log"
)

// Render compiles a template and renders it to HTML with the interpreter.
type Render struct {
	Template string `arg:"" help:"Template path relative to the root directory" name:"template"`

	Data string `help:"YAML file providing the render data context" short:"d" type:"existingfile"`
	Out  string `help:"Output file ('-' for stdout)"                short:"o" default:"-"`

	MixinDir   string `default:"mixins" help:"Directory searched for undeclared mixins"`
	WhileLimit int    `default:"10000"  help:"Maximum iterations per while loop"`
}

// Run executes the render command.
func (r *Render) Run(ctx context.Context) error {
	dir := loaderFrom(ctx)
	if dir == nil {
		return ErrNoLoader
	}

	path := filepath.ToSlash(r.Template)
	if filepath.Ext(path) == "" {
		path += loader.Ext
	}

	tmpl, err := lang.CompileFile(dir, path,
		lang.WithMixinDir(r.MixinDir),
		lang.WithWhileLimit(r.WhileLimit),
	)
	if err != nil {
		return ErrCompile.Wrap(err).
			With(slog.String("template", path))
	}

	data, err := r.loadData()
	if err != nil {
		return err
	}

	var buf bytes.Buffer

	err = tmpl.Render(&buf, data)
	if err != nil {
		return ErrCompile.Wrap(err).
			With(slog.String("template", path))
	}

	log.DebugContext(ctx, "rendered template",
		slog.String("template", path),
		slog.Int("bytes", buf.Len()),
	)

	if r.Out == "" || r.Out == "-" {
		_, err = buf.WriteTo(os.Stdout)
		if err != nil {
			return ErrWriteOutput.Wrap(err)
		}

		return nil
	}

	err = os.WriteFile(r.Out, buf.Bytes(), 0o644) //nolint:gosec
	if err != nil {
		return ErrWriteOutput.Wrap(err).
			With(slog.String("path", r.Out))
	}

	return nil
}

// loadData reads and decodes the YAML data file, if one was given.
func (r *Render) loadData() (any, error) {
	if r.Data == "" {
		return nil, nil //nolint:nilnil
	}

	buf, err := os.ReadFile(r.Data)
	if err != nil {
		return nil, ErrRenderData.Wrap(err).
			With(slog.String("path", r.Data))
	}

	var data any

	err = yaml.Unmarshal(buf, &data)
	if err != nil {
		return nil, ErrRenderData.Wrap(err).
			With(slog.String("path", r.Data))
	}

	return data, nil
}
