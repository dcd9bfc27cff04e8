package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/ardnew/plume/lang"
	"github.com/ardnew/plume/log"
)

// Check parses and resolves templates without rendering them.
//
// Parse errors are reported with a source snippet pointing at the
// offending line. The command fails if any template fails to compile.
type Check struct {
	Templates []string `arg:"" help:"Template paths to check (default: all under root)" name:"templates" optional:""`

	MixinDir string `default:"mixins" help:"Directory searched for undeclared mixins"`
}

// Run executes the check command.
func (c *Check) Run(ctx context.Context) error {
	dir := loaderFrom(ctx)
	if dir == nil {
		return ErrNoLoader
	}

	paths, err := listTemplates(dir, c.Templates, c.MixinDir)
	if err != nil {
		return ErrNoTemplates.Wrap(err)
	}

	if len(paths) == 0 {
		return ErrNoTemplates.With(slog.String("dir", dir.Root()))
	}

	failed := 0

	for _, path := range paths {
		_, err := lang.CompileFile(dir, path, lang.WithMixinDir(c.MixinDir))
		if err == nil {
			fmt.Fprintf(os.Stdout, "ok\t%s\n", path)

			continue
		}

		failed++

		log.ErrorContext(ctx, "check failed",
			slog.String("template", path),
			slog.Any("error", err),
		)

		// A parse error carries a caret-marked source excerpt worth
		// showing verbatim, outside of any log formatting.
		var parseErr *lang.ParseError
		if errors.As(err, &parseErr) {
			fmt.Fprintln(os.Stderr, parseErr.Error())
		}
	}

	if failed > 0 {
		return ErrCheckFailed.With(
			slog.Int("failed", failed),
			slog.Int("checked", len(paths)),
		)
	}

	log.InfoContext(ctx, "check complete",
		slog.Int("templates", len(paths)),
	)

	return nil
}
