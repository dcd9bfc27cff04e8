// Package cli contains the command line interface for plume.
//
// # Usage
//
// The CLI operates on a template root directory selected with -C and
// provides three subcommands:
//
//	plume render index          # render a template to HTML
//	plume build                 # compile templates to Go source
//	plume check                 # parse and resolve without rendering
//
// Template paths are resolved relative to the root directory, and the
// .plume extension may be omitted.
//
// # Configuration
//
// Flag defaults may be stored in a config file under the user config
// directory, either as JSON (config.json) or YAML (config.yaml). Command
// line flags override config file values.
//
// # Logging Options
//
//   - --log-level: Set minimum log level (trace, debug, info, warn, error)
//   - --log-format: Set log output format (json, text)
//   - --log-time-layout: Set timestamp format (RFC3339, StampMilli, etc.)
//   - --log-caller: Include caller information in log output
//   - --log-pretty: Enable colorized pretty printing
//
// # Profiling Options
//
// Profiling is only available when built with the pprof build tag
// (go build -tags pprof):
//
//   - --pprof-mode: Enable profiling (allocs, block, clock, cpu, goroutine,
//     heap, mem, mutex, thread, trace)
//   - --pprof-out: Set profile output directory (default:
//     ~/.cache/plume/pprof)
//
// # Examples
//
//	# Render with data from a YAML file
//	plume -C site render index --data site.yaml
//
//	# Compile every template under the root to a Go package
//	plume -C site build --out gen --package templates
//
//	# Debug logging with CPU profiling
//	plume --log-level=debug --pprof-mode=cpu check
package cli
