package lang

// DefaultWhileLimit caps while-loop iterations per loop entry. Hitting
// the cap stops the loop without error; the runtime counts how often
// that happened so callers can observe truncation.
const DefaultWhileLimit = 10_000

// DefaultMixinDir is the conventional directory searched for
// one-file-per-mixin fallback definitions.
const DefaultMixinDir = "mixins"

// Option applies a configuration option to config.
type Option func(config) config

// config collects the tunables shared by the resolver, the runtime
// interpreter, and the template cache.
type config struct {
	loader     Loader
	mixinDir   string
	whileLimit int
	cache      bool

	// Code generator output naming.
	genPackage string
	genFunc    string
	genName    string
}

func defaultConfig() config {
	return config{
		mixinDir:   DefaultMixinDir,
		whileLimit: DefaultWhileLimit,
		cache:      true,
		genPackage: "templates",
		genFunc:    "Render",
		genName:    "template",
	}
}

// apply applies multiple options to a config.
func apply(cfg config, opts ...Option) config {
	for _, opt := range opts {
		cfg = opt(cfg)
	}

	return cfg
}

// WithLoader sets the file-load collaborator used for extends, include,
// and the mixins-directory fallback.
func WithLoader(loader Loader) Option {
	return func(cfg config) config {
		cfg.loader = loader

		return cfg
	}
}

// WithMixinDir overrides the fallback mixin directory name.
func WithMixinDir(dir string) Option {
	return func(cfg config) config {
		if dir != "" {
			cfg.mixinDir = dir
		}

		return cfg
	}
}

// WithWhileLimit overrides the while-loop iteration cap. Values less
// than one restore the default.
func WithWhileLimit(limit int) Option {
	return func(cfg config) config {
		if limit < 1 {
			limit = DefaultWhileLimit
		}

		cfg.whileLimit = limit

		return cfg
	}
}

// WithPackage sets the package clause of generated renderer files.
func WithPackage(name string) Option {
	return func(cfg config) config {
		if name != "" {
			cfg.genPackage = name
		}

		return cfg
	}
}

// WithFunc sets the name of the generated renderer function.
func WithFunc(name string) Option {
	return func(cfg config) config {
		if name != "" {
			cfg.genFunc = name
		}

		return cfg
	}
}

// WithTemplateName sets the template name mentioned in generated
// documentation comments.
func WithTemplateName(name string) Option {
	return func(cfg config) config {
		if name != "" {
			cfg.genName = name
		}

		return cfg
	}
}

// WithCache enables or disables memoization of compiled templates.
func WithCache(enabled bool) Option {
	return func(cfg config) config {
		cfg.cache = enabled

		return cfg
	}
}
