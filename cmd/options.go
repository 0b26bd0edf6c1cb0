package cmd

// Options holds the shared command-line options for the adopters CLI.
type Options struct {
	Marker    string // marker filename override
	HomeRepo  string // "owner/name" home repository override
	Label     string // submission label override
	Registry  string // registry file path override
	Verbosity int
	DryRun    bool
}

// Option is a functional option for configuring Options.
type Option func(*Options)

// NewOptions creates a new Options and applies any provided options.
func NewOptions(opts ...Option) *Options {
	o := &Options{}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// WithMarker overrides the marker filename.
func WithMarker(marker string) Option {
	return func(o *Options) {
		o.Marker = marker
	}
}

// WithHomeRepo overrides the home repository.
func WithHomeRepo(repo string) Option {
	return func(o *Options) {
		o.HomeRepo = repo
	}
}

// WithRegistry overrides the registry file path.
func WithRegistry(path string) Option {
	return func(o *Options) {
		o.Registry = path
	}
}

// WithVerbosity sets the verbosity level.
func WithVerbosity(v int) Option {
	return func(o *Options) {
		o.Verbosity = v
	}
}

// WithDryRun enables dry-run mode.
func WithDryRun(dryRun bool) Option {
	return func(o *Options) {
		o.DryRun = dryRun
	}
}
