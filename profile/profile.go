package profile

// Profiler configures and starts the profiler.
type Profiler struct {
	Mode  string
	Path  string
	Quiet bool
}

// Option applies a configuration option to a [Profiler].
type Option func(Profiler) Profiler

// Make returns a Profiler with opts applied in order.
func Make(opts ...Option) Profiler {
	var p Profiler

	for _, opt := range opts {
		p = opt(p)
	}

	return p
}

// Stopper stops a running profiler and flushes its output.
type Stopper interface{ Stop() }

// Start initializes the profiler and returns a handle for stopping it.
//
// If build tag pprof or p.Mode are unset, or the mode is unknown, Start
// returns a no-op implementation. Both Start and Stop are always safely
// callable.
func (p Profiler) Start() Stopper {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p.Mode, p.Path, p.Quiet)
}

// WithMode returns a functional option for setting a profiler's mode.
func WithMode(mode string) Option {
	return func(p Profiler) Profiler {
		p.Mode = mode

		return p
	}
}

// WithPath returns a functional option for setting a profiler's output path.
func WithPath(path string) Option {
	return func(p Profiler) Profiler {
		p.Path = path

		return p
	}
}

// WithQuiet returns a functional option for setting a profiler's quiet flag.
func WithQuiet(quiet bool) Option {
	return func(p Profiler) Profiler {
		p.Quiet = quiet

		return p
	}
}

type ignore struct{}

func (ignore) Stop() {}
