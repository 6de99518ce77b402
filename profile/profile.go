package profile

// Profiler selects what to profile and where to write the result.
type Profiler struct {
	// Mode is one of [Modes]. An empty or unsupported mode disables
	// profiling.
	Mode string
	// Dir is the output directory. Empty selects the working directory.
	Dir   string
	Quiet bool
}

// Start begins profiling. The returned value is always safe to Stop.
func (p Profiler) Start() interface{ Stop() } {
	if p.Mode == "" {
		return ignore{}
	}

	return start(p)
}

type ignore struct{}

func (ignore) Stop() {}
