package dummy

import (
	"os"
	"runtime"
	"strconv"
)

// StoreOpts configures a DummyPersistence instance. Every field may be
// overridden by an environment variable under envPrefix, generalizing the
// teacher stack's ValuesStoreOpts/NewValuesStoreOpts configuration idiom to
// this provider's needs. Most fields here have no effect on correctness --
// this store holds everything in memory and has no background workers --
// but they are carried for parity with that idiom and because a future,
// less "dummy" implementation would plausibly need exactly these knobs.
type StoreOpts struct {
	// Cores bounds how many goroutines callers are expected to drive
	// concurrently against the provider; purely advisory, since the store
	// itself spawns no workers, but retained for CLI/benchmark parity with
	// the teacher.
	Cores int
	// DefaultIterateMaxBytes is the byte budget iterate() callers should
	// default to when they have no specific preference.
	DefaultIterateMaxBytes int
}

// NewStoreOpts returns a StoreOpts populated from defaults, then
// overridden by any set DUMMYSPI_-prefixed (or envPrefix-prefixed)
// environment variables.
func NewStoreOpts(envPrefix string) *StoreOpts {
	if envPrefix == "" {
		envPrefix = "DUMMYSPI_"
	}
	opts := &StoreOpts{}
	if env := os.Getenv(envPrefix + "CORES"); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			opts.Cores = val
		}
	}
	if opts.Cores <= 0 {
		opts.Cores = runtime.GOMAXPROCS(0)
	}
	if env := os.Getenv(envPrefix + "ITERATE_DEFAULT_MAX_BYTES"); env != "" {
		if val, err := strconv.Atoi(env); err == nil {
			opts.DefaultIterateMaxBytes = val
		}
	}
	if opts.DefaultIterateMaxBytes <= 0 {
		opts.DefaultIterateMaxBytes = 1024 * 1024
	}
	return opts
}
