package partition

// Option configures how partitions are turned into an [Assignment].
type Option func(*options)

type options struct {
	terminals    []string
	assumeLevels bool
	levelKeys    []float64
}

// WithTerminals names the terminals. The default labels are "0".."n-1".
func WithTerminals(labels []string) Option {
	return func(o *options) { o.terminals = labels }
}

// WithAssumeLevels declares the partitions ordered from coarsest (first) to
// finest (last). Parents are then only searched in strictly higher levels.
func WithAssumeLevels() Option {
	return func(o *options) { o.assumeLevels = true }
}

// WithLevelKeys assigns an explicit ordering key to each partition and
// implies [WithAssumeLevels]. Lower keys are higher in the hierarchy.
func WithLevelKeys(keys []float64) Option {
	return func(o *options) {
		o.levelKeys = keys
		o.assumeLevels = true
	}
}
