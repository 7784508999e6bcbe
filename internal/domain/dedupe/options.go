package dedupe

// Option configures a deduper.
type Option func(*lruDeduper)

// WithMaxSize sets how many vote ids are remembered. Values <= 0 keep the
// default.
func WithMaxSize(maxSize int) Option {
	return func(d *lruDeduper) {
		if maxSize > 0 {
			d.maxSize = maxSize
		}
	}
}
