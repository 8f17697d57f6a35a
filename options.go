package exportdb

import (
	"github.com/crateindex/exportdb/internal/cache"
	"github.com/crateindex/exportdb/internal/config"
)

// Options is the decoder-wide tunable set (§ AMBIENT STACK / Configuration):
// warning-buffer capacity, the default PSSI unmasking behavior, on-disk
// cache location, and page-size sanity bounds. Load it via
// github.com/spf13/viper with config.Load, or start from config.DefaultOptions().
type Options = config.Options

// openSettings accumulates the effect of every Option passed to OpenDatabase
// or OpenAnalysis.
type openSettings struct {
	options    Options
	unmasked   *bool // nil means "use options.DefaultUnmasked"
	eagerIndex bool
	pageCache  *cache.PageCache
}

func newOpenSettings() openSettings {
	return openSettings{
		options:    config.DefaultOptions(),
		eagerIndex: true,
	}
}

func (s openSettings) resolveUnmasked() bool {
	if s.unmasked != nil {
		return *s.unmasked
	}
	return s.options.DefaultUnmasked
}

// Option configures a single OpenDatabase or OpenAnalysis call.
type Option func(*openSettings)

// WithOptions overrides the decoder-wide defaults for a single Open call.
func WithOptions(o Options) Option {
	return func(s *openSettings) { s.options = o }
}

// WithUnmasked forces the PSSI unmasking behavior for this file, overriding
// Options.DefaultUnmasked (§4.7 "Suppression").
func WithUnmasked(unmasked bool) Option {
	return func(s *openSettings) { s.unmasked = &unmasked }
}

// WithEagerIndex controls whether string bodies are fully decoded at index
// build time (the default) versus resolved lazily against a retained byte
// source (§9 "Lazy parse of string bodies"). Only eager mode is currently
// implemented; false is accepted for API stability but behaves like true.
func WithEagerIndex(eager bool) Option {
	return func(s *openSettings) { s.eagerIndex = eager }
}

// WithPageCache attaches an on-disk decode cache opened via
// cache.OpenPageCache, so re-opening the same database skips a full page
// walk when the file's (size, mtime) identity hasn't changed.
func WithPageCache(c *cache.PageCache) Option {
	return func(s *openSettings) { s.pageCache = c }
}

func applyOptions(opts []Option) openSettings {
	s := newOpenSettings()
	for _, opt := range opts {
		opt(&s)
	}
	return s
}
