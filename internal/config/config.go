// Package config holds the tunables that shape how a database or analysis
// file is opened and decoded: how many warnings to retain, whether PSSI
// bodies are unmasked before storage, and where the on-disk decode cache
// lives.
package config

import (
	"github.com/spf13/viper"
)

// Options holds the decoder's tunable behavior.
type Options struct {
	// WarnBufferSize caps how many warnings a Collection or Analysis
	// retains before it starts dropping the oldest ones.
	WarnBufferSize int

	// DefaultUnmasked controls whether PSSI section bodies are unmasked by
	// default (§7.2); a file whose own unmasked flag is set is honored
	// regardless of this default.
	DefaultUnmasked bool

	// CacheDir, if non-empty, enables the on-disk index cache at that path.
	CacheDir string

	// MinPageSize and MaxPageSize bound what a database header's declared
	// page size is allowed to be before Open refuses the file as malformed;
	// this guards against a corrupt header driving an enormous allocation.
	MinPageSize uint32
	MaxPageSize uint32
}

// DefaultOptions returns the options used when none are supplied.
func DefaultOptions() Options {
	return Options{
		WarnBufferSize:  256,
		DefaultUnmasked: false,
		MinPageSize:     64,
		MaxPageSize:     1 << 20,
	}
}

// Load reads options from v, filling in any key the caller never set with
// DefaultOptions' value. v may be nil, in which case DefaultOptions is
// returned unchanged.
func Load(v *viper.Viper) Options {
	opts := DefaultOptions()
	if v == nil {
		return opts
	}

	v.SetDefault("warn_buffer_size", opts.WarnBufferSize)
	v.SetDefault("default_unmasked", opts.DefaultUnmasked)
	v.SetDefault("cache_dir", opts.CacheDir)
	v.SetDefault("min_page_size", opts.MinPageSize)
	v.SetDefault("max_page_size", opts.MaxPageSize)

	opts.WarnBufferSize = v.GetInt("warn_buffer_size")
	opts.DefaultUnmasked = v.GetBool("default_unmasked")
	opts.CacheDir = v.GetString("cache_dir")
	opts.MinPageSize = uint32(v.GetUint("min_page_size"))
	opts.MaxPageSize = uint32(v.GetUint("max_page_size"))

	return opts
}
