// Package api is the library's public surface: Options plus the LowerWasm/
// LowerWat entry points. Everything else under internal/ is implementation
// detail this package alone is allowed to depend on.
package api

import (
	"github.com/NotDec/NotDec-wasm2llvm/internal/diag"
	"github.com/NotDec/NotDec-wasm2llvm/internal/lower"
)

// Options configures a lowering run. Build one with NewOptions and the
// WithXXX functions below; NewOptions() with no arguments gives the
// library's documented defaults, while the zero value leaves LogLevel at
// emergency rather than notice.
type Options struct {
	cfg lower.Config
}

// Option mutates an Options under construction.
type Option func(*Options)

// NewOptions builds an Options from zero or more Option values, applied in
// order (a later WithXXX overrides an earlier conflicting one).
func NewOptions(opts ...Option) Options {
	o := Options{cfg: lower.DefaultConfig()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// WithGenIntToPtr lowers each load/store address as an integer: its static
// offset is added to the dynamic address and the sum is cast to a pointer
// (int_to_ptr), so the load/store itself carries no offset. Tables are not
// affected.
func WithGenIntToPtr() Option {
	return func(o *Options) { o.cfg.GenIntToPtr = true }
}

// WithFixNames renames functions the way a native toolchain would expect:
// strips a leading '$' from names (unless WithNoRemoveDollar is also set),
// and evicts whatever previously held the name "main" in favor of a
// recognized entry-point function.
func WithFixNames() Option {
	return func(o *Options) { o.cfg.FixNames = true }
}

// WithNoRemoveDollar disables the '$'-stripping half of WithFixNames while
// keeping its other renames; meaningless unless WithFixNames is also set.
func WithNoRemoveDollar() Option {
	return func(o *Options) { o.cfg.NoRemoveDollar = true }
}

// WithForceExportName makes an export's name win over whatever name its
// target already carries, evicting the prior holder of that name; without
// it, an export only supplies a name for an otherwise-unnamed function.
func WithForceExportName() Option {
	return func(o *Options) { o.cfg.ForceExportName = true }
}

// WithSplitMem emits each data segment as its own named global (in section
// ".addr_0x<offset>", or ".rodata" for a segment named ".rodata") instead of
// copying it into its memory's flat buffer.
func WithSplitMem() Option {
	return func(o *Options) { o.cfg.SplitMem = true }
}

// WithNoMemInitializer skips materializing Memory.Data from data segments;
// the caller is responsible for populating linear memory some other way at
// load time.
func WithNoMemInitializer() Option {
	return func(o *Options) { o.cfg.NoMemInitializer = true }
}

// WithLogLevel sets the diagnostic sink's verbosity, on syslog's
// severity scale (lower is more severe). Defaults to notice.
func WithLogLevel(level diag.LogLevel) Option {
	return func(o *Options) { o.cfg.LogLevel = level }
}
