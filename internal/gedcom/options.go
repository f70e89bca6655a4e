package gedcom

import "log/slog"

// Option configures a Parser.
type Option func(*options)

type options struct {
	log           *slog.Logger
	onDiagnostic  func(Diagnostic)
	sourceRecords bool
}

// WithLogger logs every diagnostic at warn level.
func WithLogger(log *slog.Logger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithDiagnosticHandler calls fn for every diagnostic as it is emitted.
func WithDiagnosticHandler(fn func(Diagnostic)) Option {
	return func(o *options) {
		o.onDiagnostic = fn
	}
}

// WithSourceRecords parses top-level SUBM, REPO and SOUR records into the
// document instead of skipping them.
func WithSourceRecords() Option {
	return func(o *options) {
		o.sourceRecords = true
	}
}
