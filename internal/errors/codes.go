// Package errors implements the six error kinds surfaced by the core (spec
// section 7: TypeError, SchedulingError, ParseFragmentError, MemGenError,
// ConfigError, CursorInvalid) plus a colorized diagnostic reporter, grounded
// on the teacher's error-code-catalog-plus-reporter shape.
package errors

// Error code ranges, following the teacher's convention of a documented
// numeric catalog rather than ad hoc string messages:
//
//	E1000-E1099: TypeError   (check(): resolution/arity/type failures)
//	E1100-E1199: SchedulingError (rewrite precondition failures)
//	E1200-E1299: ParseFragmentError (pattern-language parse failures)
//	E1300-E1399: MemGenError (memory-capability codegen rejections)
//	E1400-E1499: ConfigError (config access-mode violations)
//	E1500-E1599: CursorInvalid (stale or unforwarded cursor use)
const (
	ErrUnknownSymbol       = "E1001"
	ErrArityMismatch       = "E1002"
	ErrTypeMismatch        = "E1003"
	ErrNonAffineIndex      = "E1004"
	ErrWriteToConst        = "E1005"
	ErrCyclicCallGraph     = "E1006"
	ErrUseBeforeDeclare    = "E1007"
	ErrWindowTensorMismatch = "E1008"

	ErrPreconditionFailed = "E1101"

	ErrFragmentSyntax = "E1201"

	ErrMemCodegenRejected = "E1301"

	ErrConfigAccessMode = "E1401"

	ErrCursorStale = "E1501"
)
