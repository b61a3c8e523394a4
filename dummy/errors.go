package dummy

import "fmt"

// ErrorType classifies a non-fatal Result failure. Fatal invariant
// violations are not represented here: they panic with a
// *FatalInvariantError instead, per the reference implementation's
// prefer-a-loud-crash-to-silent-corruption policy.
type ErrorType int

const (
	// NoError indicates success.
	NoError ErrorType = iota
	// TransientError indicates the caller may retry after reconfiguration
	// (e.g. "Bucket not found", "not initialized").
	TransientError
	// PermanentError indicates the caller must not retry unmodified (e.g.
	// an unparseable document selection).
	PermanentError
	// TimestampExistsError indicates put() received a new document at a
	// timestamp already used by a different document.
	TimestampExistsError
)

func (t ErrorType) String() string {
	switch t {
	case NoError:
		return "NoError"
	case TransientError:
		return "TransientError"
	case PermanentError:
		return "PermanentError"
	case TimestampExistsError:
		return "TimestampExists"
	default:
		return "UnknownError"
	}
}

// Result is the uniform success-or-error outcome every Provider operation
// returns, generalizing the teacher's sentinel-error idiom into the
// specification's explicit error-kind taxonomy.
type Result struct {
	ErrorType ErrorType
	Message   string
}

// Ok is the zero-value successful Result.
var Ok = Result{}

// HasError reports whether this Result carries a non-success error type.
func (r Result) HasError() bool {
	return r.ErrorType != NoError
}

func (r Result) Error() string {
	if !r.HasError() {
		return ""
	}
	return fmt.Sprintf("%s: %s", r.ErrorType, r.Message)
}

// Transient builds a TransientError Result with the given message.
func Transient(msg string) Result {
	return Result{ErrorType: TransientError, Message: msg}
}

// Permanent builds a PermanentError Result with the given message.
func Permanent(msg string) Result {
	return Result{ErrorType: PermanentError, Message: msg}
}

// TimestampExists builds the TimestampExists Result put() returns when a
// different document already occupies the requested timestamp.
func TimestampExists() Result {
	return Result{ErrorType: TimestampExistsError, Message: "Timestamp already existed"}
}

// BucketNotFound is the Result every operation returns for a missing
// bucket, matching the reference implementation's literal message.
func BucketNotFound() Result {
	return Transient("Bucket not found")
}

// NotInitialized is returned by every operation invoked before Initialize.
func NotInitialized() Result {
	return Transient("not initialized")
}
