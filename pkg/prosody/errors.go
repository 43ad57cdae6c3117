package prosody

// Error is the typed failure returned by every stage of the pipeline.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Source  string `json:"source,omitempty"` // input path or "buffer"
	Cause   error  `json:"-"`
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Source != "" {
		msg += " (" + e.Source + ")"
	}
	if e.Cause != nil {
		return msg + ": " + e.Cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Is matches any *Error carrying the same code, so errors.Is(err,
// ErrDecode) holds for every decode failure.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Code == e.Code
}

// Common error codes
const (
	ErrCodeUnsupportedInput = "UNSUPPORTED_INPUT"
	ErrCodeDecoding         = "DECODING_FAILED"
	ErrCodeAnalysis         = "ANALYSIS_FAILED"
	ErrCodeNotAnalyzed      = "NOT_ANALYZED"
	ErrCodeInvalidFeature   = "INVALID_FEATURE"
)

var (
	ErrUnsupportedInput = &Error{Code: ErrCodeUnsupportedInput, Message: "unsupported input"}
	ErrDecode           = &Error{Code: ErrCodeDecoding, Message: "decoding failed"}
	ErrAnalysis         = &Error{Code: ErrCodeAnalysis, Message: "analysis failed"}
	ErrNotAnalyzed      = &Error{Code: ErrCodeNotAnalyzed, Message: "analysis not performed"}
	ErrInvalidFeature   = &Error{Code: ErrCodeInvalidFeature, Message: "invalid feature"}
)

// NewError creates a new pipeline error
func NewError(code, source, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Source:  source,
		Cause:   cause,
	}
}
