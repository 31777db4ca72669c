package ports

import (
	"errors"
	"fmt"
)

// Status codes follow the negative errno / FFERRTAG convention so that codes
// from the native engine and from libav read the same in logs.
const (
	CodeENOENT           = -2
	CodeEIO              = -5
	CodeEAGAIN           = -11
	CodeENOMEM           = -12
	CodeEINVAL           = -22
	CodeESPIPE           = -29
	CodeENOSYS           = -38
	CodeBug              = -558323010  // FFERRTAG('B','U','G','!')
	CodeDecoderNotFound  = -1128613112 // FFERRTAG(0xF8,'D','E','C')
	CodeDemuxerNotFound  = -1296385272 // FFERRTAG(0xF8,'D','E','M')
	CodeEOF              = -541478725  // FFERRTAG('E','O','F',' ')
	CodeExternal         = -542398533  // FFERRTAG('E','X','T',' ')
	CodeInvalidData      = -1094995529 // FFERRTAG('I','N','D','A')
	CodeProtocolNotFound = -1330794744 // FFERRTAG(0xF8,'P','R','O')
	CodeStreamNotFound   = -1381258232 // FFERRTAG(0xF8,'S','T','R')
	CodeUnknown          = -1313558101 // FFERRTAG('U','N','K','N')
)

var (
	// ErrAgain is returned by decoders that need the other half of
	// send/receive to run first.
	ErrAgain = &StatusError{Op: "again", Code: CodeEAGAIN}

	// ErrNotSeekable is returned when the input cannot be repositioned.
	ErrNotSeekable = &StatusError{Op: "seek", Code: CodeESPIPE}
)

// StatusError carries an engine numeric status.
type StatusError struct {
	Op   string
	Code int
	Err  error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v (%d)", e.Op, e.Err, e.Code)
	}
	return fmt.Sprintf("%s: status %d", e.Op, e.Code)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// Is matches any StatusError with the same code, so errors.Is(err, ErrAgain)
// works for fresh values.
func (e *StatusError) Is(target error) bool {
	var t *StatusError
	if errors.As(target, &t) {
		return t.Code == e.Code
	}
	return false
}

// NewStatusError wraps err with an operation name and code.
func NewStatusError(op string, code int, err error) *StatusError {
	return &StatusError{Op: op, Code: code, Err: err}
}

// StatusCode extracts the numeric status from err, or CodeUnknown.
func StatusCode(err error) int {
	if err == nil {
		return 0
	}
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return CodeUnknown
}
