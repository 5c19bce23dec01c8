package apperrors

import "errors"

// Error is a sentinel carrying a stable machine-readable code.
type Error struct {
	code string
	msg  string
}

func New(code, msg string) *Error {
	return &Error{code: code, msg: msg}
}

func (e *Error) Error() string { return e.msg }

func (e *Error) Code() string { return e.code }

var (
	ErrInvalidInput = New("invalid_input", "invalid input")
	ErrNotFound     = New("not_found", "not found")
	ErrUnsupported  = New("unsupported", "operation not supported")

	// guidance engine
	ErrAlreadyRunning  = New("already_running", "guidance already running")
	ErrNotRunning      = New("not_running", "guidance not running")
	ErrInvalidDuration = New("invalid_duration", "duration must be positive")
	ErrInvalidBPM      = New("invalid_bpm", "bpm must be positive")
	ErrInvalidBreath   = New("invalid_breath", "invalid breath configuration")
	ErrUnsupportedMode = New("unsupported_mode", "unsupported guidance mode")

	// session coordinator
	ErrAlreadyActive       = New("already_active", "session already active")
	ErrNotActive           = New("not_active", "no active session")
	ErrNotVibrationActive  = New("not_vibration_active", "no active vibration session")
	ErrActuatorUnavailable = New("actuator_unavailable", "actuator unavailable")
)

// Code returns the code of the first coded error in err's chain, or "" when
// there is none.
func Code(err error) string {
	var coded *Error
	if errors.As(err, &coded) {
		return coded.code
	}
	return ""
}
