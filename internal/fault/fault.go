// Package fault defines the stable failure codes shared by the range-sensor programs.
// None of these failures are fatal; callers log them and carry on.
package fault

// Code is a stable failure identifier.
// It is a string newtype, comparable, and implements error.
type Code string

func (c Code) Error() string { return string(c) }

const (
	OK                 Code = "ok"
	SensorTimeout      Code = "sensor_timeout"      // no echo within bound
	NetworkUnavailable Code = "network_unavailable" // attach failed or timed out
	UploadFailure      Code = "upload_failure"      // remote write reported an error
	PeerUnavailable    Code = "peer_unavailable"    // no attached wireless peer

	Error Code = "error" // generic fallback
)

// E wraps a Code with the operation, a remote status code and message, and a cause.
type E struct {
	C      Code
	Op     string
	Status int
	Msg    string
	Err    error
}

func (e *E) Error() string {
	s := string(e.C)
	if e.Op != "" {
		s = e.Op + ": " + s
	}
	if e.Msg != "" {
		s += ": " + e.Msg
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

func (e *E) Unwrap() error { return e.Err }
func (e *E) Code() Code    { return e.C }

// Is lets errors.Is match an *E against its bare Code.
func (e *E) Is(target error) bool {
	c, ok := target.(Code)
	return ok && c == e.C
}

// Wrap returns an *E for op with code c and cause err.
func Wrap(c Code, op string, err error) error {
	return &E{C: c, Op: op, Err: err}
}

// Of extracts a Code from an error, defaulting to Error.
func Of(err error) Code {
	if err == nil {
		return OK
	}
	type coder interface{ Code() Code }
	for err != nil {
		if c, ok := err.(Code); ok {
			return c
		}
		if x, ok := err.(coder); ok {
			return x.Code()
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			break
		}
		err = u.Unwrap()
	}
	return Error
}
