package backend

// unavailableError signals a missing or unreachable model runtime so the
// serving layer can return 503 Service Unavailable instead of 500.
type unavailableError struct{ msg string }

func (e unavailableError) Error() string { return e.msg }

// ErrUnavailable constructs an unavailableError.
func ErrUnavailable(msg string) error { return unavailableError{msg: msg} }

// IsUnavailable reports whether err indicates a missing/unreachable runtime.
func IsUnavailable(err error) bool {
	_, ok := err.(unavailableError)
	return ok
}
