package miner

// invalidRequestError signals a malformed synapse payload for 400 mapping.
type invalidRequestError struct{ msg string }

func (e invalidRequestError) Error() string { return e.msg }

// ErrInvalidRequest constructs an invalidRequestError.
func ErrInvalidRequest(msg string) error { return invalidRequestError{msg: msg} }

// IsInvalidRequest reports whether err indicates a malformed request.
func IsInvalidRequest(err error) bool {
	_, ok := err.(invalidRequestError)
	return ok
}
