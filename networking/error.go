package networking

import "fmt"

// Error reports a misuse of the network model: invalid frame sizes, bad link
// parameters, ports that do not belong to a device and similar mistakes. The
// message tells the cases apart.
type Error struct {
	msg string
}

// NewError creates an Error with a formatted message.
func NewError(format string, args ...any) *Error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	return e.msg
}
