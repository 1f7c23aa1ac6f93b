package channel

import "errors"

var (
	ErrInvalidSpec      = errors.New("invalid channel spec")
	ErrDuplicateChannel = errors.New("duplicate channel name")
)
