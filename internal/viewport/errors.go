package viewport

import "errors"

var (
	ErrInvalidPixelWidth = errors.New("pixel width must be positive")
	ErrNoDataset         = errors.New("no dataset loaded")
)
