package workspace

import "errors"

// ErrClosed is returned by mutations after Close.
var ErrClosed = errors.New("workspace closed")
