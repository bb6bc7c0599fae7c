package pair

import "errors"

// Sentinel kinds for this package.
var (
	ErrMalformedKey = errors.New("malformed pair key")
)
