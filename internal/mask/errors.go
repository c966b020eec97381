package mask

import "errors"

// ErrInvalidMask is returned when a mask cannot be parsed
var ErrInvalidMask = errors.New("invalid event mask")
