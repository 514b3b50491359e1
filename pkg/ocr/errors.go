package ocr

import "errors"

// ErrUnknownMode is returned when a preprocessing mode tag is outside the
// known set. Callers must not treat it as "use the default mode".
var ErrUnknownMode = errors.New("unknown preprocessing mode")
