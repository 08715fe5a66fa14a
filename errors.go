package qrscan

import "errors"

// ErrNotFound is returned by the Detect and Extract stages when no QR code
// could be located in the image. Decode-stage failures use the typed
// taxonomy in package qrerr instead.
var ErrNotFound = errors.New("barcode not found")
