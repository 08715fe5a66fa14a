package qrscan

// DecodeOptions configures QR decoding behavior.
type DecodeOptions struct {
	// PureBarcode hints that the image contains only the barcode with minimal
	// border and no rotation, enabling a cheaper extraction path that skips
	// finder-pattern search.
	PureBarcode bool

	// TryHarder makes the multi-symbol reader's detection pass scan rows at
	// the minimum skip interval. The single-symbol qrcode.Reader ignores it.
	TryHarder bool

	// PossibleFormats limits which formats to look for. QR is the only
	// registered format; this exists so MultiFormatReader's dispatch
	// mechanism stays generic.
	PossibleFormats []Format

	// CharacterSet overrides encoding detection for byte-mode segments.
	CharacterSet string

	// AlsoInverted enables checking for barcodes on inverted images.
	AlsoInverted bool

	// StrictMode mirrors decode.strict_mode: an unsupported mode segment
	// aborts the whole decode instead of returning the decoded prefix.
	StrictMode bool

	// WithInfo requests that QRInfo (version, EC level, total data bits,
	// errors corrected) be populated on the result.
	WithInfo bool

	// RatioTolerance is the fractional slack allowed in the 1:1:3:1:1
	// finder-pattern ratio test. Zero means "use the detector's default."
	RatioTolerance float64
}

// Reader decodes barcodes from a BinaryBitmap.
type Reader interface {
	// Decode attempts to decode a barcode from the image.
	Decode(image *BinaryBitmap, opts *DecodeOptions) (*Result, error)

	// Reset resets any internal state.
	Reset()
}
