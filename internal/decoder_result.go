// Package internal provides shared result types used across barcode format packages.
package internal

// DecoderResult encapsulates the result of decoding a matrix of bits.
type DecoderResult struct {
	RawBytes          []byte
	NumBits           int
	Text              string
	ByteSegments      [][]byte
	ECLevel           string
	ErrorsCorrected   int
	SymbologyModifier int

	// Version is populated by the QR decoder for callers that request QRInfo
	// via DecodeOptions.WithInfo. NumBits doubles as total data bits consumed.
	Version int
}

// NewDecoderResult creates a DecoderResult with the basic fields.
func NewDecoderResult(rawBytes []byte, text string, byteSegments [][]byte, ecLevel string) *DecoderResult {
	numBits := 0
	if rawBytes != nil {
		numBits = 8 * len(rawBytes)
	}
	return &DecoderResult{
		RawBytes:     rawBytes,
		NumBits:      numBits,
		Text:         text,
		ByteSegments: byteSegments,
		ECLevel:      ecLevel,
	}
}
