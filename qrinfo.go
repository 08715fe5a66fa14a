package qrscan

// QRInfo carries decode diagnostics beyond the plain text result: the QR
// version number, error correction level, total data bits consumed, and how
// many codewords were corrected during Reed-Solomon decoding. It is attached
// to a Result's metadata under MetadataOther when DecodeOptions.WithInfo is
// set.
type QRInfo struct {
	Version         int
	ECLevel         string
	TotalDataBits   int
	ErrorsCorrected int
}
