package decoder

import (
	"errors"

	"github.com/qrscan/qrscan/bitutil"
	"github.com/qrscan/qrscan/internal"
	"github.com/qrscan/qrscan/qrerr"
	"github.com/qrscan/qrscan/reedsolomon"
)

// Decoder decodes QR codes.
type Decoder struct {
	rsDecoder *reedsolomon.Decoder

	// StrictMode mirrors spec's decode.strict_mode: when true, an
	// UnsupportedMode segment aborts the decode instead of returning the
	// already-decoded prefix.
	StrictMode bool
}

// NewDecoder creates a new QR code Decoder.
func NewDecoder() *Decoder {
	return &Decoder{
		rsDecoder: reedsolomon.NewDecoder(reedsolomon.QRCodeField256),
	}
}

// Decode decodes a BitMatrix into a DecoderResult. On first-pass failure it
// retries with a mirrored reading of the bit matrix, to recover symbols that
// were printed or photographed reversed.
func (d *Decoder) Decode(bits *bitutil.BitMatrix, characterSet string) (*internal.DecoderResult, error) {
	parser, err := NewBitMatrixParser(bits)
	if err != nil {
		return nil, err
	}

	result, err := d.decodeParser(parser, characterSet)
	if err == nil {
		return result, nil
	}
	if d.StrictMode {
		// A strict-mode failure is definitive; the mirrored retry exists to
		// recover from a wrong orientation guess, not to relax strictness.
		return nil, err
	}
	if isBitstreamError(err) {
		// Format/version/codewords already read correctly: the failure is
		// in interpreting the data bits themselves, which a mirrored re-read
		// of the same matrix cannot fix. Return the already-decoded prefix
		// alongside the error instead of discarding it.
		return result, err
	}

	parser.Remask()
	parser.SetMirror(true)

	if _, verr := parser.ReadVersion(); verr != nil {
		return nil, err // return original error
	}
	if _, ferr := parser.ReadFormatInformation(); ferr != nil {
		return nil, err
	}

	parser.Mirror()

	mirrored, err2 := d.decodeParser(parser, characterSet)
	if err2 != nil {
		return nil, err // return original error
	}
	return mirrored, nil
}

// isBitstreamError reports whether err came from DecodeBitStream parsing the
// already error-corrected codewords (unsupported mode, malformed mode or
// length field, invalid byte-mode encoding), as opposed to a failure reading
// format info, version info, or correcting codewords.
func isBitstreamError(err error) bool {
	var qerr *qrerr.Error
	if !errors.As(err, &qerr) {
		return false
	}
	switch qerr.Kind {
	case qrerr.ParseMode, qrerr.UnsupportedMode, qrerr.ParseLength, qrerr.InvalidEncoding:
		return true
	default:
		return false
	}
}

func (d *Decoder) decodeParser(parser *BitMatrixParser, characterSet string) (*internal.DecoderResult, error) {
	version, err := parser.ReadVersion()
	if err != nil {
		return nil, err
	}
	formatInfo, err := parser.ReadFormatInformation()
	if err != nil {
		return nil, err
	}
	ecLevel := formatInfo.ECLevel

	codewords, err := parser.ReadCodewords()
	if err != nil {
		return nil, err
	}

	dataBlocks := GetDataBlocks(codewords, version, ecLevel)

	totalBytes := 0
	for _, db := range dataBlocks {
		totalBytes += db.NumDataCodewords
	}
	resultBytes := make([]byte, totalBytes)
	resultOffset := 0

	errorsCorrected := 0
	for i, db := range dataBlocks {
		corrected, err := d.correctErrors(db.Codewords, db.NumDataCodewords)
		if err != nil {
			return nil, err.(*qrerr.Error).WithVersion(version.Number).WithBlock(i)
		}
		errorsCorrected += corrected
		copy(resultBytes[resultOffset:], db.Codewords[:db.NumDataCodewords])
		resultOffset += db.NumDataCodewords
	}

	result, err := DecodeBitStream(resultBytes, version, ecLevel, characterSet)
	result.ErrorsCorrected = errorsCorrected
	result.Version = version.Number
	if err != nil {
		if d.StrictMode {
			return nil, err
		}
		// Non-strict: the caller still gets the decoded prefix alongside
		// the UnsupportedMode/parse error.
		return result, err
	}
	return result, nil
}

func (d *Decoder) correctErrors(codewordBytes []byte, numDataCodewords int) (int, error) {
	numCodewords := len(codewordBytes)
	codewordsInts := make([]int, numCodewords)
	for i := 0; i < numCodewords; i++ {
		codewordsInts[i] = int(codewordBytes[i]) & 0xFF
	}
	corrected, err := d.rsDecoder.Decode(codewordsInts, numCodewords-numDataCodewords)
	if err != nil {
		return 0, qrerr.New(qrerr.Correction, err.Error())
	}
	for i := 0; i < numDataCodewords; i++ {
		codewordBytes[i] = byte(codewordsInts[i])
	}
	return corrected, nil
}
