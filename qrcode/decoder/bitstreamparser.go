package decoder

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/qrscan/qrscan/bitutil"
	"github.com/qrscan/qrscan/internal"
	"github.com/qrscan/qrscan/qrerr"
)

const alphanumericChars = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ $%*+-./:"

// DecodeBitStream decodes data bytes into a DecoderResult.
//
// Numeric, Alphanumeric, Byte and Terminator are fully supported. Kanji,
// Structured Append, FNC1 and ECI are recognized but out of scope: they
// report qrerr.UnsupportedMode alongside the already-decoded prefix. The
// caller (Decoder.decodeParser) decides, based on StrictMode, whether to
// discard that prefix or return it to the user.
func DecodeBitStream(bytes []byte, version *Version, ecLevel ErrorCorrectionLevel, characterSet string) (*internal.DecoderResult, error) {
	bs := bitutil.NewBitSource(bytes)
	var result strings.Builder
	result.Grow(50)
	var byteSegments [][]byte
	bitsConsumed := 0

	makeResult := func() *internal.DecoderResult {
		dr := internal.NewDecoderResult(bytes, result.String(), byteSegments, ecLevel.String())
		dr.NumBits = bitsConsumed
		return dr
	}

	for {
		if bs.Available() < 4 {
			// No explicit terminator: total_data_bits is the block-derived
			// data-codeword bit count, not whatever partial count we'd
			// otherwise report.
			dr := makeResult()
			dr.NumBits = 8 * len(bytes)
			return dr, nil
		}

		modeBits, err := bs.ReadBits(4)
		if err != nil {
			return makeResult(), qrerr.New(qrerr.ParseMode, err.Error())
		}
		mode, err := ModeForBits(modeBits)
		if err != nil {
			return makeResult(), qrerr.New(qrerr.ParseMode, fmt.Sprintf("indicator %04b", modeBits))
		}

		if mode == ModeTerminator {
			// The terminator's own 4 bits are not part of total_data_bits.
			return makeResult(), nil
		}
		bitsConsumed += 4

		if isUnsupportedMode(mode) {
			return makeResult(), qrerr.New(qrerr.UnsupportedMode, mode.String())
		}

		countBits := mode.CharacterCountBits(version)
		if bs.Available() < countBits {
			return makeResult(), qrerr.New(qrerr.ParseLength, "character count field")
		}
		count, err := bs.ReadBits(countBits)
		if err != nil {
			return makeResult(), qrerr.New(qrerr.ParseLength, err.Error())
		}
		bitsConsumed += countBits

		startBits := bs.Available()
		switch mode {
		case ModeNumeric:
			err = decodeNumericSegment(bs, &result, count)
		case ModeAlphanumeric:
			err = decodeAlphanumericSegment(bs, &result, count)
		case ModeByte:
			var seg []byte
			seg, err = decodeByteSegment(bs, &result, count)
			if err == nil {
				byteSegments = append(byteSegments, seg)
			}
		default:
			err = qrerr.New(qrerr.ParseMode, mode.String())
		}
		bitsConsumed += startBits - bs.Available()
		if err != nil {
			return makeResult(), err
		}
	}
}

// isUnsupportedMode reports whether mode is recognized by the QR standard
// but excluded from this decoder's scope.
func isUnsupportedMode(mode Mode) bool {
	switch mode {
	case ModeKanji, ModeStructuredAppend, ModeFNC1FirstPosition, ModeFNC1SecondPosition, ModeECI, ModeHanzi:
		return true
	default:
		return false
	}
}

func toAlphaNumericChar(value int) (byte, error) {
	if value >= len(alphanumericChars) {
		return 0, qrerr.New(qrerr.ParseLength, "alphanumeric value out of range")
	}
	return alphanumericChars[value], nil
}

func decodeAlphanumericSegment(bs *bitutil.BitSource, result *strings.Builder, count int) error {
	for count > 1 {
		if bs.Available() < 11 {
			return qrerr.New(qrerr.ParseLength, "alphanumeric pair")
		}
		nextTwo, _ := bs.ReadBits(11)
		c1, err := toAlphaNumericChar(nextTwo / 45)
		if err != nil {
			return err
		}
		c2, err := toAlphaNumericChar(nextTwo % 45)
		if err != nil {
			return err
		}
		result.WriteByte(c1)
		result.WriteByte(c2)
		count -= 2
	}
	if count == 1 {
		if bs.Available() < 6 {
			return qrerr.New(qrerr.ParseLength, "alphanumeric trailing char")
		}
		val, _ := bs.ReadBits(6)
		c, err := toAlphaNumericChar(val)
		if err != nil {
			return err
		}
		result.WriteByte(c)
	}
	return nil
}

func decodeNumericSegment(bs *bitutil.BitSource, result *strings.Builder, count int) error {
	for count >= 3 {
		if bs.Available() < 10 {
			return qrerr.New(qrerr.ParseLength, "numeric triple")
		}
		threeDigits, _ := bs.ReadBits(10)
		if threeDigits >= 1000 {
			return qrerr.New(qrerr.ParseLength, "numeric triple overflow")
		}
		result.WriteString(fmt.Sprintf("%03d", threeDigits))
		count -= 3
	}
	if count == 2 {
		if bs.Available() < 7 {
			return qrerr.New(qrerr.ParseLength, "numeric pair")
		}
		twoDigits, _ := bs.ReadBits(7)
		if twoDigits >= 100 {
			return qrerr.New(qrerr.ParseLength, "numeric pair overflow")
		}
		result.WriteString(fmt.Sprintf("%02d", twoDigits))
	} else if count == 1 {
		if bs.Available() < 4 {
			return qrerr.New(qrerr.ParseLength, "numeric trailing digit")
		}
		digit, _ := bs.ReadBits(4)
		if digit >= 10 {
			return qrerr.New(qrerr.ParseLength, "numeric digit overflow")
		}
		result.WriteString(fmt.Sprintf("%d", digit))
	}
	return nil
}

// decodeByteSegment reads count raw bytes and decodes them per the byte-mode
// encoding rule: ISO-8859-1, unless the sequence is also valid UTF-8 and
// contains at least one multi-byte rune, in which case UTF-8 wins. Latin-1
// maps every byte value to a rune and decodeLatin1 always reports success,
// so the InvalidEncoding branch below is never taken (a zero-length segment
// decodes to the empty string).
func decodeByteSegment(bs *bitutil.BitSource, result *strings.Builder, count int) ([]byte, error) {
	if 8*count > bs.Available() {
		return nil, qrerr.New(qrerr.ParseLength, "byte segment")
	}
	readBytes := make([]byte, count)
	for i := 0; i < count; i++ {
		val, _ := bs.ReadBits(8)
		readBytes[i] = byte(val)
	}

	if utf8.Valid(readBytes) && containsMultiByteRune(readBytes) {
		result.Write(readBytes)
		return readBytes, nil
	}

	decoded, ok := decodeLatin1(readBytes)
	if !ok {
		return nil, qrerr.New(qrerr.InvalidEncoding, "byte segment is neither valid Latin-1 nor UTF-8")
	}
	result.WriteString(decoded)
	return readBytes, nil
}

func containsMultiByteRune(b []byte) bool {
	for _, r := range string(b) {
		if r > 0x7F {
			return true
		}
	}
	return false
}

// decodeLatin1 maps every byte to its Unicode code point (ISO-8859-1 is a
// subset of the first 256 Unicode code points), which always succeeds.
func decodeLatin1(b []byte) (string, bool) {
	runes := make([]rune, len(b))
	for i, c := range b {
		runes[i] = rune(c)
	}
	return string(runes), true
}
