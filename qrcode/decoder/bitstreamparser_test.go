package decoder

import (
	"testing"

	"github.com/qrscan/qrscan/qrerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// packBits packs a sequence of (value, width) fields MSB-first into bytes,
// zero-padding the final byte, mirroring how BitSource expects to read them.
func packBits(fields ...[2]int) []byte {
	var bits []byte
	for _, f := range fields {
		value, width := f[0], f[1]
		for i := width - 1; i >= 0; i-- {
			bits = append(bits, byte((value>>uint(i))&1))
		}
	}
	for len(bits)%8 != 0 {
		bits = append(bits, 0)
	}
	out := make([]byte, len(bits)/8)
	for i, b := range bits {
		if b == 1 {
			out[i/8] |= 1 << uint(7-i%8)
		}
	}
	return out
}

func TestDecodeBitStream_ByteMode_PrefersUTF8WhenMultiByte(t *testing.T) {
	version := &Version{Number: 1}
	data := packBits(
		[2]int{int(ModeByte), 4},
		[2]int{2, 8},
		[2]int{0xC3, 8},
		[2]int{0xA9, 8},
		[2]int{int(ModeTerminator), 4},
	)

	result, err := DecodeBitStream(data, version, ECLevelM, "")
	require.NoError(t, err)
	assert.Equal(t, "é", result.Text)
}

func TestDecodeBitStream_ByteMode_FallsBackToLatin1(t *testing.T) {
	version := &Version{Number: 1}
	data := packBits(
		[2]int{int(ModeByte), 4},
		[2]int{2, 8},
		[2]int{0xFF, 8},
		[2]int{0x80, 8},
		[2]int{int(ModeTerminator), 4},
	)

	result, err := DecodeBitStream(data, version, ECLevelM, "")
	require.NoError(t, err)
	assert.Equal(t, string([]rune{0xFF, 0x80}), result.Text)
}

func TestDecodeBitStream_UnsupportedMode_ReturnsPartialPrefix(t *testing.T) {
	version := &Version{Number: 1}
	data := packBits(
		[2]int{int(ModeNumeric), 4},
		[2]int{3, 10},
		[2]int{123, 10},
		[2]int{int(ModeKanji), 4},
	)

	result, err := DecodeBitStream(data, version, ECLevelM, "")
	require.Error(t, err)

	var qerr *qrerr.Error
	require.ErrorAs(t, err, &qerr)
	assert.Equal(t, qrerr.UnsupportedMode, qerr.Kind)
	assert.Equal(t, "123", result.Text)
}

func TestDecodeBitStream_Numeric(t *testing.T) {
	version := &Version{Number: 1}
	data := packBits(
		[2]int{int(ModeNumeric), 4},
		[2]int{5, 10},
		[2]int{123, 10},
		[2]int{45, 7},
		[2]int{int(ModeTerminator), 4},
	)

	result, err := DecodeBitStream(data, version, ECLevelM, "")
	require.NoError(t, err)
	assert.Equal(t, "12345", result.Text)
}

func TestDecodeBitStream_Alphanumeric(t *testing.T) {
	version := &Version{Number: 1}
	// "AB" -> codes 10, 11 -> pair value 10*45+11 = 461
	data := packBits(
		[2]int{int(ModeAlphanumeric), 4},
		[2]int{2, 9},
		[2]int{461, 11},
		[2]int{int(ModeTerminator), 4},
	)

	result, err := DecodeBitStream(data, version, ECLevelM, "")
	require.NoError(t, err)
	assert.Equal(t, "AB", result.Text)
}
