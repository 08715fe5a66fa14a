// Package qrcode locates and decodes QR codes in binary images.
package qrcode

import (
	"fmt"
	"math"

	"github.com/qrscan/qrscan"
	"github.com/qrscan/qrscan/bitutil"
	"github.com/qrscan/qrscan/internal"
	"github.com/qrscan/qrscan/qrcode/decoder"
	"github.com/qrscan/qrscan/qrcode/detector"
	"github.com/qrscan/qrscan/qrerr"
)

// Reader decodes QR codes from binary images.
type Reader struct {
	dec *decoder.Decoder
}

// NewReader creates a new QR code Reader.
func NewReader() *Reader {
	return &Reader{
		dec: decoder.NewDecoder(),
	}
}

// Decode locates and decodes a QR code in the given image.
func (r *Reader) Decode(image *qrscan.BinaryBitmap, opts *qrscan.DecodeOptions) (*qrscan.Result, error) {
	if opts == nil {
		opts = &qrscan.DecodeOptions{}
	}
	r.dec.StrictMode = opts.StrictMode

	matrix, err := image.BlackMatrix()
	if err != nil {
		return nil, err
	}

	if opts.PureBarcode {
		bits, err := extractPureBits(matrix)
		if err != nil {
			return nil, err
		}
		dr, err := r.dec.Decode(bits, opts.CharacterSet)
		if dr == nil {
			return nil, err
		}
		// A non-nil dr alongside a non-nil err is a non-strict-mode
		// unsupported-mode/parse failure: the already-decoded prefix is
		// still useful to the caller.
		return buildResult(dr, nil, opts.WithInfo), err
	}

	det := detector.NewDetector(matrix, opts.RatioTolerance)
	detectorResult, err := det.Detect(false)
	if err != nil {
		return nil, err
	}
	dr, err := r.dec.Decode(detectorResult.Bits, opts.CharacterSet)
	if dr == nil {
		return nil, err
	}

	points := make([]qrscan.ResultPoint, len(detectorResult.Points))
	for i, p := range detectorResult.Points {
		points[i] = qrscan.ResultPoint{X: p.X, Y: p.Y}
	}
	return buildResult(dr, points, opts.WithInfo), err
}

// Reset resets internal state.
func (r *Reader) Reset() {
	// nothing to reset
}

func buildResult(dr *internal.DecoderResult, points []qrscan.ResultPoint, withInfo bool) *qrscan.Result {
	result := qrscan.NewResult(dr.Text, dr.RawBytes, points, qrscan.FormatQRCode)
	if dr.ByteSegments != nil {
		result.PutMetadata(qrscan.MetadataByteSegments, dr.ByteSegments)
	}
	if dr.ECLevel != "" {
		result.PutMetadata(qrscan.MetadataErrorCorrectionLevel, dr.ECLevel)
	}
	result.PutMetadata(qrscan.MetadataErrorsCorrected, dr.ErrorsCorrected)
	result.PutMetadata(qrscan.MetadataSymbologyIdentifier, fmt.Sprintf("]Q%d", dr.SymbologyModifier))
	if withInfo {
		result.PutMetadata(qrscan.MetadataOther, qrscan.QRInfo{
			Version:         dr.Version,
			ECLevel:         dr.ECLevel,
			TotalDataBits:   dr.NumBits,
			ErrorsCorrected: dr.ErrorsCorrected,
		})
	}
	return result
}

// extractPureBits extracts a QR code from a "pure" image — one that contains
// only the unrotated, unskewed barcode with some white border.
func extractPureBits(image *bitutil.BitMatrix) (*bitutil.BitMatrix, error) {
	leftTopBlack := image.TopLeftOnBit()
	rightBottomBlack := image.BottomRightOnBit()
	if leftTopBlack == nil || rightBottomBlack == nil {
		return nil, qrerr.New(qrerr.SamplingOutOfBounds, "no dark pixels found")
	}

	moduleSize, err := moduleSizePure(leftTopBlack, image)
	if err != nil {
		return nil, err
	}

	top := leftTopBlack[1]
	bottom := rightBottomBlack[1]
	left := leftTopBlack[0]
	right := rightBottomBlack[0]

	if left >= right || top >= bottom {
		return nil, qrerr.New(qrerr.SamplingOutOfBounds, "degenerate bounding box")
	}

	if bottom-top != right-left {
		right = left + (bottom - top)
		if right >= image.Width() {
			return nil, qrerr.New(qrerr.SamplingOutOfBounds, "square region exceeds image bounds")
		}
	}

	matrixWidth := int(math.Round(float64(right-left+1) / moduleSize))
	matrixHeight := int(math.Round(float64(bottom-top+1) / moduleSize))
	if matrixWidth <= 0 || matrixHeight <= 0 {
		return nil, qrerr.New(qrerr.VersionEstimate, "non-positive module count")
	}
	if matrixHeight != matrixWidth {
		return nil, qrerr.New(qrerr.VersionEstimate, "non-square module count")
	}

	nudge := int(moduleSize / 2.0)
	top += nudge
	left += nudge

	nudgedTooFarRight := left + int(float64(matrixWidth-1)*moduleSize) - right
	if nudgedTooFarRight > 0 {
		if nudgedTooFarRight > nudge {
			return nil, qrerr.New(qrerr.SamplingOutOfBounds, "nudge exceeded tolerance (right)")
		}
		left -= nudgedTooFarRight
	}
	nudgedTooFarDown := top + int(float64(matrixHeight-1)*moduleSize) - bottom
	if nudgedTooFarDown > 0 {
		if nudgedTooFarDown > nudge {
			return nil, qrerr.New(qrerr.SamplingOutOfBounds, "nudge exceeded tolerance (bottom)")
		}
		top -= nudgedTooFarDown
	}

	bits := bitutil.NewBitMatrix(matrixWidth)
	for y := 0; y < matrixHeight; y++ {
		iOffset := top + int(float64(y)*moduleSize)
		for x := 0; x < matrixWidth; x++ {
			if image.Get(left+int(float64(x)*moduleSize), iOffset) {
				bits.Set(x, y)
			}
		}
	}
	return bits, nil
}

func moduleSizePure(leftTopBlack []int, image *bitutil.BitMatrix) (float64, error) {
	height := image.Height()
	width := image.Width()
	x := leftTopBlack[0]
	y := leftTopBlack[1]
	inBlack := true
	transitions := 0
	for x < width && y < height {
		if inBlack != image.Get(x, y) {
			transitions++
			if transitions == 5 {
				break
			}
			inBlack = !inBlack
		}
		x++
		y++
	}
	if x == width || y == height {
		return 0, qrerr.New(qrerr.SamplingOutOfBounds, "ran off image while measuring module size")
	}
	return float64(x-leftTopBlack[0]) / 7.0, nil
}
