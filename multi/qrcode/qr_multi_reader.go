// Package qrcode provides multi-QR code detection: locating and decoding
// every QR code present in a single image.
package qrcode

import (
	"fmt"

	"github.com/qrscan/qrscan"
	"github.com/qrscan/qrscan/internal/pipeline"
	"github.com/qrscan/qrscan/qrcode/detector"
)

// QRCodeMultiReader detects and decodes every QR code present in an image.
type QRCodeMultiReader struct{}

// NewQRCodeMultiReader creates a new QRCodeMultiReader.
func NewQRCodeMultiReader() *QRCodeMultiReader {
	return &QRCodeMultiReader{}
}

// DecodeMultiple detects every QR code in the image, then decodes each
// located symbol concurrently via internal/pipeline.DecodeAll. A decode
// failure on one symbol does not prevent the others from being returned.
// Results are ordered deterministically by the top-left finder pattern's
// position (y, then x).
func (r *QRCodeMultiReader) DecodeMultiple(image *qrscan.BinaryBitmap, opts *qrscan.DecodeOptions) ([]*qrscan.Result, error) {
	if opts == nil {
		opts = &qrscan.DecodeOptions{}
	}

	matrix, err := image.BlackMatrix()
	if err != nil {
		return nil, err
	}

	detectorResults, err := detector.DetectMulti(matrix, opts.TryHarder)
	if err != nil {
		return nil, err
	}

	decoded, err := pipeline.DecodeAll(detectorResults, opts.CharacterSet, opts.StrictMode)
	if err != nil {
		return nil, err
	}

	results := make([]*qrscan.Result, len(decoded))
	for i, d := range decoded {
		dr := d.Result
		points := make([]qrscan.ResultPoint, len(d.Points))
		for j, p := range d.Points {
			points[j] = qrscan.ResultPoint{X: p.X, Y: p.Y}
		}

		result := qrscan.NewResult(dr.Text, dr.RawBytes, points, qrscan.FormatQRCode)
		if dr.ByteSegments != nil {
			result.PutMetadata(qrscan.MetadataByteSegments, dr.ByteSegments)
		}
		if dr.ECLevel != "" {
			result.PutMetadata(qrscan.MetadataErrorCorrectionLevel, dr.ECLevel)
		}
		result.PutMetadata(qrscan.MetadataErrorsCorrected, dr.ErrorsCorrected)
		result.PutMetadata(qrscan.MetadataSymbologyIdentifier, fmt.Sprintf("]Q%d", dr.SymbologyModifier))
		if opts.WithInfo {
			result.PutMetadata(qrscan.MetadataOther, qrscan.QRInfo{
				Version:         dr.Version,
				ECLevel:         dr.ECLevel,
				TotalDataBits:   dr.NumBits,
				ErrorsCorrected: dr.ErrorsCorrected,
			})
		}
		results[i] = result
	}
	return results, nil
}

// Decode decodes the first (by sort order) QR code found in the image.
func (r *QRCodeMultiReader) Decode(image *qrscan.BinaryBitmap, opts *qrscan.DecodeOptions) (*qrscan.Result, error) {
	results, err := r.DecodeMultiple(image, opts)
	if err != nil {
		return nil, err
	}
	return results[0], nil
}

// Reset is a no-op.
func (r *QRCodeMultiReader) Reset() {}

var _ qrscan.MultipleBarcodeReader = (*QRCodeMultiReader)(nil)
var _ qrscan.Reader = (*QRCodeMultiReader)(nil)
