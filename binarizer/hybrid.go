package binarizer

import (
	"github.com/qrscan/qrscan"
	"github.com/qrscan/qrscan/bitutil"
)

const (
	defaultBlockSize   = 8
	defaultBlockWindow = 5
	minDynamicRange    = 24
)

// Hybrid implements a local thresholding algorithm. It is more effective than
// GlobalHistogram for images with shadows and gradients.
//
// The image is divided into blockSize x blockSize pixel blocks, each given a
// black-point estimate; the threshold actually applied to a block is the
// average black point over a blockWindow x blockWindow neighborhood of
// blocks, smoothing out block-to-block noise. Smaller blockSize means a more
// adaptive (and slower) threshold; blockWindow must be odd.
type Hybrid struct {
	GlobalHistogram
	blockSize   int
	blockWindow int
	matrix      *bitutil.BitMatrix
}

// NewHybrid creates a new Hybrid binarizer. Non-positive blockSize or
// blockWindow, or an even blockWindow, fall back to the spec defaults
// (block_size 8, block_window 5).
func NewHybrid(source qrscan.LuminanceSource, blockSize, blockWindow int) *Hybrid {
	if blockSize <= 0 {
		blockSize = defaultBlockSize
	}
	if blockWindow <= 0 || blockWindow%2 == 0 {
		blockWindow = defaultBlockWindow
	}
	return &Hybrid{
		GlobalHistogram: *NewGlobalHistogram(source),
		blockSize:       blockSize,
		blockWindow:     blockWindow,
	}
}

// BlackMatrix returns the binarized matrix using local thresholding.
func (h *Hybrid) BlackMatrix() (*bitutil.BitMatrix, error) {
	if h.matrix != nil {
		return h.matrix, nil
	}
	source := h.LuminanceSource()
	width := source.Width()
	height := source.Height()

	minimumDimension := h.blockSize * h.blockWindow
	if width >= minimumDimension && height >= minimumDimension {
		luminances := source.Matrix()
		subWidth := (width + h.blockSize - 1) / h.blockSize
		subHeight := (height + h.blockSize - 1) / h.blockSize
		blackPoints := h.calculateBlackPoints(luminances, subWidth, subHeight, width, height)

		newMatrix := bitutil.NewBitMatrixWithSize(width, height)
		h.calculateThresholdForBlock(luminances, subWidth, subHeight, width, height, blackPoints, newMatrix)
		h.matrix = newMatrix
	} else {
		m, err := h.GlobalHistogram.BlackMatrix()
		if err != nil {
			return nil, err
		}
		h.matrix = m
	}
	return h.matrix, nil
}

func (h *Hybrid) calculateThresholdForBlock(luminances []byte, subWidth, subHeight, width, height int,
	blackPoints [][]int, matrix *bitutil.BitMatrix) {
	radius := h.blockWindow / 2
	maxYOffset := height - h.blockSize
	maxXOffset := width - h.blockSize
	for y := 0; y < subHeight; y++ {
		yoffset := y * h.blockSize
		if yoffset > maxYOffset {
			yoffset = maxYOffset
		}
		top := clampToWindow(y, subHeight-1-radius, radius)
		for x := 0; x < subWidth; x++ {
			xoffset := x * h.blockSize
			if xoffset > maxXOffset {
				xoffset = maxXOffset
			}
			left := clampToWindow(x, subWidth-1-radius, radius)
			sum := 0
			for dy := -radius; dy <= radius; dy++ {
				blackRow := blackPoints[top+dy]
				for dx := -radius; dx <= radius; dx++ {
					sum += blackRow[left+dx]
				}
			}
			average := sum / (h.blockWindow * h.blockWindow)
			h.thresholdBlock(luminances, xoffset, yoffset, average, width, matrix)
		}
	}
}

// clampToWindow keeps value's window of ±radius inside [0, max+radius],
// mirroring cap3's behavior for the original fixed 5x5 window.
func clampToWindow(value, max, radius int) int {
	if value < radius {
		return radius
	}
	if value > max {
		return max
	}
	return value
}

func (h *Hybrid) thresholdBlock(luminances []byte, xoffset, yoffset, threshold, stride int, matrix *bitutil.BitMatrix) {
	for y, offset := 0, yoffset*stride+xoffset; y < h.blockSize; y, offset = y+1, offset+stride {
		for x := 0; x < h.blockSize; x++ {
			if int(luminances[offset+x]&0xFF) <= threshold {
				matrix.Set(xoffset+x, yoffset+y)
			}
		}
	}
}

func (h *Hybrid) calculateBlackPoints(luminances []byte, subWidth, subHeight, width, height int) [][]int {
	blockSize := h.blockSize
	maxYOffset := height - blockSize
	maxXOffset := width - blockSize
	blackPoints := make([][]int, subHeight)
	for i := range blackPoints {
		blackPoints[i] = make([]int, subWidth)
	}

	for y := 0; y < subHeight; y++ {
		yoffset := y * blockSize
		if yoffset > maxYOffset {
			yoffset = maxYOffset
		}
		for x := 0; x < subWidth; x++ {
			xoffset := x * blockSize
			if xoffset > maxXOffset {
				xoffset = maxXOffset
			}
			sum := 0
			mn := 0xFF
			mx := 0
			for yy, offset := 0, yoffset*width+xoffset; yy < blockSize; yy, offset = yy+1, offset+width {
				for xx := 0; xx < blockSize; xx++ {
					pixel := int(luminances[offset+xx] & 0xFF)
					sum += pixel
					if pixel < mn {
						mn = pixel
					}
					if pixel > mx {
						mx = pixel
					}
				}
				if mx-mn > minDynamicRange {
					for yy, offset = yy+1, offset+width; yy < blockSize; yy, offset = yy+1, offset+width {
						for xx := 0; xx < blockSize; xx++ {
							sum += int(luminances[offset+xx] & 0xFF)
						}
					}
				}
			}

			average := sum / (blockSize * blockSize)
			if mx-mn <= minDynamicRange {
				average = mn / 2
				if y > 0 && x > 0 {
					averageNeighborBlackPoint :=
						(blackPoints[y-1][x] + 2*blackPoints[y][x-1] + blackPoints[y-1][x-1]) / 4
					if mn < averageNeighborBlackPoint {
						average = averageNeighborBlackPoint
					}
				}
			}
			blackPoints[y][x] = average
		}
	}
	return blackPoints
}
