// Package pipeline runs the Decode stage concurrently across the symbols a
// multi-symbol Detect pass has already located and extracted.
package pipeline

import (
	"sort"
	"sync"

	"github.com/qrscan/qrscan"
	"github.com/qrscan/qrscan/internal"
	"github.com/qrscan/qrscan/qrcode/decoder"
	"golang.org/x/sync/errgroup"
)

// Decoded is one symbol's decode outcome together with the Points the
// Detect stage located it at.
type Decoded struct {
	Result *internal.DecoderResult
	Points []internal.ResultPoint
}

// decoded is the internal, position-annotated form used for sorting.
type decoded struct {
	x, y float64
	out  Decoded
}

// DecodeAll decodes every already-detected symbol concurrently and returns
// the results ordered by the top-left finder pattern's position (y, then x),
// whatever order the decodes finish in. A symbol that fails outright
// (no result at all) is dropped; a non-strict-mode unsupported-mode/parse
// failure still yields a prefix result and is kept, exactly as
// Reader.Decode keeps it for the single-symbol path.
func DecodeAll(detectorResults []*internal.DetectorResult, characterSet string, strictMode bool) ([]Decoded, error) {
	outcomes := make([]decoded, len(detectorResults))
	var mu sync.Mutex

	var g errgroup.Group
	for i, dr := range detectorResults {
		i, dr := i, dr
		g.Go(func() error {
			dec := decoder.NewDecoder()
			dec.StrictMode = strictMode
			result, _ := dec.Decode(dr.Bits, characterSet)

			// Detector points are bottom-left, top-left, top-right[,
			// alignment], so the top-left finder is Points[1].
			x, y := topLeft(dr.Points)
			if len(dr.Points) >= 3 {
				x, y = dr.Points[1].X, dr.Points[1].Y
			}

			mu.Lock()
			outcomes[i] = decoded{x: x, y: y, out: Decoded{Result: result, Points: dr.Points}}
			mu.Unlock()
			return nil
		})
	}
	// Errors from individual decodes are per-symbol and non-fatal; g.Wait
	// only ever returns nil here since decode failures are captured in
	// outcomes, not propagated.
	_ = g.Wait()

	var ok []decoded
	for _, o := range outcomes {
		if o.out.Result != nil {
			ok = append(ok, o)
		}
	}
	if len(ok) == 0 {
		return nil, qrscan.ErrNotFound
	}

	sort.Slice(ok, func(i, j int) bool {
		if ok[i].y != ok[j].y {
			return ok[i].y < ok[j].y
		}
		return ok[i].x < ok[j].x
	})

	results := make([]Decoded, len(ok))
	for i, o := range ok {
		results[i] = o.out
	}
	return results, nil
}

func topLeft(points []internal.ResultPoint) (x, y float64) {
	if len(points) == 0 {
		return 0, 0
	}
	x, y = points[0].X, points[0].Y
	for _, p := range points[1:] {
		if p.Y < y || (p.Y == y && p.X < x) {
			x, y = p.X, p.Y
		}
	}
	return x, y
}
