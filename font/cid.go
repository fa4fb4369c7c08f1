package font

import (
	"github.com/tsawler/folio/core"
)

// widthRange is one entry of a CIDFont /W array: either a single width
// for StartCID..EndCID or individual widths starting at StartCID.
type widthRange struct {
	StartCID int
	EndCID   int
	Width    float64
	Widths   []float64
}

// verticalRange is one entry of a /W2 array.
type verticalRange struct {
	StartCID int
	EndCID   int
	W1Y      float64
	Metrics  []float64 // w1y values for the individual form
}

// parseWidths reads /W. Format: c [w1 w2 ... wn] or cfirst clast w.
func parseWidths(arr core.Array, r Resolver) []widthRange {
	var out []widthRange
	for i := 0; i+1 < len(arr); {
		start := int(number(arr[i], r))
		if widths := resolveArray(arr[i+1], r); widths != nil {
			ws := make([]float64, len(widths))
			for j, w := range widths {
				ws[j] = number(w, r)
			}
			out = append(out, widthRange{StartCID: start, EndCID: start + len(ws) - 1, Widths: ws})
			i += 2
			continue
		}
		if i+2 >= len(arr) {
			break
		}
		out = append(out, widthRange{
			StartCID: start,
			EndCID:   int(number(arr[i+1], r)),
			Width:    number(arr[i+2], r),
		})
		i += 3
	}
	return out
}

// parseVerticalMetrics reads /W2. Format: c [w1y vx vy ...] or
// cfirst clast w1y vx vy. Only the vertical displacement is kept.
func parseVerticalMetrics(arr core.Array, r Resolver) []verticalRange {
	var out []verticalRange
	for i := 0; i+1 < len(arr); {
		start := int(number(arr[i], r))
		if metrics := resolveArray(arr[i+1], r); metrics != nil {
			var ws []float64
			for j := 0; j+2 < len(metrics); j += 3 {
				ws = append(ws, number(metrics[j], r))
			}
			out = append(out, verticalRange{StartCID: start, EndCID: start + len(ws) - 1, Metrics: ws})
			i += 2
			continue
		}
		if i+4 >= len(arr) {
			break
		}
		out = append(out, verticalRange{
			StartCID: start,
			EndCID:   int(number(arr[i+1], r)),
			W1Y:      number(arr[i+2], r),
		})
		i += 5
	}
	return out
}

// cidWidth returns the horizontal width of cid in glyph units.
func (f *Font) cidWidth(cid int) float64 {
	for _, wr := range f.w {
		if cid < wr.StartCID || cid > wr.EndCID {
			continue
		}
		if wr.Widths != nil {
			return wr.Widths[cid-wr.StartCID]
		}
		return wr.Width
	}
	return f.dw
}

// cidVertical returns the vertical displacement of cid in glyph units.
func (f *Font) cidVertical(cid int) float64 {
	for _, vr := range f.w2 {
		if cid < vr.StartCID || cid > vr.EndCID {
			continue
		}
		if vr.Metrics != nil {
			return vr.Metrics[cid-vr.StartCID]
		}
		return vr.W1Y
	}
	return f.dw2
}

// parseCIDToGID reads a /CIDToGIDMap stream: big-endian glyph ids
// indexed by CID.
func parseCIDToGID(data []byte) []uint16 {
	gids := make([]uint16, len(data)/2)
	for i := range gids {
		gids[i] = uint16(data[2*i])<<8 | uint16(data[2*i+1])
	}
	return gids
}

// gid maps a CID to a glyph index of the embedded program.
func (f *Font) gid(cid int) int {
	if f.cidToGID == nil {
		return cid
	}
	if cid >= 0 && cid < len(f.cidToGID) {
		return int(f.cidToGID[cid])
	}
	return 0
}
