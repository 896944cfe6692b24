package corpus

import (
	"fmt"
	"strconv"
)

// FieldDiff is one per-track field that differs between two captures.
type FieldDiff struct {
	Field string
	A, B  string
}

// TrackDiff collects the differing fields of one track index. A track present
// in only one capture reports a single "present" diff.
type TrackDiff struct {
	TrackIndex int
	Diffs      []FieldDiff
}

// CompareResult is the track-by-track diff of two indexed captures.
type CompareResult struct {
	A, B   Capture
	Tracks []TrackDiff
}

// Identical reports whether no track differed.
func (r *CompareResult) Identical() bool {
	return len(r.Tracks) == 0
}

// Compare diffs two captures by id or label. Only decode-level fields are
// compared; byte-level differences below the decoder's resolution do not
// show up here.
func (s *Store) Compare(refA, refB string) (*CompareResult, error) {
	if s == nil || s.DB == nil {
		return nil, ErrStoreClosed
	}
	a, err := s.GetCapture(refA)
	if err != nil {
		return nil, err
	}
	b, err := s.GetCapture(refB)
	if err != nil {
		return nil, err
	}

	rowsA, err := s.TracksFor(a.ID)
	if err != nil {
		return nil, err
	}
	rowsB, err := s.TracksFor(b.ID)
	if err != nil {
		return nil, err
	}

	byIndexA := make(map[int]TrackRow, len(rowsA))
	for _, r := range rowsA {
		byIndexA[r.TrackIndex] = r
	}
	byIndexB := make(map[int]TrackRow, len(rowsB))
	for _, r := range rowsB {
		byIndexB[r.TrackIndex] = r
	}

	maxIndex := 0
	for i := range byIndexA {
		if i > maxIndex {
			maxIndex = i
		}
	}
	for i := range byIndexB {
		if i > maxIndex {
			maxIndex = i
		}
	}

	result := &CompareResult{A: *a, B: *b}
	for i := 1; i <= maxIndex; i++ {
		ra, okA := byIndexA[i]
		rb, okB := byIndexB[i]
		switch {
		case okA && !okB:
			result.Tracks = append(result.Tracks, TrackDiff{
				TrackIndex: i,
				Diffs:      []FieldDiff{{Field: "present", A: "yes", B: "no"}},
			})
		case !okA && okB:
			result.Tracks = append(result.Tracks, TrackDiff{
				TrackIndex: i,
				Diffs:      []FieldDiff{{Field: "present", A: "no", B: "yes"}},
			})
		case okA && okB:
			if diffs := diffTrack(ra, rb); len(diffs) > 0 {
				result.Tracks = append(result.Tracks, TrackDiff{TrackIndex: i, Diffs: diffs})
			}
		}
	}
	return result, nil
}

func diffTrack(a, b TrackRow) []FieldDiff {
	var diffs []FieldDiff
	addInt := func(field string, va, vb int) {
		if va != vb {
			diffs = append(diffs, FieldDiff{Field: field, A: strconv.Itoa(va), B: strconv.Itoa(vb)})
		}
	}
	addStr := func(field, va, vb string) {
		if va != vb {
			diffs = append(diffs, FieldDiff{Field: field, A: va, B: vb})
		}
	}
	addInt("engine", a.EngineID, b.EngineID)
	addInt("scale", a.Scale, b.Scale)
	addInt("pattern_length", a.PatternLength, b.PatternLength)
	addStr("filter", a.Filter, b.Filter)
	addStr("mod", a.Mod, b.Mod)
	addInt("quant_events", a.QuantEvents, b.QuantEvents)
	addInt("live_events", a.LiveEvents, b.LiveEvents)
	if a.BlockOffset != b.BlockOffset {
		diffs = append(diffs, FieldDiff{
			Field: "block_offset",
			A:     fmt.Sprintf("0x%X", a.BlockOffset),
			B:     fmt.Sprintf("0x%X", b.BlockOffset),
		})
	}
	return diffs
}
