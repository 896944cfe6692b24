package format

// Note extraction from a 10-byte quantised record is not uniquely invertible
// from a single byte offset across firmware versions, so the decoder
// enumerates every structurally valid (note, velocity) interpretation, scores
// each against a fixed rubric, and keeps the best. The pipeline is explicit
// so the rubric stays auditable and testable in isolation.

// noteCandidate is one (note, velocity) interpretation of a record.
type noteCandidate struct {
	Note     uint8
	Velocity uint8
	Source   string
	Swapped  bool
	Score    int
}

// Record sub-offsets probed for (note, velocity) byte pairs, in probe order.
var recordProbes = []struct {
	off    int
	source string
}{
	{4, "head"},
	{6, "mid"},
	{8, "voice_tail"},
}

// candidateValid applies the structural gate: note in MIDI range and at or
// above 0x18 (lower values never appear as real triggers in the corpus),
// velocity in MIDI range.
func candidateValid(note, vel uint8) bool {
	return note >= 0x18 && note <= 127 && vel <= 127
}

// scoreCandidate applies the fixed rubric: prefer notes in the plausible
// musical range, prefer the voice_tail source, penalize near-zero velocity
// and implausibly low notes.
func scoreCandidate(c noteCandidate) int {
	score := 0
	if c.Note >= 0x24 && c.Note <= 0x54 {
		score += 3
	}
	if c.Source == "voice_tail" {
		score += 2
	}
	if c.Velocity <= 1 {
		score -= 2
	}
	if c.Note < 0x0C {
		score -= 2
	}
	return score
}

// enumerateCandidates generates every valid interpretation of one 10-byte
// record: each probe offset read as (note, velocity) plus the byte-swapped
// reading of the same pair.
func enumerateCandidates(rec []byte) []noteCandidate {
	var out []noteCandidate
	for _, probe := range recordProbes {
		if probe.off+2 > len(rec) {
			continue
		}
		a, b := rec[probe.off], rec[probe.off+1]
		if candidateValid(a, b) {
			out = append(out, noteCandidate{Note: a, Velocity: b, Source: probe.source})
		}
		if candidateValid(b, a) {
			out = append(out, noteCandidate{Note: b, Velocity: a, Source: probe.source, Swapped: true})
		}
	}
	for i := range out {
		out[i].Score = scoreCandidate(out[i])
	}
	return out
}

// selectCandidate picks the highest-scoring candidate, breaking ties in probe
// order (unswapped before swapped). It returns false when the record yields
// no valid interpretation at all.
func selectCandidate(cands []noteCandidate) (noteCandidate, bool) {
	if len(cands) == 0 {
		return noteCandidate{}, false
	}
	best := cands[0]
	for _, c := range cands[1:] {
		if c.Score > best.Score {
			best = c
		}
	}
	return best, true
}
