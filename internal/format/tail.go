package format

// TailEntryKind tags the two tail entry variants. The set is closed; all
// downstream logic dispatches on the tag explicitly.
type TailEntryKind int

const (
	// TailNote is an entry that recovered a valid note/velocity word.
	TailNote TailEntryKind = iota
	// TailPointer is an entry with no valid note; only pointer-like words.
	TailPointer
)

// TailEntry is one segmented record from an event's tail region.
type TailEntry struct {
	Kind     TailEntryKind
	Note     uint8 // valid only for TailNote
	Velocity uint8 // valid only for TailNote
	Flag     uint16
	HasFlag  bool
	Pointers []PointerInfo
	Raw      []uint16 // the words this entry consumed, in order
}

// PointerInfo is one resolved pointer-like word pair. Target and Derived are
// absolute byte offsets into the project buffer, or -1 when the candidate
// fell outside the buffer. Out-of-range candidates are reported absent, never
// clamped.
type PointerInfo struct {
	RawLo     uint16
	RawHi     uint16
	HasHi     bool
	SwappedLo uint16
	SwappedHi uint16
	Target    int
	Derived   int
}

// isNoteWord reports whether a tail word plausibly encodes (note, velocity):
// low byte in [0,127], high byte in (0,127]. A zero high byte would be a
// zero-velocity trigger, which the device never records.
func isNoteWord(w uint16) bool {
	return w&0x80 == 0 && w>>8 > 0 && w>>8 <= 127
}

// resolvePointer converts a word pair (or a lone word) into candidate
// absolute offsets. The words are stored byte-swapped; the swapped high word
// addresses a block-relative target, refined by the swapped low word as a
// delta.
func resolvePointer(blockStart, bufLen int, lo uint16, hi uint16, hasHi bool) PointerInfo {
	info := PointerInfo{
		RawLo:     lo,
		RawHi:     hi,
		HasHi:     hasHi,
		SwappedLo: bswap16(lo),
		SwappedHi: bswap16(hi),
		Target:    -1,
		Derived:   -1,
	}
	inBuf := func(off int) bool { return off >= 0 && off < bufLen }
	if hasHi {
		if info.SwappedHi == 0 {
			return info
		}
		target := blockStart + int(info.SwappedHi)
		if inBuf(target) {
			info.Target = target
			if derived := target + int(info.SwappedLo); inBuf(derived) {
				info.Derived = derived
			}
		}
		return info
	}
	if target := blockStart + int(info.SwappedLo); inBuf(target) {
		info.Target = target
	}
	return info
}

// ResolveTail partitions an ordered word sequence into tail entries.
//
// The segmentation rule is the format's only available signal and is
// intentionally conservative: a note word starts a note-bearing entry that
// consumes itself, one flag word, and then word pairs as pointer data only
// while the pair does not look like two consecutive note words (which marks
// the start of the next entry). A non-note word starts a pointer-only entry
// of one or two words depending on whether the following word is a note word.
// Stopping pointer consumption at the first ambiguity avoids silently
// absorbing the next logical entry.
func ResolveTail(words []uint16, blockStart, bufLen int) []TailEntry {
	var entries []TailEntry
	for i := 0; i < len(words); {
		if isNoteWord(words[i]) {
			entry := TailEntry{
				Kind:     TailNote,
				Note:     uint8(words[i] & 0x7F),
				Velocity: uint8(words[i] >> 8),
				Raw:      []uint16{words[i]},
			}
			i++
			if i < len(words) {
				entry.Flag = words[i]
				entry.HasFlag = true
				entry.Raw = append(entry.Raw, words[i])
				i++
			}
			for i+1 < len(words) {
				if isNoteWord(words[i]) && isNoteWord(words[i+1]) {
					break
				}
				entry.Pointers = append(entry.Pointers,
					resolvePointer(blockStart, bufLen, words[i], words[i+1], true))
				entry.Raw = append(entry.Raw, words[i], words[i+1])
				i += 2
			}
			entries = append(entries, entry)
			continue
		}

		entry := TailEntry{Kind: TailPointer, Raw: []uint16{words[i]}}
		if i+1 < len(words) && !isNoteWord(words[i+1]) {
			entry.Pointers = append(entry.Pointers,
				resolvePointer(blockStart, bufLen, words[i], words[i+1], true))
			entry.Raw = append(entry.Raw, words[i+1])
			i += 2
		} else {
			entry.Pointers = append(entry.Pointers,
				resolvePointer(blockStart, bufLen, words[i], 0, false))
			i++
		}
		entries = append(entries, entry)
	}
	return entries
}

// tailWords reads the LE16 words of a raw tail byte region. A trailing odd
// byte is ignored; tail regions are word-granular.
func tailWords(raw []byte) []uint16 {
	words := make([]uint16, 0, len(raw)/2)
	for i := 0; i+2 <= len(raw); i += 2 {
		w, _ := u16le(raw, i)
		words = append(words, w)
	}
	return words
}

// PointerCount counts resolved pointer references (Target present) across a
// set of tail entries.
func PointerCount(entries []TailEntry) int {
	n := 0
	for _, e := range entries {
		for _, p := range e.Pointers {
			if p.Target >= 0 {
				n++
			}
		}
	}
	return n
}
