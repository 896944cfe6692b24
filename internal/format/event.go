package format

// EventVariant tags how a quantised event's payload was laid out. The set is
// closed; downstream logic dispatches on the tag explicitly.
type EventVariant int

const (
	VariantInline EventVariant = iota
	VariantInlineSingle
	VariantHybridTail
	VariantPointerTail
	VariantPointer21
)

func (v EventVariant) String() string {
	switch v {
	case VariantInlineSingle:
		return "inline-single"
	case VariantHybridTail:
		return "hybrid-tail"
	case VariantPointerTail:
		return "pointer-tail"
	case VariantPointer21:
		return "pointer-21"
	default:
		return "inline"
	}
}

// NoteDetail is one decoded note inside an event. Step/Beat are 1-based grid
// positions, 0 when undetermined.
type NoteDetail struct {
	Note     uint8
	Velocity uint8
	Gate     int
	HasGate  bool
	Step     int
	Beat     int
}

// QuantisedEvent is one decoded trigger-group record (type 0x25 or 0x2D).
type QuantisedEvent struct {
	Offset      int
	Type        uint8
	Count       int
	CoarseRaw   uint32 // raw LE read of the ambiguous 32-bit coarse field
	FineTicks   uint16
	HasFine     bool
	Step        int // 1-based, 0 when undetermined
	Beat        int
	Variant     EventVariant
	Notes       []NoteDetail
	TailRaw     []byte
	TailEntries []TailEntry
}

// MetaEvent is one decoded live trigger record (type 0x21).
type MetaEvent struct {
	Offset      int
	Variant     uint8 // 0x00 (pointer-21) or 0x01 (meta)
	StartTicks  uint32
	GateTicks   uint32
	Step        int
	Beat        int
	Micro       float64 // micro-timing offset in fractions of a step
	Aux1        uint32
	Aux2        uint32
	Note        int // recovered MIDI note, -1 when none
	TailEntries []TailEntry
}

// beatForStep derives the 1-based beat for a 1-based step; 0 when undefined.
func beatForStep(step int) int {
	if step < 1 {
		return 0
	}
	return (step-1)/4 + 1
}

// resolveStep disambiguates the tick fields into a 1-based step index.
//
// The fine field wins when exactly one record is present and it is an exact
// multiple of the step-tick constant. Otherwise the 32-bit coarse field is
// ambiguous between big-endian and little-endian storage: the big-endian
// reading is used when it is a multiple of 0x600 (characteristic of the step
// encoding), falling back to the little-endian magnitude bounded by the
// pattern length. An interpretation exceeding the pattern length leaves the
// step undetermined rather than wrapped or clamped.
func resolveStep(coarseLE uint32, fine uint16, count, steps int) (step int, usedFine bool) {
	if count == 1 && fine%ticksPerStep == 0 {
		s := int(fine)/ticksPerStep + 1
		if steps <= 0 || s <= steps {
			return s, true
		}
	}
	be := bswap32(coarseLE)
	if be%coarseBEModulus == 0 {
		s := int(be/coarseBEModulus) + 1
		if steps > 0 && s <= steps {
			return s, false
		}
	}
	if steps > 0 && coarseLE <= uint32(steps)*ticksPerStep {
		s := int(coarseLE)/ticksPerStep + 1
		if s <= steps {
			return s, false
		}
	}
	return 0, false
}

// DecodeQuantisedEvents scans a block's byte range for type-0x25/0x2D trigger
// groups. blockEnd is the nominal end (the next block's offset or the buffer
// end); steps is the block's declared pattern length; handleInUse marks
// whether the owning track's directory handle is in use, which rescues
// events whose payload alone is inconclusive.
func DecodeQuantisedEvents(buf []byte, block Block, blockEnd, steps int, handleInUse bool) []QuantisedEvent {
	var events []QuantisedEvent
	for o := block.Offset + blockSigSpan; o < blockEnd && o < len(buf); o++ {
		t := buf[o]
		if t != evtQuantA && t != evtQuantB {
			continue
		}
		evt, next, ok := decodeQuantAt(buf, block, o, blockEnd, steps, handleInUse)
		if !ok {
			continue
		}
		events = append(events, evt)
		o = next - 1
	}
	return events
}

// decodeQuantAt decodes one quantised event at offset o. It returns the
// offset scanning should resume at (the end of the fixed record region, so
// events embedded in a long tail are still found) and ok == false for
// structural rejections.
func decodeQuantAt(buf []byte, block Block, o, blockEnd, steps int, handleInUse bool) (QuantisedEvent, int, bool) {
	if o+quantHeaderLen > len(buf) {
		return QuantisedEvent{}, 0, false
	}
	count := int(buf[o+1])
	// A zero record count marks an incidental byte match, not an event.
	if count == 0 {
		return QuantisedEvent{}, 0, false
	}
	fine, _ := u16le(buf, o+2)
	recStart := o + quantHeaderLen
	recEnd := recStart + count*quantRecordLen
	if recEnd > len(buf) {
		return QuantisedEvent{}, 0, false
	}

	evt := QuantisedEvent{
		Offset:    o,
		Type:      buf[o],
		Count:     count,
		FineTicks: fine,
	}
	evt.CoarseRaw, _ = u32le(buf, recStart)

	// Tail data may legitimately spill past the nominal block end; the real
	// boundary is the next valid block-start signature within a bounded
	// look-ahead window.
	tailEnd := blockEnd
	if next := nextBlockStart(buf, recEnd, blockEnd+tailLookahead); next >= 0 {
		tailEnd = next
	}
	if tailEnd > len(buf) {
		tailEnd = len(buf)
	}
	// Trailing zero words are block padding, not tail data.
	for tailEnd-2 >= recEnd && buf[tailEnd-1] == 0 && buf[tailEnd-2] == 0 {
		tailEnd -= 2
	}
	if tailEnd > recEnd {
		evt.TailRaw = buf[recEnd:tailEnd]
		evt.TailEntries = ResolveTail(tailWords(evt.TailRaw), block.Offset, len(buf))
	}

	evt.Step, evt.HasFine = resolveStep(evt.CoarseRaw, fine, count, steps)
	evt.Beat = beatForStep(evt.Step)

	for i := 0; i < count; i++ {
		rec := buf[recStart+i*quantRecordLen : recStart+(i+1)*quantRecordLen]
		if best, ok := selectCandidate(enumerateCandidates(rec)); ok {
			evt.Notes = append(evt.Notes, NoteDetail{
				Note:     best.Note,
				Velocity: best.Velocity,
				Step:     evt.Step,
				Beat:     evt.Beat,
			})
		}
	}

	// Backfill missing notes from note-bearing tail entries, skipping notes
	// the fixed records already recovered.
	if len(evt.Notes) < count {
		seen := make(map[uint8]bool, len(evt.Notes))
		for _, n := range evt.Notes {
			seen[n.Note] = true
		}
		for _, te := range evt.TailEntries {
			if len(evt.Notes) >= count {
				break
			}
			if te.Kind != TailNote || seen[te.Note] {
				continue
			}
			seen[te.Note] = true
			evt.Notes = append(evt.Notes, NoteDetail{
				Note:     te.Note,
				Velocity: te.Velocity,
				Step:     evt.Step,
				Beat:     evt.Beat,
			})
		}
	}

	switch {
	case evt.HasFine:
		evt.Variant = VariantInlineSingle
	case count > 1 && len(evt.TailRaw) > 0:
		evt.Variant = VariantHybridTail
	case len(evt.TailRaw) > 0:
		evt.Variant = VariantPointerTail
	default:
		evt.Variant = VariantInline
	}

	// Plausibility gate against incidental type-byte matches inside
	// unrelated binary data.
	if len(evt.Notes) == 0 && PointerCount(evt.TailEntries) == 0 && !handleInUse {
		return QuantisedEvent{}, 0, false
	}
	return evt, recEnd, true
}

// Backward search windows for pointer-21 records, expanding up to 0xC0 bytes.
var pointer21Windows = []int{0x20, 0x40, 0x80, 0xC0}

// DecodeLiveEvents scans a block's byte range for type-0x21 records: fixed
// 18-byte records whose second byte is 0x00 (pointer-21) or 0x01 (meta).
func DecodeLiveEvents(buf []byte, block Block, blockEnd, steps int) []MetaEvent {
	var events []MetaEvent
	for o := block.Offset + blockSigSpan; o+liveRecordLen <= blockEnd && o+liveRecordLen <= len(buf); o++ {
		if buf[o] != evtLive {
			continue
		}
		variant := buf[o+1]
		switch variant {
		case 0x01:
			events = append(events, decodeMetaAt(buf, o, steps))
			o += liveRecordLen - 1
		case 0x00:
			evt, ok := decodePointer21At(buf, block, o)
			if !ok {
				continue
			}
			events = append(events, evt)
			o += liveRecordLen - 1
		}
	}
	return events
}

// decodeMetaAt decodes a variant-0x01 ("meta") live trigger.
func decodeMetaAt(buf []byte, o, steps int) MetaEvent {
	evt := MetaEvent{Offset: o, Variant: 0x01, Note: -1}
	evt.StartTicks, _ = u32le(buf, o+2)
	gateRaw, _ := u32le(buf, o+6)
	evt.GateTicks = gateRaw >> 8 // bits 8..31
	evt.Aux1, _ = u32le(buf, o+10)
	evt.Aux2, _ = u32le(buf, o+14)

	// A note is embedded only when the low word of the second auxiliary
	// field falls in the fixed base+offset band mapping to MIDI 0..127.
	if w := uint16(evt.Aux2); w >= liveNoteBandBase && w <= liveNoteBandBase+127 {
		evt.Note = int(w - liveNoteBandBase)
	}

	nearest := int((evt.StartTicks + ticksPerStep/2) / ticksPerStep)
	step := nearest + 1
	if steps <= 0 || step > steps {
		evt.Step = 0
	} else {
		evt.Step = step
		evt.Beat = beatForStep(step)
	}
	evt.Micro = (float64(evt.StartTicks) - float64(nearest)*ticksPerStep) / ticksPerStep
	return evt
}

// decodePointer21At decodes a variant-0x00 record. These carry no embedded
// note; the associated payload is the nearest prior run of non-empty tail
// words, searched in expanding windows behind the record. A record whose
// windows all come up empty is not decodable and is skipped.
//
// Known gap: pointer-21 events never yield a recovered note or gate even when
// tail entries are present. That outcome is correct pending further captures.
func decodePointer21At(buf []byte, block Block, o int) (MetaEvent, bool) {
	evt := MetaEvent{Offset: o, Variant: 0x00, Note: -1}
	for _, size := range pointer21Windows {
		start := o - size
		if start < block.Offset {
			start = block.Offset
		}
		run := priorWordRun(buf, start, o)
		if len(run) == 0 {
			continue
		}
		entries := ResolveTail(run, block.Offset, len(buf))
		if len(entries) == 0 {
			continue
		}
		evt.TailEntries = entries
		return evt, true
	}
	return MetaEvent{}, false
}

// priorWordRun returns the contiguous run of non-zero LE16 words nearest to
// end, reading word-aligned strides backward from end down to start.
func priorWordRun(buf []byte, start, end int) []uint16 {
	// Skip trailing zero words.
	i := end
	for i-2 >= start {
		w, ok := u16le(buf, i-2)
		if !ok || w != 0 {
			break
		}
		i -= 2
	}
	// Collect the non-zero run.
	j := i
	for j-2 >= start {
		w, ok := u16le(buf, j-2)
		if !ok || w == 0 {
			break
		}
		j -= 2
	}
	if j == i {
		return nil
	}
	return tailWords(buf[j:i])
}
