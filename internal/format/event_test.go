package format

import "testing"

// decodeSingleBlock is a helper running the quantised decoder over a
// fixture's block i with the nominal end at the next block (or buffer end).
func decodeSingleBlock(t *testing.T, f *projectFixture, i int, inUse bool) []QuantisedEvent {
	t.Helper()
	blocks := FindBlocks(f.buf)
	if i >= len(blocks) {
		t.Fatalf("fixture has %d blocks, wanted %d", len(blocks), i+1)
	}
	end := len(f.buf)
	if i+1 < len(blocks) {
		end = blocks[i+1].Offset
	}
	return DecodeQuantisedEvents(f.buf, blocks[i], end, fixPatternLen, inUse)
}

func TestDecodeQuantInlineSingle(t *testing.T) {
	f := newProjectFixture(t, 1)
	// Step 9 (1-based): fine ticks 8*480.
	f.putQuantEvent(0, 0x40, evtQuantA, 8*ticksPerStep, quantRecord(0, 0x3C, 0x64))

	events := decodeSingleBlock(t, f, 0, true)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	e := events[0]
	if e.Type != evtQuantA || e.Count != 1 {
		t.Errorf("type/count = 0x%X/%d", e.Type, e.Count)
	}
	if e.Variant != VariantInlineSingle {
		t.Errorf("variant = %v, want inline-single", e.Variant)
	}
	if e.Step != 9 || e.Beat != 3 {
		t.Errorf("step/beat = %d/%d, want 9/3", e.Step, e.Beat)
	}
	if len(e.Notes) != 1 || e.Notes[0].Note != 0x3C || e.Notes[0].Velocity != 0x64 {
		t.Errorf("notes = %+v", e.Notes)
	}
}

func TestDecodeQuantRejectsZeroCount(t *testing.T) {
	f := newProjectFixture(t, 1)
	// Bare event-type byte with count 0: an incidental match, not an event.
	o := f.blockOffset(0) + blockSigSpan + 0x40
	f.buf[o] = evtQuantA

	if events := decodeSingleBlock(t, f, 0, true); len(events) != 0 {
		t.Fatalf("zero-count match decoded: %+v", events)
	}
}

func TestDecodeQuantCoarseBigEndian(t *testing.T) {
	f := newProjectFixture(t, 1)
	// Coarse field stored big-endian: BE value 4*0x600 -> step 5. Two
	// records so the fine path is not taken.
	coarseLE := bswap32(uint32(4 * coarseBEModulus))
	f.putQuantEvent(0, 0x40, evtQuantB, 0,
		quantRecord(coarseLE, 0x3C, 0x64),
		quantRecord(0, 0x40, 0x50))

	events := decodeSingleBlock(t, f, 0, true)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	e := events[0]
	if e.HasFine {
		t.Error("fine path taken for count=2")
	}
	if e.Step != 5 || e.Beat != 2 {
		t.Errorf("step/beat = %d/%d, want 5/2", e.Step, e.Beat)
	}
	if len(e.Notes) != 2 {
		t.Errorf("notes = %+v", e.Notes)
	}
}

func TestDecodeQuantCoarseLittleEndianFallback(t *testing.T) {
	f := newProjectFixture(t, 1)
	// LE magnitude 6*480 within the pattern bound; the big-endian reading
	// of the same bytes lands far outside the pattern, so the decoder must
	// fall back to the little-endian interpretation.
	coarse := uint32(6 * ticksPerStep)
	f.putQuantEvent(0, 0x40, evtQuantA, 1, // fine not a 480 multiple
		quantRecord(coarse, 0x3C, 0x64))

	events := decodeSingleBlock(t, f, 0, true)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if got := events[0].Step; got != 7 {
		t.Errorf("step = %d, want 7", got)
	}
}

func TestDecodeQuantStepOutOfRangeFailsClosed(t *testing.T) {
	f := newProjectFixture(t, 1)
	// Both interpretations exceed the 16-step pattern: the step must stay
	// undetermined, never wrapped or clamped.
	coarse := uint32(40 * ticksPerStep)
	f.putQuantEvent(0, 0x40, evtQuantA, 1, quantRecord(coarse, 0x3C, 0x64))

	events := decodeSingleBlock(t, f, 0, true)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Step != 0 || events[0].Beat != 0 {
		t.Errorf("step/beat = %d/%d, want undetermined", events[0].Step, events[0].Beat)
	}
}

func TestDecodeQuantHybridTail(t *testing.T) {
	f := newProjectFixture(t, 1)
	o := f.putQuantEvent(0, 0x40, evtQuantA, 0,
		quantRecord(0, 0x3C, 0x64),
		quantRecord(0, 0, 0)) // second record undecodable inline
	// Tail right after the records: note word for backfill plus a pointer
	// pair that resolves inside the buffer.
	recEnd := o + quantHeaderLen + 2*quantRecordLen
	rel := recEnd - f.blockOffset(0) - blockSigSpan
	f.putWords(0, rel, 0x5040, 0x0001, 0x1000, 0x0002)

	events := decodeSingleBlock(t, f, 0, true)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	e := events[0]
	if e.Variant != VariantHybridTail {
		t.Fatalf("variant = %v, want hybrid-tail", e.Variant)
	}
	if len(e.Notes) != 2 {
		t.Fatalf("notes = %+v, want backfilled second note", e.Notes)
	}
	if e.Notes[1].Note != 0x40 || e.Notes[1].Velocity != 0x50 {
		t.Errorf("backfilled note = %+v", e.Notes[1])
	}
	if PointerCount(e.TailEntries) == 0 {
		t.Error("hybrid-tail event resolved no pointer reference")
	}
}

func TestDecodeQuantBackfillSkipsKnownNotes(t *testing.T) {
	f := newProjectFixture(t, 1)
	o := f.putQuantEvent(0, 0x40, evtQuantA, 0,
		quantRecord(0, 0x3C, 0x64),
		quantRecord(0, 0, 0))
	recEnd := o + quantHeaderLen + 2*quantRecordLen
	rel := recEnd - f.blockOffset(0) - blockSigSpan
	// First tail note duplicates the inline note and must be skipped; the
	// consecutive note pair starts a second entry.
	f.putWords(0, rel, 0x643C, 0x0001, 0x5040, 0x5541)

	events := decodeSingleBlock(t, f, 0, true)
	e := events[0]
	if len(e.Notes) != 2 {
		t.Fatalf("notes = %+v", e.Notes)
	}
	if e.Notes[1].Note != 0x40 {
		t.Errorf("backfill picked %d, want 0x40", e.Notes[1].Note)
	}
}

func TestDecodeQuantPointerTailVariant(t *testing.T) {
	f := newProjectFixture(t, 1)
	o := f.putQuantEvent(0, 0x40, evtQuantA, 1, quantRecord(0, 0x3C, 0x64))
	recEnd := o + quantHeaderLen + quantRecordLen
	rel := recEnd - f.blockOffset(0) - blockSigSpan
	f.putWords(0, rel, 0x0010, 0x0002)

	events := decodeSingleBlock(t, f, 0, true)
	if events[0].Variant != VariantPointerTail {
		t.Fatalf("variant = %v, want pointer-tail", events[0].Variant)
	}
}

func TestDecodeQuantImplausibleDiscarded(t *testing.T) {
	f := newProjectFixture(t, 1)
	// No recoverable note, no pointers, handle not in use: an incidental
	// byte match that must be suppressed.
	f.putQuantEvent(0, 0x40, evtQuantA, 1, quantRecord(0, 0, 0))

	if events := decodeSingleBlock(t, f, 0, false); len(events) != 0 {
		t.Fatalf("implausible event kept: %+v", events)
	}
	// The same bytes with the handle in use are kept.
	if events := decodeSingleBlock(t, f, 0, true); len(events) != 1 {
		t.Fatalf("in-use handle did not rescue the event")
	}
}

func TestDecodeQuantTailStopsAtNextBlock(t *testing.T) {
	f := newProjectFixture(t, 2)
	// Event near the end of block 0: tail ends at block 1's signature, not
	// at the buffer end.
	rel := fixBlockStride - blockSigSpan - 0x30
	o := f.putQuantEvent(0, rel, evtQuantA, 1, quantRecord(0, 0x3C, 0x64))
	recEnd := o + quantHeaderLen + quantRecordLen
	f.putWords(0, rel+quantHeaderLen+quantRecordLen, 0x0010, 0x0002)

	events := decodeSingleBlock(t, f, 0, true)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	e := events[0]
	maxTail := f.blockOffset(1) - recEnd
	if len(e.TailRaw) > maxTail {
		t.Errorf("tail %d bytes crosses the next block boundary (max %d)", len(e.TailRaw), maxTail)
	}
}

func TestDecodeLiveMetaEvent(t *testing.T) {
	f := newProjectFixture(t, 1)
	o := f.blockOffset(0) + blockSigSpan + 0x60
	buf := f.buf
	buf[o] = evtLive
	buf[o+1] = 0x01
	putU32le(buf, o+2, 4*ticksPerStep+120) // just past step 5
	putU32le(buf, o+6, 960<<8)             // gate in bits 8..31
	putU32le(buf, o+10, 0xDEAD0001)
	putU32le(buf, o+14, 0x00010000|uint32(liveNoteBandBase+0x3C))

	blocks := FindBlocks(f.buf)
	events := DecodeLiveEvents(f.buf, blocks[0], len(f.buf), fixPatternLen)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	e := events[0]
	if e.Variant != 0x01 {
		t.Fatalf("variant = %d", e.Variant)
	}
	if e.StartTicks != 4*ticksPerStep+120 || e.GateTicks != 960 {
		t.Errorf("start/gate = %d/%d", e.StartTicks, e.GateTicks)
	}
	if e.Step != 5 || e.Beat != 2 {
		t.Errorf("step/beat = %d/%d, want 5/2", e.Step, e.Beat)
	}
	if want := 120.0 / ticksPerStep; e.Micro != want {
		t.Errorf("micro = %v, want %v", e.Micro, want)
	}
	if e.Note != 0x3C {
		t.Errorf("note = %d, want 60", e.Note)
	}
	if e.Aux1 != 0xDEAD0001 {
		t.Errorf("aux1 = 0x%X", e.Aux1)
	}
}

func TestDecodeLiveMetaNoteOutsideBand(t *testing.T) {
	f := newProjectFixture(t, 1)
	o := f.blockOffset(0) + blockSigSpan + 0x60
	f.buf[o] = evtLive
	f.buf[o+1] = 0x01
	putU32le(f.buf, o+14, 0x00001234) // below the note band

	events := DecodeLiveEvents(f.buf, FindBlocks(f.buf)[0], len(f.buf), fixPatternLen)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	if events[0].Note != -1 {
		t.Errorf("note = %d, want absent", events[0].Note)
	}
}

func TestDecodePointer21(t *testing.T) {
	f := newProjectFixture(t, 1)
	base := f.blockOffset(0) + blockSigSpan

	// A run of tail words, then zero padding, then the 0x21 record.
	f.putWords(0, 0x80, 0x0010, 0x0002, 0x1000, 0x0004)
	o := base + 0x80 + 8 + 0x10 // inside the first backward window
	f.buf[o] = evtLive
	f.buf[o+1] = 0x00

	events := DecodeLiveEvents(f.buf, FindBlocks(f.buf)[0], len(f.buf), fixPatternLen)
	if len(events) != 1 {
		t.Fatalf("events = %d, want 1", len(events))
	}
	e := events[0]
	if e.Variant != 0x00 {
		t.Fatalf("variant = %d, want pointer-21", e.Variant)
	}
	// Known gap in the format: tail entries present, note unresolved.
	if len(e.TailEntries) == 0 {
		t.Fatal("pointer-21 event has no tail entries")
	}
	if e.Note != -1 {
		t.Errorf("pointer-21 recovered a note: %d", e.Note)
	}
}

func TestDecodePointer21NoPriorRunSkipped(t *testing.T) {
	f := newProjectFixture(t, 1)
	o := f.blockOffset(0) + blockSigSpan + 0x400 // far from any non-zero words
	f.buf[o] = evtLive
	f.buf[o+1] = 0x00

	events := DecodeLiveEvents(f.buf, FindBlocks(f.buf)[0], len(f.buf), fixPatternLen)
	if len(events) != 0 {
		t.Fatalf("undecodable pointer-21 emitted: %+v", events)
	}
}

func TestBeatForStep(t *testing.T) {
	cases := []struct{ step, beat int }{
		{0, 0}, {1, 1}, {4, 1}, {5, 2}, {9, 3}, {16, 4},
	}
	for _, tc := range cases {
		if got := beatForStep(tc.step); got != tc.beat {
			t.Errorf("beatForStep(%d) = %d, want %d", tc.step, got, tc.beat)
		}
	}
}

func TestResolveStep(t *testing.T) {
	cases := []struct {
		name     string
		coarseLE uint32
		fine     uint16
		count    int
		steps    int
		step     int
		usedFine bool
	}{
		{"fine single", 0, 8 * ticksPerStep, 1, 16, 9, true},
		{"fine rejected multi", bswap32(2 * coarseBEModulus), 8 * ticksPerStep, 2, 16, 3, false},
		{"fine not multiple", uint32(2 * ticksPerStep), 7, 1, 16, 3, false},
		{"coarse be", bswap32(6 * coarseBEModulus), 1, 1, 16, 7, false},
		{"out of range", uint32(100 * ticksPerStep), 1, 1, 16, 0, false},
		{"zero steps fine ok", 0, 4 * ticksPerStep, 1, 0, 5, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			step, usedFine := resolveStep(tc.coarseLE, tc.fine, tc.count, tc.steps)
			if step != tc.step || usedFine != tc.usedFine {
				t.Errorf("resolveStep = (%d, %v), want (%d, %v)", step, usedFine, tc.step, tc.usedFine)
			}
		})
	}
}
