package format

import "testing"

func TestDecodeHeader(t *testing.T) {
	f := newProjectFixture(t, 2)

	h := DecodeHeader(f.buf)
	if !h.Ok {
		t.Fatal("header not decoded")
	}
	if h.TempoTenthsBPM != 1200 {
		t.Errorf("tempo = %d, want 1200", h.TempoTenthsBPM)
	}
	if got := h.BPM(); got != 120.0 {
		t.Errorf("BPM = %v, want 120.0", got)
	}
	if h.GrooveType != 2 || h.GrooveFlags != 1 {
		t.Errorf("groove = type %d flags %d, want 2/1", h.GrooveType, h.GrooveFlags)
	}
	if h.GrooveAmount != 30 {
		t.Errorf("groove amount = %d, want 30", h.GrooveAmount)
	}
	if h.Metronome != 64 {
		t.Errorf("metronome = %d, want 64", h.Metronome)
	}
	if len(h.EQ) != 3 {
		t.Fatalf("EQ entries = %d, want 3", len(h.EQ))
	}
	for i, eq := range h.EQ {
		if eq.Value != uint16(0x40+i) || eq.BandID != uint16(i+1) {
			t.Errorf("EQ[%d] = %+v", i, eq)
		}
	}
	if h.MaxSlot != uint16(fixSlotBase+2) {
		t.Errorf("max slot = %d, want %d", h.MaxSlot, fixSlotBase+2)
	}
}

func TestDecodeHeaderTruncated(t *testing.T) {
	h := DecodeHeader(make([]byte, 4))
	if h.Ok {
		t.Fatal("truncated header reported Ok")
	}

	// Long enough for tempo but not for all EQ entries.
	f := newProjectFixture(t, 1)
	h = DecodeHeader(f.buf[:eqTableOffset+6])
	if !h.Ok {
		t.Fatal("header with partial EQ should still decode")
	}
	if len(h.EQ) != 1 {
		t.Errorf("partial EQ entries = %d, want 1", len(h.EQ))
	}
}

func TestDecodeHandles(t *testing.T) {
	f := newProjectFixture(t, 3)

	handles := DecodeHandles(f.buf)
	if len(handles) != handleCount {
		t.Fatalf("handle count = %d, want %d", len(handles), handleCount)
	}
	for i := 0; i < 3; i++ {
		h := handles[i]
		if h.Track != i+1 {
			t.Errorf("handle %d track = %d", i, h.Track)
		}
		if h.Unused() {
			t.Errorf("handle %d reported unused", i)
		}
		if h.Slot != uint16(fixSlotBase+i) {
			t.Errorf("handle %d slot = %d, want %d", i, h.Slot, fixSlotBase+i)
		}
		if want := (fixSlotBase + i) * slotDescBytes; h.SlotDescriptorOffset() != want {
			t.Errorf("handle %d descriptor at 0x%X, want 0x%X", i, h.SlotDescriptorOffset(), want)
		}
	}
	for i := 3; i < handleCount; i++ {
		if !handles[i].Unused() {
			t.Errorf("handle %d should be unused", i)
		}
		if handles[i].SlotDescriptorOffset() != -1 {
			t.Errorf("unused handle %d has descriptor offset", i)
		}
	}
}

func TestHandleSentinelPairs(t *testing.T) {
	cases := []struct {
		slot, aux uint16
		unused    bool
	}{
		{0xFFFF, 0xFFFF, true},
		{0xFFFF, 0x0000, true},
		{0x0000, 0x0000, false},
		{0xFFFF, 0x0001, false},
		{0x000A, 0x0100, false},
	}
	for _, tc := range cases {
		h := Handle{Slot: tc.slot, Aux: tc.aux}
		if h.Unused() != tc.unused {
			t.Errorf("Unused(%04X,%04X) = %v, want %v", tc.slot, tc.aux, h.Unused(), tc.unused)
		}
	}
}

func TestDecodeHandlesShortBuffer(t *testing.T) {
	f := newProjectFixture(t, 4)

	// Cut the buffer in the middle of the handle table: only the entries
	// that fit are returned.
	short := f.buf[:handleTableOffset+4*5+2]
	handles := DecodeHandles(short)
	if len(handles) != 5 {
		t.Fatalf("short table handle count = %d, want 5", len(handles))
	}
}

func TestSlotDescriptor(t *testing.T) {
	f := newProjectFixture(t, 1)
	h := DecodeHandles(f.buf)[0]

	desc := SlotDescriptor(f.buf, h)
	if len(desc) != slotDescBytes {
		t.Fatalf("descriptor length = %d", len(desc))
	}
	if w, _ := u16le(desc, 0); w != 0x1000 {
		t.Errorf("descriptor word 0 = 0x%04X, want 0x1000", w)
	}

	if SlotDescriptor(f.buf, Handle{Slot: 0xFFFF, Aux: 0xFFFF}) != nil {
		t.Error("unused handle returned a descriptor")
	}
	if SlotDescriptor(f.buf[:0x20], h) != nil {
		t.Error("truncated buffer returned a descriptor")
	}
}
