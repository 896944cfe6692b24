package format

// Header holds the decoded project header: tempo, groove, mix/EQ and the
// pattern directory preamble. Fields that could not be read from a truncated
// buffer are left at their zero value with the corresponding Ok flag false.
type Header struct {
	TempoTenthsBPM uint16 // tenths of BPM, e.g. 1200 == 120.0 BPM
	GrooveType     uint8
	GrooveFlags    uint8
	GrooveAmount   uint8
	Metronome      uint8
	EQ             []EQEntry
	MaxSlot        uint16
	Ok             bool
}

// EQEntry is one of the three 4-byte EQ records starting at 0x24.
type EQEntry struct {
	Value  uint16
	BandID uint16
}

// BPM returns the tempo in beats per minute.
func (h Header) BPM() float64 {
	return float64(h.TempoTenthsBPM) / 10.0
}

// DecodeHeader reads the fixed project header. A buffer too short for the
// header yields Ok == false; individual EQ entries that do not fit are omitted.
func DecodeHeader(buf []byte) Header {
	var h Header
	tempo, ok := u32le(buf, tempoWordOffset)
	if !ok {
		return h
	}
	h.TempoTenthsBPM = uint16(tempo)
	h.GrooveType = uint8(tempo >> 16)
	h.GrooveFlags = uint8(tempo >> 24)
	if grooveAmtOffset < len(buf) {
		h.GrooveAmount = buf[grooveAmtOffset]
	}
	if metronomeOffset < len(buf) {
		h.Metronome = buf[metronomeOffset]
	}
	for i := 0; i < 3; i++ {
		off := eqTableOffset + i*4
		value, ok1 := u16le(buf, off)
		band, ok2 := u16le(buf, off+2)
		if !ok1 || !ok2 {
			break
		}
		h.EQ = append(h.EQ, EQEntry{Value: value, BandID: band})
	}
	if maxSlot, ok := u16le(buf, maxSlotOffset); ok {
		h.MaxSlot = maxSlot
	}
	h.Ok = true
	return h
}

// Handle is one per-track 4-byte directory entry. Slot and Aux are the
// logical (byte-swapped) values; the on-disk words are big-endian.
type Handle struct {
	Track int // 1-based track index
	Slot  uint16
	Aux   uint16
}

// Unused reports whether the handle carries one of the two sentinel pairs
// that mark a track directory entry as empty.
func (h Handle) Unused() bool {
	return (h.Slot == 0xFFFF && h.Aux == 0xFFFF) || (h.Slot == 0xFFFF && h.Aux == 0x0000)
}

// SlotDescriptorOffset returns the absolute byte offset of the 16-byte slot
// descriptor this handle addresses, or -1 for an unused handle.
func (h Handle) SlotDescriptorOffset() int {
	if h.Unused() {
		return -1
	}
	return int(h.Slot) * slotDescBytes
}

// DecodeHandles reads the 16-entry handle table at the fixed header offset.
// A short buffer returns only the handles that fit; callers must treat a
// short list as degraded input, not corruption.
func DecodeHandles(buf []byte) []Handle {
	handles := make([]Handle, 0, handleCount)
	for i := 0; i < handleCount; i++ {
		off := handleTableOffset + i*4
		slot, ok1 := u16be(buf, off)
		aux, ok2 := u16be(buf, off+2)
		if !ok1 || !ok2 {
			break
		}
		handles = append(handles, Handle{Track: i + 1, Slot: slot, Aux: aux})
	}
	return handles
}

// SlotDescriptor returns the 16-byte record addressed by a handle, or nil
// when the handle is unused or the descriptor does not fit in the buffer.
// The payload is opaque; it is compared byte-for-byte, never decoded.
func SlotDescriptor(buf []byte, h Handle) []byte {
	off := h.SlotDescriptorOffset()
	if off < 0 || off+slotDescBytes > len(buf) {
		return nil
	}
	return buf[off : off+slotDescBytes]
}
