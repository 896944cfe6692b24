package format

import (
	"encoding/binary"
	"testing"
)

// Fixture geometry. Blocks are spaced far enough apart that every writer
// region fits inside a block's span.
const (
	fixBlockBase   = 0x200
	fixBlockStride = 0x900
	fixSlotBase    = 10 // logical slot of track 1; descriptor at 0xA0
	fixPatternLen  = 16
)

// projectFixture builds a synthetic buffer shaped like a captured project
// file: header fields, handle table, slot descriptors, and nTracks blank
// track blocks with valid signatures and preceding pointer words.
type projectFixture struct {
	buf []byte
}

func newProjectFixture(t *testing.T, nTracks int) *projectFixture {
	t.Helper()
	if nTracks < 0 || nTracks > handleCount {
		t.Fatalf("fixture supports 0..16 tracks, got %d", nTracks)
	}
	size := fixBlockBase + handleCount*fixBlockStride
	f := &projectFixture{buf: make([]byte, size)}

	// Header: 120.0 BPM, groove type 2, flags 1, groove amount 30,
	// metronome 64, three EQ entries, max slot.
	binary.LittleEndian.PutUint32(f.buf[tempoWordOffset:], uint32(1200)|uint32(2)<<16|uint32(1)<<24)
	f.buf[grooveAmtOffset] = 30
	f.buf[metronomeOffset] = 64
	for i := 0; i < 3; i++ {
		binary.LittleEndian.PutUint16(f.buf[eqTableOffset+i*4:], uint16(0x40+i))
		binary.LittleEndian.PutUint16(f.buf[eqTableOffset+i*4+2:], uint16(i+1))
	}
	binary.LittleEndian.PutUint16(f.buf[maxSlotOffset:], uint16(fixSlotBase+nTracks))

	for i := 0; i < handleCount; i++ {
		off := handleTableOffset + i*4
		if i < nTracks {
			binary.BigEndian.PutUint16(f.buf[off:], uint16(fixSlotBase+i))
			binary.BigEndian.PutUint16(f.buf[off+2:], uint16(0x0100+i))
		} else {
			binary.BigEndian.PutUint16(f.buf[off:], 0xFFFF)
			binary.BigEndian.PutUint16(f.buf[off+2:], 0xFFFF)
		}
	}

	// Factory slot descriptors: eight distinct words so rotation is visible.
	for i := 0; i < nTracks; i++ {
		slotOff := (fixSlotBase + i) * slotDescBytes
		for w := 0; w < slotDescWords; w++ {
			binary.LittleEndian.PutUint16(f.buf[slotOff+w*2:], uint16(0x1000*(i+1)+w))
		}
	}

	for i := 0; i < nTracks; i++ {
		f.writeBlockSignature(i)
	}
	return f
}

func (f *projectFixture) blockOffset(i int) int {
	return fixBlockBase + i*fixBlockStride
}

func (f *projectFixture) writeBlockSignature(i int) {
	o := f.blockOffset(i)
	// Preceding pointer word: low 16 bits non-zero, pattern-length byte,
	// 0xF0 top byte.
	f.buf[o-4] = 0x34
	f.buf[o-3] = 0x12
	f.buf[o-2] = fixPatternLen
	f.buf[o-1] = 0xF0
	copy(f.buf[o:], blockHeadSig)
	f.buf[o+relScale] = uint8(i + 1) // scale/variant
	copy(f.buf[o+4:], blockTailSig)
	f.buf[o+relEngine] = uint8(0x10 + i)
}

// setWindow stores 16 words into a block's pointer window.
func (f *projectFixture) setWindow(i int, words []uint16) {
	o := f.blockOffset(i) + relWindow
	for w, v := range words {
		binary.LittleEndian.PutUint16(f.buf[o+w*2:], v)
	}
}

// setWindowWord stores one word at a window word index.
func (f *projectFixture) setWindowWord(i, word int, v uint16) {
	o := f.blockOffset(i) + relWindow + word*2
	binary.LittleEndian.PutUint16(f.buf[o:], v)
}

// putQuantEvent writes a quantised event header plus records at rel bytes
// past the block signature and returns its absolute offset.
func (f *projectFixture) putQuantEvent(i, rel int, typ uint8, fine uint16, records ...[quantRecordLen]byte) int {
	o := f.blockOffset(i) + blockSigSpan + rel
	f.buf[o] = typ
	f.buf[o+1] = uint8(len(records))
	binary.LittleEndian.PutUint16(f.buf[o+2:], fine)
	p := o + quantHeaderLen
	for _, rec := range records {
		copy(f.buf[p:], rec[:])
		p += quantRecordLen
	}
	return o
}

// putWords writes raw LE16 words at rel bytes past the block signature.
func (f *projectFixture) putWords(i, rel int, words ...uint16) int {
	o := f.blockOffset(i) + blockSigSpan + rel
	for w, v := range words {
		binary.LittleEndian.PutUint16(f.buf[o+w*2:], v)
	}
	return o
}

// quantRecord builds a 10-byte record with a coarse tick field and a
// (note, velocity) pair in the voice_tail position.
func quantRecord(coarseLE uint32, note, vel uint8) [quantRecordLen]byte {
	var rec [quantRecordLen]byte
	binary.LittleEndian.PutUint32(rec[:], coarseLE)
	rec[8] = note
	rec[9] = vel
	return rec
}

// filterOnWindow returns a window carrying a filter-enabled tuple and
// below-threshold words elsewhere.
func filterOnWindow() []uint16 {
	w := make([]uint16, windowWords)
	w[5] = 0x0404 // rel 0x0A
	w[6] = 0x0001 // rel 0x0C
	return w
}

// modOnWindow returns a window carrying an m4-enabled tuple.
func modOnWindow() []uint16 {
	w := make([]uint16, windowWords)
	w[6] = 0x0001  // rel 0x0C
	w[10] = 0x2010 // rel 0x14
	return w
}
