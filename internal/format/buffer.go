// Package format implements the binary codec for the groovebox .xy project-file
// format. The format is undocumented; everything here is reverse-engineered from
// a corpus of captured reference files. Regions without a self-describing schema
// (block boundaries, event boundaries, tail data) are located by structural
// heuristics, and any inference that cannot be cross-validated fails closed:
// the decoder reports an absent or unknown value instead of guessing.
package format

import "encoding/binary"

// Layout constants shared by the decoder and the writer. All offsets are byte
// offsets; "rel" means relative to a track block start.
const (
	// File header.
	tempoWordOffset   = 0x08 // LE32; low 16 bits = tenths of BPM, high bytes = groove flags/type
	grooveAmtOffset   = 0x0C
	metronomeOffset   = 0x0D
	eqTableOffset     = 0x24 // three 4-byte entries: LE16 value, LE16 band id
	maxSlotOffset     = 0x56 // LE16
	handleTableOffset = 0x58 // 16 entries x 4 bytes, two BE16 words each
	handleCount       = 16

	// Track blocks never overlap the header region.
	blockRegionStart = 0x80

	// Block start signature: 3 head bytes, 1 variant byte, 4 tail bytes.
	blockSigSpan = 8

	relScale      = 0x03 // the variant byte doubles as the scale id
	relWindow     = 0x08 // pointer-word window, 16 LE16 words
	relEngine     = 0x0D
	windowWords   = 16
	windowBytes   = windowWords * 2
	patternLenRel = -2 // byte inside the preceding pointer word

	// Slot descriptors.
	slotDescBytes = 16
	slotDescWords = 8

	// Event records.
	evtQuantA       = 0x25
	evtQuantB       = 0x2D
	evtLive         = 0x21
	quantHeaderLen  = 4  // type, count, LE16 fine ticks
	quantRecordLen  = 10 // 32-bit coarse tick + 6 note-data bytes
	liveRecordLen   = 18
	ticksPerStep    = 480
	coarseBEModulus = 0x600
	tailLookahead   = 0x40 // bytes past the nominal block end a tail may spill

	// Live (0x21) note recovery band: LE16 at record+14 maps to MIDI 0..127.
	liveNoteBandBase = 0x3C00
)

// Block signature bytes observed at every track block start across the corpus.
var (
	blockHeadSig = []byte{0x4E, 0x54, 0x10}
	blockTailSig = []byte{0x00, 0x10, 0x00, 0x40}
)

// u16le reads a little-endian 16-bit word at off, reporting false when the
// buffer is too short. Decode paths treat false as "unavailable", never as zero.
func u16le(buf []byte, off int) (uint16, bool) {
	if off < 0 || off+2 > len(buf) {
		return 0, false
	}
	return binary.LittleEndian.Uint16(buf[off:]), true
}

func u32le(buf []byte, off int) (uint32, bool) {
	if off < 0 || off+4 > len(buf) {
		return 0, false
	}
	return binary.LittleEndian.Uint32(buf[off:]), true
}

func u16be(buf []byte, off int) (uint16, bool) {
	if off < 0 || off+2 > len(buf) {
		return 0, false
	}
	return binary.BigEndian.Uint16(buf[off:]), true
}

// bswap16 swaps the two bytes of a word. Pointer words and handle words are
// stored big-endian on disk but are logically little-endian.
func bswap16(w uint16) uint16 {
	return w<<8 | w>>8
}

// bswap32 reinterprets a little-endian 32-bit read as big-endian.
func bswap32(w uint32) uint32 {
	return w<<24 | (w&0xFF00)<<8 | (w>>8)&0xFF00 | w>>24
}

func putU16le(buf []byte, off int, w uint16) {
	binary.LittleEndian.PutUint16(buf[off:], w)
}

func putU32le(buf []byte, off int, w uint32) {
	binary.LittleEndian.PutUint32(buf[off:], w)
}
