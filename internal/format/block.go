package format

// Block identifies one track block by its starting byte offset and exposes
// the fixed fields readable directly from the signature neighbourhood.
type Block struct {
	Offset int
	// Variant is the byte between the head and tail signatures; it doubles
	// as the scale id.
	Variant uint8
}

// Scale returns the scale id byte (same byte as Variant).
func (b Block) Scale(buf []byte) (uint8, bool) {
	off := b.Offset + relScale
	if off >= len(buf) {
		return 0, false
	}
	return buf[off], true
}

// EngineID returns the engine id byte at block+0x0D.
func (b Block) EngineID(buf []byte) (uint8, bool) {
	off := b.Offset + relEngine
	if off >= len(buf) {
		return 0, false
	}
	return buf[off], true
}

// PatternLength returns the declared pattern length in steps, read from the
// pointer word that precedes the block signature.
func (b Block) PatternLength(buf []byte) (int, bool) {
	off := b.Offset + patternLenRel
	if off < 0 || off >= len(buf) {
		return 0, false
	}
	n := int(buf[off])
	if n == 0 {
		return 0, false
	}
	return n, true
}

// isBlockStart applies the block-start heuristic at offset o:
// head signature, variant byte, tail signature, and a plausible preceding
// pointer word (top byte 0xF0, low 16 bits non-zero). The pointer-word check
// rejects signature bytes that occur incidentally inside another block's
// payload.
func isBlockStart(buf []byte, o int) bool {
	if o < blockRegionStart || o+blockSigSpan > len(buf) {
		return false
	}
	for i, c := range blockHeadSig {
		if buf[o+i] != c {
			return false
		}
	}
	for i, c := range blockTailSig {
		if buf[o+4+i] != c {
			return false
		}
	}
	ptr, ok := u32le(buf, o-4)
	if !ok {
		return false
	}
	if ptr>>24 != 0xF0 || ptr&0xFFFF == 0 {
		return false
	}
	return true
}

// FindBlocks scans the buffer for track block starts. It returns at most 16
// blocks, strictly ordered by offset. After accepting a block the scan
// resumes past the full signature span so the same block is never matched
// twice. Fewer than 16 blocks is a property of the input (typically a
// truncated capture), not an error.
func FindBlocks(buf []byte) []Block {
	blocks := make([]Block, 0, handleCount)
	for o := blockRegionStart; o+blockSigSpan <= len(buf) && len(blocks) < handleCount; {
		if !isBlockStart(buf, o) {
			o++
			continue
		}
		blocks = append(blocks, Block{Offset: o, Variant: buf[o+relScale]})
		o += blockSigSpan
	}
	return blocks
}

// nextBlockStart returns the offset of the first valid block start at or
// after from, or -1 when none exists before limit.
func nextBlockStart(buf []byte, from, limit int) int {
	if limit > len(buf)-blockSigSpan {
		limit = len(buf) - blockSigSpan
	}
	for o := from; o <= limit; o++ {
		if isBlockStart(buf, o) {
			return o
		}
	}
	return -1
}
