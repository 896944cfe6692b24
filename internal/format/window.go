package format

// PointerWindow is the run of 16 little-endian words that follows a block
// signature. The words are used purely as a classification signature; in
// this context they are never dereferenced as pointers.
type PointerWindow [windowWords]uint16

// ReadPointerWindow extracts the pointer-word window for a block. It returns
// false when the window would extend past the buffer; it never reads out of
// bounds and never fabricates words for a truncated window.
func ReadPointerWindow(buf []byte, blockOffset int) (PointerWindow, bool) {
	var w PointerWindow
	start := blockOffset + relWindow
	if start < 0 || start+windowBytes > len(buf) {
		return w, false
	}
	for i := 0; i < windowWords; i++ {
		w[i], _ = u16le(buf, start+i*2)
	}
	return w, true
}

// Word returns the window word at a byte offset relative to the window
// start. Offsets must land on a 2-byte boundary inside the window.
func (w PointerWindow) Word(rel int) (uint16, bool) {
	if rel < 0 || rel%2 != 0 || rel/2 >= windowWords {
		return 0, false
	}
	return w[rel/2], true
}
