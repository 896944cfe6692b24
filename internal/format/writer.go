package format

import (
	"errors"
	"fmt"
)

// Write-side failure taxonomy. Write errors are fatal to the single call and
// are raised before any byte of the target buffer is mutated.
var (
	ErrNoteRange    = errors.New("note outside MIDI range 0..127")
	ErrNegativeStep = errors.New("step must be >= 0")
	ErrNoBlock      = errors.New("track block not present in buffer")
	ErrNoSlot       = errors.New("no slot descriptor reachable from track handle")
	ErrTruncated    = errors.New("buffer too short for the patched regions")
)

// TrigSpec describes one quantised trigger to write into a block. Step is
// 0-based. Gate is given either as a percentage of one step or as absolute
// ticks; ticks win when both are set.
type TrigSpec struct {
	Step        int
	Note        int
	Velocity    int
	GatePercent int
	GateTicks   int
	HasGateT    bool
	Voice       int
}

// gateTicks resolves the spec's gate into ticks, clamping the percentage
// into 0..100. Other out-of-range parameters are clamped, not rejected:
// velocity to 7 bits, voice to 16 bits.
func (s TrigSpec) gateTicks() uint32 {
	if s.HasGateT {
		if s.GateTicks < 0 {
			return 0
		}
		return uint32(s.GateTicks)
	}
	pct := s.GatePercent
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	return uint32(pct) * ticksPerStep / 100
}

func clamp7(v int) uint8 {
	if v < 0 {
		return 0
	}
	if v > 127 {
		return 127
	}
	return uint8(v)
}

func clamp16(v int) uint16 {
	if v < 0 {
		return 0
	}
	if v > 0xFFFF {
		return 0xFFFF
	}
	return uint16(v)
}

// locateWritable resolves the block and slot descriptor for a 1-based track
// index and verifies every region the writer touches fits in the buffer.
func locateWritable(buf []byte, track int) (Block, int, error) {
	if track < 1 || track > handleCount {
		return Block{}, 0, fmt.Errorf("track %d: %w", track, ErrNoBlock)
	}
	blocks := FindBlocks(buf)
	if track > len(blocks) {
		return Block{}, 0, fmt.Errorf("track %d of %d: %w", track, len(blocks), ErrNoBlock)
	}
	block := blocks[track-1]

	handles := DecodeHandles(buf)
	if track > len(handles) {
		return Block{}, 0, fmt.Errorf("track %d: handle table short: %w", track, ErrNoSlot)
	}
	handle := handles[track-1]
	slotOff := handle.SlotDescriptorOffset()
	if slotOff < 0 || slotOff+slotDescBytes > len(buf) {
		return Block{}, 0, fmt.Errorf("track %d: %w", track, ErrNoSlot)
	}

	end := block.Offset + relStepSlab + stepSlabWords*2
	if end > len(buf) {
		return Block{}, 0, fmt.Errorf("need %d bytes, have %d: %w", end, len(buf), ErrTruncated)
	}
	return block, slotOff, nil
}

// Activate transforms a track block from its factory blank state to the
// "touched" state observed once a user has interacted with the track on the
// device. The input buffer is never mutated; the returned buffer is a private
// copy.
func Activate(buf []byte, track int) ([]byte, error) {
	block, slotOff, err := locateWritable(buf, track)
	if err != nil {
		return nil, fmt.Errorf("activate: %w", err)
	}

	out := make([]byte, len(buf))
	copy(out, buf)
	o := block.Offset

	// Pointer-word window: bump the first word, stamp the sentinel-append
	// word into the final window slot.
	first, _ := u16le(out, o+relWindow)
	putU16le(out, o+relWindow, first+windowFirstWordDelta)
	putU16le(out, o+relWindow+(windowWords-1)*2, windowAppendWord)

	for i, w := range prePayloadTable {
		putU16le(out, o+relPrePayload+i*2, w)
	}

	rotateSlotDescriptor(out, slotOff)

	copy(out[o+relSentinel:], activationSentinel)

	for i, dw := range activationNodeTable {
		putU32le(out, o+relNodes+i*4, dw)
	}
	for i, w := range activationTailStrip {
		putU16le(out, o+relTailStrip+i*2, w)
	}

	rotateStepSlab(out, o+relStepSlab)
	return out, nil
}

// rotateSlotDescriptor rotates the descriptor's 8 words left by one and
// forces the last word to the activated trailer.
func rotateSlotDescriptor(buf []byte, slotOff int) {
	var words [slotDescWords]uint16
	for i := range words {
		words[i], _ = u16le(buf, slotOff+i*2)
	}
	for i := 0; i < slotDescWords-1; i++ {
		putU16le(buf, slotOff+i*2, words[i+1])
	}
	putU16le(buf, slotOff+(slotDescWords-1)*2, slotActivatedTrailer)
}

// rotateStepSlab rotates the factory 32-word slab left by one word and stamps
// the terminator into the freed final slot.
func rotateStepSlab(buf []byte, slabOff int) {
	var words [stepSlabWords]uint16
	for i := range words {
		words[i], _ = u16le(buf, slabOff+i*2)
	}
	for i := 0; i < stepSlabWords-1; i++ {
		putU16le(buf, slabOff+i*2, words[i+1])
	}
	putU16le(buf, slabOff+(stepSlabWords-1)*2, stepSlabTerminator)
}

// ApplySingleTrig overwrites the activated regions of a block to encode
// exactly one quantised trigger. The buffer is mutated in place and must
// already be a private copy (Activate returns one). blockOffset must be the
// block addressed by track; it is revalidated rather than trusted.
func ApplySingleTrig(buf []byte, blockOffset, track int, spec TrigSpec) error {
	if spec.Note < 0 || spec.Note > 127 {
		return fmt.Errorf("apply trig: note %d: %w", spec.Note, ErrNoteRange)
	}
	if spec.Step < 0 {
		return fmt.Errorf("apply trig: step %d: %w", spec.Step, ErrNegativeStep)
	}
	block, slotOff, err := locateWritable(buf, track)
	if err != nil {
		return fmt.Errorf("apply trig: %w", err)
	}
	if block.Offset != blockOffset {
		return fmt.Errorf("apply trig: block offset 0x%X does not match track %d at 0x%X: %w",
			blockOffset, track, block.Offset, ErrNoBlock)
	}

	note := uint8(spec.Note)
	vel := clamp7(spec.Velocity)
	voice := clamp16(spec.Voice)
	gate := spec.gateTicks()
	fine := uint16(spec.Step * ticksPerStep)
	o := block.Offset

	// Event header plus its single 10-byte record: zeroed coarse field and
	// the (note, velocity) pair in the voice_tail position.
	h := o + relTrigHeader
	buf[h] = evtQuantA
	buf[h+1] = 1
	putU16le(buf, h+2, fine)
	for i := h + 4; i < h+12; i++ {
		buf[i] = 0
	}
	buf[h+12] = note
	buf[h+13] = vel

	// Node dwords: packed note/velocity/voice words, then the captured
	// trailer.
	nodes := [nodeDwords]uint32{
		uint32(note)<<24 | uint32(vel)<<16 | uint32(voice),
		uint32(voice)<<16 | uint32(windowAppendWord),
	}
	nodes[nodeDwords-1] = eventNodeTrailer
	for i, dw := range nodes {
		putU32le(buf, o+relNodes+i*4, dw)
	}

	for i, w := range eventTailTable {
		putU16le(buf, o+relTailStrip+i*2, w)
	}

	for i, w := range eventSlabTemplate {
		if i == eventSlabGateWord {
			w = uint16(gate & 0xFFFF)
		}
		putU16le(buf, o+relStepSlab+i*2, w)
	}

	for i, w := range eventSlotDescriptor {
		putU16le(buf, slotOff+i*2, w)
	}
	return nil
}
