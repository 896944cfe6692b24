package format

// Replacement values the writer stamps into a block are literal constants
// captured from labeled reference files. The firmware's generation logic for
// these regions is unknown; the writer's guarantee is bytewise equivalence to
// the captured references for the specific transitions it performs, not
// general derivability.

// Writer region offsets, relative to the block start.
const (
	relPrePayload = 0x28
	relTrigHeader = 0x124
	relSentinel   = 0x0726
	relNodes      = 0x0730
	relTailStrip  = 0x0750
	relStepSlab   = 0x07F4

	prePayloadWords = 126
	nodeDwords      = 8
	tailStripWords  = 82
	stepSlabWords   = 32

	// Pointer-window activation patch.
	windowFirstWordDelta = 0x0002
	windowAppendWord     = 0x2001

	// Slot descriptor trailers.
	slotActivatedTrailer = 0xE0E0

	// Step-slab terminator appended after the rotate.
	stepSlabTerminator = 0x00FF

	// Index of the word inside the event slab the caller's gate-ticks value
	// overwrites.
	eventSlabGateWord = 5
)

// activationSentinel is the 12-byte signature stamped at +0x0726 once a track
// has been touched on the device.
var activationSentinel = []byte{
	0xAC, 0x71, 0x00, 0x10, 0x5E, 0x77, 0x00, 0x40, 0xAC, 0x71, 0x00, 0x01,
}

// prePayloadTable is the 126-word table at +0x28 in every activated capture.
var prePayloadTable = [prePayloadWords]uint16{
	0x143D, 0x0100, 0x2001, 0x0010, 0x0010, 0x2001, 0x0000, 0x2001,
	0x0010, 0x0000, 0x0000, 0x0000, 0x0001, 0x0100, 0x0001, 0x0001,
	0x112A, 0x0000, 0x2001, 0x0000, 0x0000, 0x07EB, 0x0040, 0x274F,
	0x0001, 0x0000, 0x0000, 0x0001, 0x0010, 0x0001, 0x0000, 0x0000,
	0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0040, 0x0000, 0x2001,
	0x0001, 0x0010, 0x0200, 0x0010, 0x0000, 0x0000, 0x0000, 0x2001,
	0x0040, 0x0000, 0x0200, 0x2BDF, 0x0200, 0x2001, 0x0000, 0x0000,
	0x0000, 0x28CD, 0x0000, 0x0000, 0x0200, 0x0040, 0x0000, 0x0040,
	0x0040, 0x0200, 0x0001, 0x1263, 0x0040, 0x0000, 0x0000, 0x0100,
	0x0000, 0x0040, 0x0000, 0x0000, 0x0000, 0x0000, 0x0000, 0x0001,
	0x0000, 0x1259, 0x2001, 0x0100, 0x0000, 0x0200, 0x0100, 0x0001,
	0x1953, 0x2001, 0x0200, 0x0010, 0x2001, 0x0040, 0x0040, 0x0001,
	0x1F65, 0x0000, 0x0040, 0x0000, 0x0200, 0x0100, 0x1354, 0x0000,
	0x251B, 0x0200, 0x2001, 0x0010, 0x0001, 0x1695, 0x0000, 0x0000,
	0x0200, 0x2001, 0x230B, 0x0000, 0x0000, 0x0200, 0x0000, 0x0010,
	0x2001, 0x2001, 0x0001, 0x0100, 0x1124, 0x0200,
}

// activationNodeTable is the 8 node dwords at +0x0730 in activated captures.
var activationNodeTable = [nodeDwords]uint32{
	0x34737E97, 0x1A71BA66, 0x097BC15D, 0x27AB6A36,
	0x03F19BA5, 0x08DA0FA3, 0x3BCCBBF5, 0x0A30664D,
}

// activationTailStrip is the 82-word strip at +0x0750 in activated captures.
var activationTailStrip = [tailStripWords]uint16{
	0x0100, 0x0000, 0x0F1F, 0x0100, 0x0010, 0x0000, 0x2001, 0x0200,
	0x2D82, 0x0000, 0x0000, 0x0000, 0x0200, 0x0100, 0x0000, 0x0000,
	0x0010, 0x278A, 0x0000, 0x0001, 0x0000, 0x0000, 0x0000, 0x0000,
	0x0040, 0x0040, 0x0010, 0x17C5, 0x0000, 0x2001, 0x0040, 0x0010,
	0x228B, 0x0100, 0x0000, 0x0001, 0x0000, 0x2001, 0x0100, 0x0010,
	0x269C, 0x0040, 0x0000, 0x2833, 0x0000, 0x0100, 0x0200, 0x0040,
	0x0001, 0x2001, 0x0040, 0x0040, 0x0100, 0x0200, 0x0040, 0x0000,
	0x0000, 0x2001, 0x2001, 0x0100, 0x0100, 0x0200, 0x0000, 0x2001,
	0x0010, 0x0000, 0x2001, 0x0000, 0x1D3B, 0x0000, 0x0100, 0x0040,
	0x0010, 0x0000, 0x0040, 0x0000, 0x0100, 0x0010, 0x0100, 0x0100,
	0x0001, 0x0001,
}

// eventTailTable is the 82-word strip captured from single-trig references.
var eventTailTable = [tailStripWords]uint16{
	0x0D1D, 0x0040, 0x0200, 0x0010, 0x0040, 0x0001, 0x0000, 0x2001,
	0x0200, 0x0100, 0x1FA7, 0x0040, 0x22B3, 0x0100, 0x2001, 0x0010,
	0x0000, 0x0000, 0x0000, 0x0040, 0x0001, 0x2001, 0x0040, 0x0200,
	0x0000, 0x0100, 0x0100, 0x0010, 0x0100, 0x0040, 0x0010, 0x0200,
	0x0010, 0x0001, 0x0040, 0x0000, 0x0010, 0x0100, 0x13D6, 0x0010,
	0x0040, 0x0040, 0x0200, 0x0200, 0x0000, 0x0000, 0x2001, 0x0010,
	0x2001, 0x0001, 0x0010, 0x2A31, 0x0010, 0x0000, 0x0000, 0x0000,
	0x1BE2, 0x0000, 0x0000, 0x0000, 0x0000, 0x2001, 0x0000, 0x1A2C,
	0x0000, 0x2001, 0x2BC5, 0x0000, 0x0000, 0x0000, 0x0000, 0x0001,
	0x0001, 0x0040, 0x2001, 0x0100, 0x0000, 0x0000, 0x2EA0, 0x2001,
	0x0100, 0x0000,
}

// eventSlabTemplate is the 32-word slab captured from single-trig references;
// the word at eventSlabGateWord is overwritten with the caller's gate ticks.
var eventSlabTemplate = [stepSlabWords]uint16{
	0x0000, 0x0000, 0x0100, 0x0000, 0x0000, 0x05FB, 0x0000, 0x0200,
	0x0000, 0x0040, 0x0010, 0x0200, 0x0000, 0x16EB, 0x0000, 0x0000,
	0x0000, 0x0001, 0x0000, 0x0200, 0x0010, 0x0000, 0x0200, 0x2001,
	0x0001, 0x0000, 0x0000, 0x0100, 0x2441, 0x0200, 0x0010, 0x2001,
}

// eventNodeTrailer terminates the node dwords written for a single trig.
var eventNodeTrailer = uint32(0x0A30664D)

// eventSlotDescriptor is the slot descriptor pattern captured once a single
// quantised trig exists on the track.
var eventSlotDescriptor = [slotDescWords]uint16{
	0x4E07, 0x0001, 0x2001, 0x0010, 0x0100, 0x0040, 0x0200, 0xE0E1,
}
