package format

// Track is the fully decoded model for one track block.
type Track struct {
	Index         int // 1-based
	Block         Block
	Handle        Handle
	HasHandle     bool
	EngineID      uint8
	HasEngine     bool
	Scale         uint8
	PatternLength int // steps; 0 when undetermined
	Window        PointerWindow
	HasWindow     bool
	Filter        TriState
	Mod           TriState
	Events        []QuantisedEvent
	Meta          []MetaEvent
}

// Project is the decoded view of one whole file. All fields are derived,
// read-only views computed fresh per call; nothing here aliases mutable
// state, and the input buffer is never modified.
type Project struct {
	Size    int
	Header  Header
	Handles []Handle
	Tracks  []Track
}

// DecodeProject decodes a fully buffered project file. Decode-side anomalies
// are recoverable locally: a malformed or truncated region shows up as an
// absent or unknown field on the affected track and never aborts the rest of
// the file.
func DecodeProject(buf []byte) *Project {
	p := &Project{
		Size:    len(buf),
		Header:  DecodeHeader(buf),
		Handles: DecodeHandles(buf),
	}

	blocks := FindBlocks(buf)
	for i, block := range blocks {
		t := Track{Index: i + 1, Block: block, Filter: StateUnknown, Mod: StateUnknown}

		if i < len(p.Handles) {
			t.Handle = p.Handles[i]
			t.HasHandle = true
		}
		t.Scale, _ = block.Scale(buf)
		t.EngineID, t.HasEngine = block.EngineID(buf)
		t.PatternLength, _ = block.PatternLength(buf)

		if w, ok := ReadPointerWindow(buf, block.Offset); ok {
			t.Window = w
			t.HasWindow = true
			t.Filter = FilterRegistry.Classify(w)
			t.Mod = ModRegistry.Classify(w)
		}

		blockEnd := len(buf)
		if i+1 < len(blocks) {
			blockEnd = blocks[i+1].Offset
		}
		inUse := t.HasHandle && !t.Handle.Unused()
		t.Events = DecodeQuantisedEvents(buf, block, blockEnd, t.PatternLength, inUse)
		t.Meta = DecodeLiveEvents(buf, block, blockEnd, t.PatternLength)

		p.Tracks = append(p.Tracks, t)
	}
	return p
}

// EventCount totals quantised and live events across all tracks.
func (p *Project) EventCount() int {
	n := 0
	for _, t := range p.Tracks {
		n += len(t.Events) + len(t.Meta)
	}
	return n
}
