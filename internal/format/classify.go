package format

import (
	"encoding/binary"
	"fmt"
)

// TriState is the result of a pointer-signature classification. Unknown is a
// first-class outcome: a tuple that was never observed in the labeled corpus,
// or observed too rarely to trust, must never default to a guessed state.
type TriState int

const (
	StateUnknown TriState = iota
	StateOff
	StateOn
)

func (s TriState) String() string {
	switch s {
	case StateOn:
		return "on"
	case StateOff:
		return "off"
	default:
		return "unknown"
	}
}

// classifierBaseRel is the lowest window-relative byte offset a registry may
// track. Words below it vary with unrelated block state across the corpus.
const classifierBaseRel = 0x08

// Signature is one observed pointer-word tuple with its labeled state and the
// number of corpus captures supporting the label.
type Signature struct {
	Words   []uint16
	State   bool
	Support int
}

// Registry maps pointer-word tuples, read at a fixed ordered set of
// window-relative byte offsets, to a module on/off state. The mapping is
// deliberately pattern matching, not bit decoding: the bit semantics of the
// words are not understood, only their observed correlation with the module's
// UI-visible state across labeled captures.
type Registry struct {
	name       string
	offsets    []int
	minSupport int
	table      map[string]Signature
}

// NewRegistry builds a registry from curated signatures. It fails when an
// offset is below the classifier base or misaligned, when a signature tuple
// length does not match the offset list, or when two signatures assign
// conflicting states to the same tuple. Conflicts are a configuration error
// and are rejected here, never at query time.
func NewRegistry(name string, offsets []int, minSupport int, sigs []Signature) (*Registry, error) {
	for _, off := range offsets {
		if off < classifierBaseRel {
			return nil, fmt.Errorf("registry %s: offset 0x%02X below base 0x%02X", name, off, classifierBaseRel)
		}
		if off%2 != 0 || off/2 >= windowWords {
			return nil, fmt.Errorf("registry %s: offset 0x%02X not a word slot inside the window", name, off)
		}
	}
	r := &Registry{
		name:       name,
		offsets:    offsets,
		minSupport: minSupport,
		table:      make(map[string]Signature, len(sigs)),
	}
	for _, sig := range sigs {
		if len(sig.Words) != len(offsets) {
			return nil, fmt.Errorf("registry %s: signature has %d words, registry tracks %d offsets",
				name, len(sig.Words), len(offsets))
		}
		key := tupleKey(sig.Words)
		if prev, dup := r.table[key]; dup {
			if prev.State != sig.State {
				return nil, fmt.Errorf("registry %s: tuple %v mapped to both states", name, sig.Words)
			}
			// Same label observed again: accumulate support.
			prev.Support += sig.Support
			r.table[key] = prev
			continue
		}
		r.table[key] = sig
	}
	return r, nil
}

// MustNewRegistry is for the package-level curated tables, which are
// validated once at startup.
func MustNewRegistry(name string, offsets []int, minSupport int, sigs []Signature) *Registry {
	r, err := NewRegistry(name, offsets, minSupport, sigs)
	if err != nil {
		panic(err)
	}
	return r
}

// Offsets returns the window-relative byte offsets this registry reads.
func (r *Registry) Offsets() []int {
	out := make([]int, len(r.offsets))
	copy(out, r.offsets)
	return out
}

// Classify builds the word tuple at the registry's offsets and looks it up.
// An absent tuple, or one whose support is below the registry threshold,
// yields StateUnknown.
func (r *Registry) Classify(w PointerWindow) TriState {
	words := make([]uint16, len(r.offsets))
	for i, off := range r.offsets {
		word, ok := w.Word(off)
		if !ok {
			return StateUnknown
		}
		words[i] = word
	}
	sig, ok := r.table[tupleKey(words)]
	if !ok || sig.Support < r.minSupport {
		return StateUnknown
	}
	if sig.State {
		return StateOn
	}
	return StateOff
}

func tupleKey(words []uint16) string {
	key := make([]byte, len(words)*2)
	for i, w := range words {
		binary.LittleEndian.PutUint16(key[i*2:], w)
	}
	return string(key)
}

// Curated signature tables. Tuples and support counts come from labeled
// corpus captures; a tuple absent here classifies as unknown.
var (
	// FilterRegistry tracks words 5 and 6 of the pointer window and reports
	// whether the track's filter module is enabled. Several distinct tuples
	// map to the same state across firmware captures.
	FilterRegistry = MustNewRegistry("filter", []int{0x0A, 0x0C}, 3, []Signature{
		{Words: []uint16{0x0000, 0x0000}, State: false, Support: 41},
		{Words: []uint16{0x0000, 0x0001}, State: false, Support: 9},
		{Words: []uint16{0x0404, 0x0001}, State: true, Support: 17},
		{Words: []uint16{0x0404, 0x0003}, State: true, Support: 6},
		{Words: []uint16{0x0604, 0x0001}, State: true, Support: 4},
		// Seen twice in one capture session; below threshold until more
		// labeled captures confirm it.
		{Words: []uint16{0x0204, 0x0001}, State: true, Support: 2},
	})

	// ModRegistry tracks words 6 and 10 and reports the m4 modulation flag.
	// Its signature table is curated independently of the filter table.
	ModRegistry = MustNewRegistry("m4", []int{0x0C, 0x14}, 3, []Signature{
		{Words: []uint16{0x0000, 0x0000}, State: false, Support: 38},
		{Words: []uint16{0x0001, 0x0000}, State: false, Support: 12},
		{Words: []uint16{0x0001, 0x2010}, State: true, Support: 11},
		{Words: []uint16{0x0003, 0x2010}, State: true, Support: 5},
	})
)
