// Package report renders decoded projects as human-readable text for the CLI.
package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/kmorrill/xy-format-sub001/internal/format"
)

// RenderProject writes a full text report of a decoded project.
func RenderProject(w io.Writer, name string, p *format.Project) {
	fmt.Fprintf(w, "project %s (%s)\n", name, humanize.Bytes(uint64(p.Size)))
	if p.Header.Ok {
		fmt.Fprintf(w, "  tempo %.1f BPM  groove type %d amount %d  metronome %d\n",
			p.Header.BPM(), p.Header.GrooveType, p.Header.GrooveAmount, p.Header.Metronome)
		for _, eq := range p.Header.EQ {
			fmt.Fprintf(w, "  eq band %d value %d\n", eq.BandID, eq.Value)
		}
	} else {
		fmt.Fprintln(w, "  header: unreadable")
	}
	fmt.Fprintf(w, "  tracks %d  events %s\n", len(p.Tracks), humanize.Comma(int64(p.EventCount())))

	for _, t := range p.Tracks {
		renderTrack(w, t)
	}
}

func renderTrack(w io.Writer, t format.Track) {
	engine := "-"
	if t.HasEngine {
		engine = fmt.Sprintf("0x%02X", t.EngineID)
	}
	fmt.Fprintf(w, "track %d @ 0x%X  engine %s  scale %d  length %d  filter %s  mod %s\n",
		t.Index, t.Block.Offset, engine, t.Scale, t.PatternLength, t.Filter, t.Mod)

	for _, e := range t.Events {
		fmt.Fprintf(w, "  [0x%X] %s x%d %s\n", e.Offset, eventTypeName(e.Type), e.Count, e.Variant)
		if e.Step > 0 {
			fmt.Fprintf(w, "    step %d (beat %d)\n", e.Step, e.Beat)
		} else {
			fmt.Fprintln(w, "    step unresolved")
		}
		for _, n := range e.Notes {
			fmt.Fprintf(w, "    note %s vel %d\n", midiName(n.Note), n.Velocity)
		}
		if pc := format.PointerCount(e.TailEntries); pc > 0 {
			fmt.Fprintf(w, "    tail pointers %d\n", pc)
		}
	}
	for _, m := range t.Meta {
		fmt.Fprintf(w, "  [0x%X] live variant 0x%02X\n", m.Offset, m.Variant)
		if m.Variant == 0x01 {
			if m.Step > 0 {
				fmt.Fprintf(w, "    step %d (beat %d) micro %+0.2f gate %d\n", m.Step, m.Beat, m.Micro, m.GateTicks)
			} else {
				fmt.Fprintln(w, "    step unresolved")
			}
			if m.Note >= 0 {
				fmt.Fprintf(w, "    note %s\n", midiName(uint8(m.Note)))
			}
		} else {
			fmt.Fprintf(w, "    tail entries %d, note unresolved\n", len(m.TailEntries))
		}
	}
}

func eventTypeName(t uint8) string {
	switch t {
	case 0x25:
		return "quant"
	case 0x2D:
		return "quant-alt"
	case 0x21:
		return "live"
	default:
		return fmt.Sprintf("0x%02X", t)
	}
}

var noteNames = [12]string{"C", "C#", "D", "D#", "E", "F", "F#", "G", "G#", "A", "A#", "B"}

// midiName renders a MIDI note number as name and octave, middle C (60) = C4.
func midiName(n uint8) string {
	octave := int(n)/12 - 1
	return fmt.Sprintf("%s%d (%d)", noteNames[n%12], octave, n)
}

// RenderCompare writes a capture diff as indented text.
func RenderCompare(w io.Writer, labelA, labelB string, tracks []TrackDiffView) {
	if len(tracks) == 0 {
		fmt.Fprintf(w, "%s and %s decode identically\n", labelA, labelB)
		return
	}
	fmt.Fprintf(w, "%s vs %s: %d track(s) differ\n", labelA, labelB, len(tracks))
	for _, t := range tracks {
		fmt.Fprintf(w, "track %d\n", t.TrackIndex)
		for _, d := range t.Fields {
			fmt.Fprintf(w, "  %-14s %s -> %s\n", d.Field+":", orDash(d.A), orDash(d.B))
		}
	}
}

// TrackDiffView decouples the renderer from the corpus store's row types.
type TrackDiffView struct {
	TrackIndex int
	Fields     []FieldView
}

type FieldView struct {
	Field string
	A, B  string
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
