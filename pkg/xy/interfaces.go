package xy

import (
	"context"
	"io"
	"time"

	"github.com/kmorrill/xy-format-sub001/internal/corpus"
	"github.com/kmorrill/xy-format-sub001/internal/format"
)

// Service is the high-level API over project files: decode and report,
// perform the supported write transitions, and maintain the capture index.
type Service interface {
	Inspect(ctx context.Context, path string, w io.Writer) error
	Activate(ctx context.Context, path, outPath string, track int) error
	WriteTrig(ctx context.Context, path, outPath string, track int, trig Trig) error
	Index(ctx context.Context, path, label string) (string, error)
	ListCaptures() ([]CaptureInfo, error)
	Compare(ctx context.Context, refA, refB string, w io.Writer) error
	DeleteCapture(captureID string) error
	Close() error
}

// Storage is the capture-index backend. The default is the sqlite store;
// tests may substitute their own.
type Storage interface {
	IndexProject(path, label string, p *format.Project) (string, error)
	ListCaptures() ([]corpus.Capture, error)
	Compare(refA, refB string) (*corpus.CompareResult, error)
	DeleteCapture(captureID string) error
	Close() error
}

type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// Trig describes one quantised trigger for WriteTrig. Step is 0-based. Gate
// is a percentage of one step unless GateTicks is set explicitly.
type Trig struct {
	Step         int
	Note         int
	Velocity     int
	GatePercent  int
	GateTicks    int
	HasGateTicks bool
	Voice        int
}

// CaptureInfo is the index row returned by ListCaptures.
type CaptureInfo struct {
	ID         string
	Path       string
	Label      string
	Size       int
	TempoBPM   float64
	TrackCount int
	EventCount int
	CreatedAt  time.Time
}
