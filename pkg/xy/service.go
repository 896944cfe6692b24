package xy

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kmorrill/xy-format-sub001/internal/corpus"
	"github.com/kmorrill/xy-format-sub001/internal/format"
	"github.com/kmorrill/xy-format-sub001/internal/report"
	"github.com/kmorrill/xy-format-sub001/pkg/logger"
)

// xyService is the default implementation of the Service interface.
type xyService struct {
	storage Storage
	log     Logger
	config  *Config
}

func NewService(opts ...Option) (Service, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	if cfg.Logger == nil {
		cfg.Logger = logger.GetLogger()
	}

	var stor Storage
	if cfg.Storage != nil {
		stor = cfg.Storage
	} else {
		var err error
		stor, err = corpus.Open(cfg.DBPath)
		if err != nil {
			return nil, fmt.Errorf("opening capture index: %w", err)
		}
	}

	return &xyService{
		storage: stor,
		log:     cfg.Logger,
		config:  cfg,
	}, nil
}

func (s *xyService) loadProject(path string) ([]byte, *format.Project, error) {
	buf, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return buf, format.DecodeProject(buf), nil
}

// Inspect decodes a project file and writes its text report.
func (s *xyService) Inspect(ctx context.Context, path string, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	_, p, err := s.loadProject(path)
	if err != nil {
		return err
	}
	s.log.Debug("decoded %s: %d tracks, %d events", path, len(p.Tracks), p.EventCount())
	report.RenderProject(w, path, p)
	return nil
}

// Activate rewrites a blank track to its device-touched state and writes the
// result to outPath. The input file is never modified.
func (s *xyService) Activate(ctx context.Context, path, outPath string, track int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	out, err := format.Activate(buf, track)
	if err != nil {
		return fmt.Errorf("activating track %d: %w", track, err)
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	s.log.Info("activated track %d: %s -> %s", track, path, outPath)
	return nil
}

// WriteTrig activates a track and encodes a single quantised trigger on it,
// writing the result to outPath.
func (s *xyService) WriteTrig(ctx context.Context, path, outPath string, track int, trig Trig) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	buf, p, err := s.loadProject(path)
	if err != nil {
		return err
	}
	out, err := format.Activate(buf, track)
	if err != nil {
		return fmt.Errorf("activating track %d: %w", track, err)
	}

	blockOffset := p.Tracks[track-1].Block.Offset
	spec := format.TrigSpec{
		Step:        trig.Step,
		Note:        trig.Note,
		Velocity:    trig.Velocity,
		GatePercent: trig.GatePercent,
		GateTicks:   trig.GateTicks,
		HasGateT:    trig.HasGateTicks,
		Voice:       trig.Voice,
	}
	if err := format.ApplySingleTrig(out, blockOffset, track, spec); err != nil {
		return fmt.Errorf("writing trig: %w", err)
	}
	if err := os.WriteFile(outPath, out, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", outPath, err)
	}
	s.log.Info("wrote trig step %d note %d on track %d: %s -> %s",
		trig.Step, trig.Note, track, path, outPath)
	return nil
}

// Index decodes a project file and stores its summary in the capture index.
func (s *xyService) Index(ctx context.Context, path, label string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	_, p, err := s.loadProject(path)
	if err != nil {
		return "", err
	}
	id, err := s.storage.IndexProject(path, label, p)
	if err != nil {
		return "", err
	}
	s.log.Info("indexed %s as %s (%d tracks)", path, id, len(p.Tracks))
	return id, nil
}

// ListCaptures returns the indexed captures, newest first.
func (s *xyService) ListCaptures() ([]CaptureInfo, error) {
	caps, err := s.storage.ListCaptures()
	if err != nil {
		return nil, err
	}
	infos := make([]CaptureInfo, 0, len(caps))
	for _, c := range caps {
		infos = append(infos, CaptureInfo{
			ID:         c.ID,
			Path:       c.Path,
			Label:      c.Label,
			Size:       c.Size,
			TempoBPM:   c.TempoBPM,
			TrackCount: c.TrackCount,
			EventCount: c.EventCount,
			CreatedAt:  c.CreatedAt,
		})
	}
	return infos, nil
}

// Compare diffs two indexed captures and writes the rendered result.
func (s *xyService) Compare(ctx context.Context, refA, refB string, w io.Writer) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	res, err := s.storage.Compare(refA, refB)
	if err != nil {
		return err
	}
	views := make([]report.TrackDiffView, 0, len(res.Tracks))
	for _, t := range res.Tracks {
		v := report.TrackDiffView{TrackIndex: t.TrackIndex}
		for _, d := range t.Diffs {
			v.Fields = append(v.Fields, report.FieldView{Field: d.Field, A: d.A, B: d.B})
		}
		views = append(views, v)
	}
	labelA, labelB := res.A.Label, res.B.Label
	if labelA == "" {
		labelA = res.A.Path
	}
	if labelB == "" {
		labelB = res.B.Path
	}
	report.RenderCompare(w, labelA, labelB, views)
	return nil
}

func (s *xyService) DeleteCapture(captureID string) error {
	return s.storage.DeleteCapture(captureID)
}

// Close releases the capture index.
func (s *xyService) Close() error {
	return s.storage.Close()
}
