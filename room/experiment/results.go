package experiment

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"gonum.org/v1/plot/vg"

	"github.com/jdginn/go-roomsim/room"
)

const (
	RIRsFile        = "rirs.json"
	SignalsFile     = "signals.json"
	SummaryFile     = "summary.json"
	FloorPlanWidth  = 1000
	FloorPlanHeight = 1000
)

// PairSummary holds the acoustic metrics of one (microphone, source) pair
type PairSummary struct {
	Mic        int          `json:"mic"`
	MicName    string       `json:"mic_name,omitempty"`
	Source     int          `json:"source"`
	Metrics    room.Metrics `json:"metrics"`
	ITDG       float64      `json:"itdg,omitempty"` // seconds
	Arrivals   int          `json:"arrivals"`
	Incomplete bool         `json:"incomplete_decay,omitempty"`
	Error      string       `json:"error,omitempty"`
}

// Summary describes a finished simulation
type Summary struct {
	ID          string        `json:"id"`
	SampleRate  float64       `json:"sample_rate"`
	Volume      float64       `json:"volume"`
	SurfaceArea float64       `json:"surface_area"`
	SabineRT60  []float64     `json:"sabine_rt60,omitempty"`
	EyringRT60  []float64     `json:"eyring_rt60,omitempty"`
	Bands       []float64     `json:"bands"`
	Pairs       []PairSummary `json:"pairs"`
}

type rirsJSON struct {
	SampleRate float64       `json:"sample_rate"`
	RIRs       [][][]float64 `json:"rirs"` // [mic][source]
	Mics       []string      `json:"mics"`
}

// Summarize analyzes every RIR of a simulated room. Pair failures are recorded
// in the summary, not returned.
func Summarize(r *room.Room) Summary {
	cfg := r.Config()
	s := Summary{
		SampleRate:  cfg.Fs,
		Volume:      r.Volume(),
		SurfaceArea: r.SurfaceArea(),
		Bands:       r.Bands().Centers,
	}
	// JSON has no infinity, so reflective rooms report no prediction
	if rt := r.SabineRT60(); allFinite(rt) {
		s.SabineRT60 = rt
	}
	if rt := r.EyringRT60(); allFinite(rt) {
		s.EyringRT60 = rt
	}

	mics := r.Microphones()
	for m := range mics {
		for src := range r.Sources() {
			p := PairSummary{Mic: m, MicName: mics[m].Name, Source: src}
			if arrivals, err := r.Arrivals(m, src); err == nil {
				p.Arrivals = len(arrivals)
				p.ITDG = room.ITDG(arrivals)
			}
			rir, err := r.RIR(m, src)
			if errors.Is(err, room.ErrIncompleteDecay) {
				p.Incomplete = true
			} else if err != nil {
				p.Error = err.Error()
				s.Pairs = append(s.Pairs, p)
				continue
			}
			if p.Metrics, err = room.AnalyzeRIR(rir, cfg.Fs); err != nil {
				p.Error = err.Error()
			}
			// clarity is infinite when all the energy falls on one side of the boundary
			for _, c := range []*float64{&p.Metrics.C50, &p.Metrics.C80} {
				if math.IsInf(*c, 0) {
					*c = 0
				}
			}
			s.Pairs = append(s.Pairs, p)
		}
	}
	return s
}

func allFinite(xs []float64) bool {
	for _, x := range xs {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

// WriteResults writes the RIRs, microphone signals, summary, RIR plots and,
// when image sources were computed, a floor plan and annotations of every pair.
func (e *ExperimentDir) WriteResults(r *room.Room, maxOrder int, logger *slog.Logger) (Summary, error) {
	if logger == nil {
		logger = slog.Default()
	}
	cfg := r.Config()
	mics := r.Microphones()

	names := make([]string, len(mics))
	for i, m := range mics {
		names[i] = m.Name
	}
	if err := e.WriteJSON(RIRsFile, rirsJSON{SampleRate: cfg.Fs, RIRs: r.RIRs(), Mics: names}); err != nil {
		return Summary{}, err
	}
	if signals := r.MicSignals(); signals != nil {
		if err := e.WriteJSON(SignalsFile, signals); err != nil {
			return Summary{}, err
		}
	}

	summary := Summarize(r)
	summary.ID = e.ID
	if err := e.WriteJSON(SummaryFile, summary); err != nil {
		return Summary{}, err
	}

	for _, p := range summary.Pairs {
		if p.Error != "" {
			logger.Warn("skipping plots", "mic", p.Mic, "source", p.Source, "error", p.Error)
			continue
		}
		if err := e.writePairPlots(r, p.Mic, p.Source, maxOrder); err != nil {
			return summary, err
		}
	}
	logger.Info("wrote results", "dir", e.Path, "pairs", len(summary.Pairs))
	return summary, nil
}

func (e *ExperimentDir) writePairPlots(r *room.Room, mic, src, maxOrder int) error {
	suffix := fmt.Sprintf("m%d_s%d", mic, src)
	rir, err := r.RIR(mic, src)
	if err != nil && !errors.Is(err, room.ErrIncompleteDecay) {
		return err
	}
	p, err := room.PlotRIR(rir, r.Config().Fs, fmt.Sprintf("RIR mic %d, source %d", mic, src))
	if err != nil {
		return fmt.Errorf("plotting RIR: %w", err)
	}
	if err := room.SavePlot(p, e.GetFilePath("rir_"+suffix+".png"), 8*vg.Inch, 4*vg.Inch); err != nil {
		return fmt.Errorf("saving RIR plot: %w", err)
	}

	arrivals, err := r.Arrivals(mic, src)
	if err != nil || len(arrivals) == 0 {
		return nil
	}
	p, err = room.PlotArrivals(arrivals, fmt.Sprintf("Arrivals mic %d, source %d", mic, src))
	if err != nil {
		return fmt.Errorf("plotting arrivals: %w", err)
	}
	if err := room.SavePlot(p, e.GetFilePath("arrivals_"+suffix+".png"), 8*vg.Inch, 4*vg.Inch); err != nil {
		return fmt.Errorf("saving arrivals plot: %w", err)
	}

	z := r.Microphones()[mic].Position.Z
	view := room.FloorPlan(r, z, FloorPlanWidth, FloorPlanHeight)
	if err := view.SaveFloorPlan(e.GetFilePath("floorplan_"+suffix+".png"), mic, src, maxOrder); err != nil {
		return fmt.Errorf("saving floor plan: %w", err)
	}
	return r.SaveAnnotations(e.GetFilePath("annotations_"+suffix+".json"), mic, src, maxOrder)
}
