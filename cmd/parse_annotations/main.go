package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"

	"github.com/alecthomas/kong"

	"github.com/jdginn/go-roomsim/room"
)

// Peak is a reflection delayed after the direct sound, in the format written by parse_rew_ir
type Peak struct {
	TimeMs float64
	GainDb float64
}

// FindLocalMaximaClusters merges peaks that are "close enough" into a single representative peak.
// - timeThreshold: max allowed time difference in ms within a cluster
// - gainThreshold: max allowed gain difference in dB within a cluster
func FindLocalMaximaClusters(peaks []Peak, timeThreshold, gainThreshold float64) []Peak {
	if len(peaks) == 0 {
		return nil
	}

	var clusters [][]Peak
	current := []Peak{peaks[0]}
	for i := 1; i < len(peaks); i++ {
		last := current[len(current)-1]
		dt := peaks[i].TimeMs - last.TimeMs
		dg := math.Abs(peaks[i].GainDb - last.GainDb)
		if dt <= timeThreshold && dg <= gainThreshold {
			current = append(current, peaks[i])
		} else {
			clusters = append(clusters, current)
			current = []Peak{peaks[i]}
		}
	}
	clusters = append(clusters, current)

	var result []Peak
	for _, cluster := range clusters {
		best := cluster[0]
		for _, p := range cluster {
			// Higher gain wins; on a tie the earliest
			if p.GainDb > best.GainDb || (math.Abs(p.GainDb-best.GainDb) < 1e-6 && p.TimeMs < best.TimeMs) {
				best = p
			}
		}
		result = append(result, best)
	}
	return result
}

// PeaksFromAnnotations returns every reflection path relative to the direct path, sorted by delay
func PeaksFromAnnotations(a room.AnnotationsJSON) ([]Peak, error) {
	direct := -1
	for i, p := range a.AcousticPaths {
		if p.Order == 0 {
			direct = i
		}
	}
	if direct < 0 {
		return nil, fmt.Errorf("annotations have no direct path")
	}
	ref := a.AcousticPaths[direct]

	var peaks []Peak
	for i, p := range a.AcousticPaths {
		if i == direct {
			continue
		}
		peaks = append(peaks, Peak{
			TimeMs: (p.Delay - ref.Delay) / room.MS,
			GainDb: p.Energy - ref.Energy,
		})
	}
	sort.Slice(peaks, func(i, j int) bool {
		return peaks[i].TimeMs < peaks[j].TimeMs
	})
	return peaks, nil
}

var CLI struct {
	Input         string  `arg:"" name:"input" help:"annotations written by roomsim simulate" type:"existingfile"`
	Output        string  `arg:"" name:"output" help:"file to write the peaks to"`
	TimeThreshold float64 `name:"time-threshold" default:"0.05" help:"peaks closer than this many ms are merged"`
	GainThreshold float64 `name:"gain-threshold" default:"4" help:"peaks within this many dB are merged"`
}

func run(w io.Writer) error {
	data, err := os.ReadFile(CLI.Input)
	if err != nil {
		return err
	}
	var annotations room.AnnotationsJSON
	if err := json.Unmarshal(data, &annotations); err != nil {
		return fmt.Errorf("decoding %s: %w", CLI.Input, err)
	}
	peaks, err := PeaksFromAnnotations(annotations)
	if err != nil {
		return err
	}

	out, err := os.Create(CLI.Output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()
	clusters := FindLocalMaximaClusters(peaks, CLI.TimeThreshold, CLI.GainThreshold)
	fmt.Fprintln(out, "Impulse Response Peaks")
	for _, p := range clusters {
		fmt.Fprintf(out, "%.6fms, %.2fdB\n", p.TimeMs, p.GainDb)
	}
	fmt.Fprintf(w, "Wrote %d peaks from %d paths to %s\n", len(clusters), len(peaks), CLI.Output)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI, kong.Description("Convert simulated reflection paths to the peak list of parse_rew_ir"))
	ctx.FatalIfErrorf(run(os.Stdout))
}
