package main

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/jdginn/go-roomsim/room"
)

// Sample represents a processed impulse response sample
type Sample struct {
	TimeMs float64
	Linear float64
	Db     float64
}

// LinearToDb converts a linear amplitude value to decibels
func LinearToDb(volume float64, minDb float64) float64 {
	if volume == 0.0 {
		return minDb
	}
	return 20.0 * math.Log10(math.Abs(volume))
}

// ParseImpulseResponse reads an impulse response exported by REW as text
func ParseImpulseResponse(r io.Reader) (peakIndex int, sampleInterval float64, samples []float64, err error) {
	scanner := bufio.NewScanner(r)
	peakIndex = -1
	foundDataStart := false

	// Header lines carry the value first and a comment after it
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.Contains(line, "// Peak index") {
			parts := strings.Fields(line)
			peakIndex, _ = strconv.Atoi(parts[0])
		} else if strings.Contains(line, "// Sample interval (seconds)") {
			parts := strings.Fields(line)
			sampleInterval, _ = strconv.ParseFloat(parts[0], 64)
		} else if line == "* Data start" {
			foundDataStart = true
			break
		}
	}
	if !foundDataStart {
		return 0, 0, nil, fmt.Errorf("* Data start not found")
	}

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		val, parseErr := strconv.ParseFloat(line, 64)
		if parseErr != nil {
			continue
		}
		samples = append(samples, val)
	}
	if err := scanner.Err(); err != nil {
		return 0, 0, nil, err
	}

	if peakIndex < 0 || peakIndex >= len(samples) || sampleInterval <= 0 {
		return 0, 0, nil, fmt.Errorf("metadata missing or malformed")
	}
	return peakIndex, sampleInterval, samples, nil
}

// MakeProcessedSamples returns the samples from peakIndex on, timed from the peak
func MakeProcessedSamples(peakIndex int, sampleInterval float64, samples []float64) []Sample {
	var result []Sample
	for i, v := range samples[peakIndex:] {
		result = append(result, Sample{
			TimeMs: float64(i) * sampleInterval / room.MS,
			Linear: v,
			Db:     LinearToDb(v, -120.0),
		})
	}
	return result
}

// FindLocalMaxima returns the loudest sample of every span above baseline+thresholdDb
func FindLocalMaxima(samples []Sample, thresholdDb float64, baseline float64) []Sample {
	var maxima []Sample
	inSpan := false
	var currMax Sample

	for _, s := range samples {
		if s.Db >= baseline+thresholdDb {
			if !inSpan || s.Db > currMax.Db {
				currMax = s
			}
			inSpan = true
		} else if inSpan {
			maxima = append(maxima, currMax)
			inSpan = false
		}
	}
	if inSpan {
		maxima = append(maxima, currMax)
	}
	return maxima
}

var CLI struct {
	Input     string  `arg:"" name:"input" help:"impulse response exported by REW" type:"existingfile"`
	Output    string  `arg:"" name:"output" help:"file to write the peaks to"`
	Baseline  float64 `name:"baseline" default:"-30" help:"baseline level in dB"`
	Threshold float64 `name:"threshold" default:"6" help:"level above the baseline counted as a peak, in dB"`
}

func run(w io.Writer) error {
	in, err := os.Open(CLI.Input)
	if err != nil {
		return err
	}
	defer in.Close()
	peakIndex, sampleInterval, samples, err := ParseImpulseResponse(in)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", CLI.Input, err)
	}

	metrics, err := room.AnalyzeRIR(samples, 1/sampleInterval)
	if err != nil {
		fmt.Fprintf(w, "Analysis incomplete: %v\n", err)
	}
	fmt.Fprintf(w, "RT60 %.3f s, EDT %.3f s, C50 %.1f dB, C80 %.1f dB, D50 %.2f\n",
		metrics.RT60, metrics.EDT, metrics.C50, metrics.C80, metrics.D50)

	maxima := FindLocalMaxima(MakeProcessedSamples(peakIndex, sampleInterval, samples), CLI.Threshold, CLI.Baseline)
	out, err := os.Create(CLI.Output)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer out.Close()
	bw := bufio.NewWriter(out)
	fmt.Fprintf(bw, "Impulse Response Peaks\n")
	for _, s := range maxima {
		fmt.Fprintf(bw, "%.6fms, %.2fdB\n", s.TimeMs, s.Db)
	}
	if err := bw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "Wrote %d local maxima to %s\n", len(maxima), CLI.Output)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI, kong.Description("Find the peaks of a measured impulse response and report its room acoustic metrics"))
	ctx.FatalIfErrorf(run(os.Stdout))
}
