package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/jdginn/go-roomsim/interact"
	"github.com/jdginn/go-roomsim/room"
	"github.com/jdginn/go-roomsim/room/config"
	"github.com/jdginn/go-roomsim/room/experiment"
)

var CLI struct {
	LogFormat string `name:"log-format" enum:"auto,text,json" default:"auto" help:"Log format: auto, text or json"`
	Debug     bool   `help:"Log debug messages"`

	Simulate  SimulateCmd  `cmd:"" help:"Simulate a room described by an experiment config"`
	Validate  ValidateCmd  `cmd:"" help:"Validate an experiment config"`
	Sabine    SabineCmd    `cmd:"" help:"Absorption and image source order giving a target RT60 in a shoebox"`
	Browse    BrowseCmd    `cmd:"" help:"Browse the image source arrivals of one microphone and source"`
	Materials MaterialsCmd `cmd:"" help:"List the built-in absorption and scattering sets"`
}

func loadConfig(path string) (*config.ExperimentConfig, error) {
	return config.LoadFromFile(path, config.LoadOptions{
		ValidateImmediately: true,
		ResolvePaths:        true,
		MergeFiles:          true,
	})
}

type SimulateCmd struct {
	Config  string `arg:"" name:"config" help:"experiment config file" type:"existingfile"`
	Output  string `name:"output" short:"o" default:"experiments" help:"directory holding the experiment directories"`
	Reflect int    `name:"reflection-order" default:"3" help:"highest reflection order drawn on floor plans and annotations"`
}

func (c SimulateCmd) Run(logger *slog.Logger) error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	r, err := cfg.Build(logger)
	if err != nil {
		return fmt.Errorf("building room: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := r.Simulate(ctx); err != nil {
		// per pair failures leave the other pairs usable
		if errors.Is(err, room.ErrState) || errors.Is(err, context.Canceled) {
			return err
		}
		logger.Warn("simulation finished with errors", "error", err)
	}

	dir, err := experiment.CreateExperimentDirectory(c.Output, logger)
	if err != nil {
		return err
	}
	if err := dir.CopyConfigFile(c.Config); err != nil {
		return err
	}
	if err := config.SaveToFile(cfg, dir.GetFilePath("resolved.yaml")); err != nil {
		return err
	}
	summary, err := dir.WriteResults(r, c.Reflect, logger)
	if err != nil {
		return err
	}

	fmt.Println(metricsTable(summary))
	if bands := bandTable(summary); bands != "" {
		fmt.Println(bands)
	}
	fmt.Printf("Results written to %s\n", dir.Path)
	return nil
}

type ValidateCmd struct {
	Config string `arg:"" name:"config" help:"experiment config file" type:"existingfile"`
	Build  bool   `name:"build" help:"also build the room and place sources and microphones"`
}

func (c ValidateCmd) Run(logger *slog.Logger) error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	if c.Build {
		r, err := cfg.Build(logger)
		if err != nil {
			return err
		}
		fmt.Printf("%s: %d walls, %.2f m³, %d sources, %d microphones\n",
			c.Config, len(r.Walls()), r.Volume(), len(r.Sources()), len(r.Microphones()))
		return nil
	}
	fmt.Printf("%s is valid\n", c.Config)
	return nil
}

type SabineCmd struct {
	RT60         float64   `arg:"" name:"rt60" help:"target reverberation time in seconds"`
	Dimensions   []float64 `arg:"" name:"dimensions" help:"length, width and height in meters"`
	SpeedOfSound float64   `name:"speed-of-sound" default:"343" help:"speed of sound in m/s"`
}

func (c SabineCmd) Run() error {
	if len(c.Dimensions) != 3 {
		return fmt.Errorf("need 3 dimensions, got %d", len(c.Dimensions))
	}
	absorption, order, err := room.InverseSabine(c.RT60, room.V(c.Dimensions[0], c.Dimensions[1], c.Dimensions[2]), c.SpeedOfSound)
	if err != nil {
		return err
	}
	fmt.Println(renderTable(
		[]string{"RT60", "Absorption", "Max order"},
		[][]string{{seconds(c.RT60), fmt.Sprintf("%.4f", absorption), fmt.Sprint(order)}},
		[]columnAlignment{alignRight, alignRight, alignRight},
	))
	return nil
}

type BrowseCmd struct {
	Config string `arg:"" name:"config" help:"experiment config file" type:"existingfile"`
	Mic    int    `name:"mic" default:"0" help:"microphone index"`
	Source int    `name:"source" default:"0" help:"source index"`
	Out    string `name:"out" default:"arrival.png" help:"floor plan of the selected arrival"`
}

func (c BrowseCmd) Run(logger *slog.Logger) error {
	cfg, err := loadConfig(c.Config)
	if err != nil {
		return err
	}
	r, err := cfg.Build(logger)
	if err != nil {
		return err
	}
	if err := r.ImageSourceModel(); err != nil && !errors.Is(err, room.ErrResourceLimit) {
		return err
	}
	return interact.Interact(r, c.Mic, c.Source, c.Out)
}

type MaterialsCmd struct{}

func (MaterialsCmd) Run() error {
	absorption, scattering := room.MaterialNames()
	rows := make([][]string, 0, len(absorption)+len(scattering))
	for _, name := range absorption {
		m, err := room.LookupMaterial(name, "")
		if err != nil {
			return err
		}
		rows = append(rows, []string{name, "absorption", formatCoeffs(m.Absorption)})
	}
	for _, name := range scattering {
		m, err := room.LookupMaterial(absorption[0], name)
		if err != nil {
			return err
		}
		rows = append(rows, []string{name, "scattering", formatCoeffs(m.Scattering)})
	}
	fmt.Println(renderTable([]string{"Name", "Kind", "Coefficients"}, rows, nil))
	return nil
}

func formatCoeffs(c []float64) string {
	parts := make([]string, len(c))
	for i, v := range c {
		parts[i] = fmt.Sprintf("%.2f", v)
	}
	return strings.Join(parts, " ")
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("roomsim"),
		kong.Description("Hybrid image source and ray tracing room impulse response simulator"),
		kong.UsageOnError(),
	)
	logger, err := newLogger(os.Stderr, CLI.LogFormat, CLI.Debug)
	ctx.FatalIfErrorf(err)
	slog.SetDefault(logger)
	ctx.FatalIfErrorf(ctx.Run(logger))
}
