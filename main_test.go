package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdginn/go-roomsim/room"
	"github.com/jdginn/go-roomsim/room/experiment"
)

func TestRenderTable(t *testing.T) {
	assert.Empty(t, renderTable(nil, nil, nil))

	out := renderTable([]string{"Name", "Value"}, [][]string{{"a", "1"}, {"b"}}, []columnAlignment{alignLeft, alignRight})
	assert.Contains(t, out, "Name")
	assert.NotContains(t, out, "NAME")
	assert.Contains(t, out, "╭")
	assert.Equal(t, 5, strings.Count(out, "\n"))
}

func TestMetricsTable(t *testing.T) {
	out := metricsTable(experiment.Summary{Pairs: []experiment.PairSummary{
		{Mic: 0, MicName: "listener", Source: 1, Metrics: room.Metrics{RT60: 0.412, C50: 3.26}, ITDG: 0.0042, Incomplete: true},
		{Mic: 1, Source: 0, Error: "room: energy decay incomplete"},
	}})
	assert.Contains(t, out, "listener")
	assert.Contains(t, out, "0.412 s")
	assert.Contains(t, out, "3.3 dB")
	assert.Contains(t, out, "4.2 ms")
	assert.Contains(t, out, "decay incomplete")

	assert.Empty(t, bandTable(experiment.Summary{}))
	bands := bandTable(experiment.Summary{Bands: []float64{125, 250}, SabineRT60: []float64{0.5, 0.4}})
	assert.Contains(t, bands, "125 Hz")
	assert.Contains(t, bands, "0.400 s")
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := newLogger(&buf, "auto", false)
	require.NoError(t, err)
	logger.Info("hello", "walls", 6)
	logger.Debug("hidden")
	assert.Contains(t, buf.String(), `"walls":6`)
	assert.NotContains(t, buf.String(), "hidden")

	buf.Reset()
	logger, err = newLogger(&buf, "text", true)
	require.NoError(t, err)
	logger.Debug("shown")
	assert.Contains(t, buf.String(), "msg=shown")

	_, err = newLogger(&buf, "xml", false)
	assert.Error(t, err)
}

func TestSabineCmd(t *testing.T) {
	assert.NoError(t, SabineCmd{RT60: 0.3, Dimensions: []float64{6, 4, 3}, SpeedOfSound: 343}.Run())
	assert.Error(t, SabineCmd{RT60: 0.3, Dimensions: []float64{6, 4}, SpeedOfSound: 343}.Run())
	assert.ErrorIs(t, SabineCmd{RT60: 0.01, Dimensions: []float64{6, 4, 3}, SpeedOfSound: 343}.Run(), room.ErrConfiguration)
}
