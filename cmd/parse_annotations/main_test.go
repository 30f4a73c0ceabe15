package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jdginn/go-roomsim/room"
)

func TestFindLocalMaximaClusters(t *testing.T) {
	assert.Nil(t, FindLocalMaximaClusters(nil, 0.05, 4))

	peaks := []Peak{
		{TimeMs: 1.00, GainDb: -10},
		{TimeMs: 1.03, GainDb: -8},
		{TimeMs: 1.05, GainDb: -9},
		{TimeMs: 2.00, GainDb: -20},
		{TimeMs: 2.01, GainDb: -30},
	}
	clusters := FindLocalMaximaClusters(peaks, 0.05, 4)
	require.Len(t, clusters, 3)
	assert.Equal(t, Peak{TimeMs: 1.03, GainDb: -8}, clusters[0])
	assert.Equal(t, Peak{TimeMs: 2.00, GainDb: -20}, clusters[1])
	assert.Equal(t, Peak{TimeMs: 2.01, GainDb: -30}, clusters[2])
}

func TestPeaksFromAnnotations(t *testing.T) {
	a := room.AnnotationsJSON{AcousticPaths: []room.AcousticPathJSON{
		{Order: 2, Delay: 0.030, Energy: -18},
		{Order: 0, Delay: 0.010, Energy: -12},
		{Order: 1, Delay: 0.015, Energy: -15},
	}}
	peaks, err := PeaksFromAnnotations(a)
	require.NoError(t, err)
	require.Len(t, peaks, 2)
	assert.InDelta(t, 5, peaks[0].TimeMs, 1e-9)
	assert.InDelta(t, -3, peaks[0].GainDb, 1e-9)
	assert.InDelta(t, 20, peaks[1].TimeMs, 1e-9)

	_, err = PeaksFromAnnotations(room.AnnotationsJSON{})
	assert.Error(t, err)
}
