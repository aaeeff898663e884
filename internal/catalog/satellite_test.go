package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Real ISS-like TLE, used across tests for a known-good circular-ish LEO orbit.
const (
	issLine1 = "1 25544U 98067A   24001.50000000  .00016717  00000-0  10270-3 0  9008"
	issLine2 = "2 25544  51.6400 208.9163 0006317  69.9862 130.5394 15.49560786123456"
)

func TestParseTLE_DerivesElements(t *testing.T) {
	sat, err := ParseTLE(25544, "ISS (ZARYA)", issLine1, issLine2)
	require.NoError(t, err)

	assert.Equal(t, 25544, sat.CatalogNumber)
	assert.InDelta(t, 51.64, sat.InclinationDeg, 1e-3)
	assert.InDelta(t, 208.9163, sat.RAANDeg, 1e-3)
	assert.InDelta(t, 0.0006317, sat.Eccentricity, 1e-7)
	assert.InDelta(t, 15.49560786, sat.MeanMotionRevPerDay, 1e-6)
	assert.True(t, sat.PerigeeAltitudeKM <= sat.ApogeeAltitudeKM,
		"invariant: perigee altitude must not exceed apogee altitude")
	// ISS orbits at roughly 400-430 km; a wildly wrong semi-major-axis
	// derivation would show up as a gross altitude error here.
	assert.InDelta(t, 415, sat.PerigeeAltitudeKM, 60)
	assert.InDelta(t, 415, sat.ApogeeAltitudeKM, 60)
}

func TestParseTLE_RejectsMalformedLines(t *testing.T) {
	// The TLE format encodes eccentricity as an implied-decimal
	// "0.XXXXXXX", so a line cannot carry a value >= 1; that boundary is
	// exercised with a synthetic Satellite in the propagation package's
	// Build tests. This test covers the malformed-line path.
	_, err := ParseTLE(1, "BAD", "too short", "too short")
	require.Error(t, err)
}

func TestParseTLE_RejectsShortLines(t *testing.T) {
	_, err := ParseTLE(1, "X", "1 2", "2 2")
	require.Error(t, err)
}

func TestAltitudesKM_MonotoneWithEccentricity(t *testing.T) {
	perigeeCircular, apogeeCircular := altitudesKM(15.5, 0)
	assert.InDelta(t, perigeeCircular, apogeeCircular, 1e-9)

	perigeeEcc, apogeeEcc := altitudesKM(15.5, 0.01)
	assert.Less(t, perigeeEcc, perigeeCircular)
	assert.Greater(t, apogeeEcc, apogeeCircular)
}

func TestParseBStar(t *testing.T) {
	assert.InDelta(t, 0.00010270, parseBStar(" 10270-3"), 1e-9)
	assert.InDelta(t, -0.00010270, parseBStar("-10270-3"), 1e-9)
	assert.Equal(t, 0.0, parseBStar(""))
}

func TestEpochToTime(t *testing.T) {
	epoch := epochToTime(24, 1.5)
	assert.Equal(t, 2024, epoch.Year())
	assert.Equal(t, 1, epoch.Day())
	assert.Equal(t, 12, epoch.Hour())

	oldEpoch := epochToTime(98, 1.0)
	assert.Equal(t, 1998, oldEpoch.Year())
}
