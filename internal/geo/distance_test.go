package geo

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDistance(t *testing.T) {
	tests := []struct {
		name     string
		a, b     Point
		unit     Unit
		expected float64
		delta    float64
	}{
		{"same point", Point{52.52, 13.40}, Point{52.52, 13.40}, Meters, 0, 1e-9},
		{"one degree lat", Point{0, 0}, Point{1, 0}, Meters, 110574, 1e-6},
		{"one degree lon at equator", Point{0, 0}, Point{0, 1}, Meters, 111320, 1e-6},
		{"diagonal", Point{0, 0}, Point{1, 1}, Meters, 156891.610, 0.01},
		{"berlin", Point{52.530, 13.326}, Point{52.513, 13.407}, Meters, 6132.047, 0.01},
		{"berlin km", Point{52.530, 13.326}, Point{52.513, 13.407}, Kilometers, 6.132047, 1e-5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Distance(tt.a, tt.b, tt.unit)
			if math.Abs(got-tt.expected) > tt.delta {
				t.Errorf("Distance(%v, %v, %s) = %f, want %f (±%g)", tt.a, tt.b, tt.unit, got, tt.expected, tt.delta)
			}
			// Symmetric.
			if back := Distance(tt.b, tt.a, tt.unit); math.Abs(back-got) > 1e-9 {
				t.Errorf("Distance not symmetric: %f vs %f", got, back)
			}
		})
	}
}

func TestDistances(t *testing.T) {
	starts := []Point{{0, 0}, {0, 0}}
	stops := []Point{{1, 0}, {0, 1}}

	got, err := Distances(starts, stops, Kilometers)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.InDelta(t, 110.574, got[0], 1e-9)
	assert.InDelta(t, 111.320, got[1], 1e-9)

	_, err = Distances(starts, stops[:1], Meters)
	assert.True(t, errors.Is(err, ErrLengthMismatch))
}

func TestParseUnit(t *testing.T) {
	u, err := ParseUnit("KM")
	require.NoError(t, err)
	assert.Equal(t, Kilometers, u)

	u, err = ParseUnit("m")
	require.NoError(t, err)
	assert.Equal(t, Meters, u)

	_, err = ParseUnit("mi")
	assert.True(t, errors.Is(err, ErrUnknownUnit))
}

func TestParsePoint(t *testing.T) {
	p, err := ParsePoint("52.530, 13.326")
	require.NoError(t, err)
	assert.Equal(t, Point{Lat: 52.530, Lon: 13.326}, p)

	for _, bad := range []string{"", "52.5", "x,1", "1,y", "91,0", "0,181"} {
		_, err := ParsePoint(bad)
		assert.True(t, errors.Is(err, ErrInvalidPoint), "input %q", bad)
	}
}
