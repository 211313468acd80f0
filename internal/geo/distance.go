// Package geo computes approximate distances between coordinates using an
// equirectangular projection. Accuracy is good for short city-scale
// distances and degrades with latitude spread.
package geo

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Meters per degree of latitude and of longitude at the equator.
const (
	MetersPerDegreeLat = 110574.0
	MetersPerDegreeLon = 111320.0
)

var (
	ErrUnknownUnit    = errors.New("unknown distance unit")
	ErrLengthMismatch = errors.New("start and stop lengths differ")
	ErrInvalidPoint   = errors.New("invalid point")
)

// Unit is a distance unit.
type Unit string

const (
	Meters     Unit = "m"
	Kilometers Unit = "km"
)

// ParseUnit parses "m" or "km".
func ParseUnit(s string) (Unit, error) {
	switch Unit(strings.ToLower(strings.TrimSpace(s))) {
	case Meters:
		return Meters, nil
	case Kilometers:
		return Kilometers, nil
	}
	return "", fmt.Errorf("%w %q (valid: m, km)", ErrUnknownUnit, s)
}

func (u Unit) coefficients() (lat, lon float64) {
	if u == Kilometers {
		return MetersPerDegreeLat / 1000, MetersPerDegreeLon / 1000
	}
	return MetersPerDegreeLat, MetersPerDegreeLon
}

// Point is a latitude/longitude pair in degrees.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// ParsePoint parses "lat,lon".
func ParsePoint(s string) (Point, error) {
	lat, lon, ok := strings.Cut(s, ",")
	if !ok {
		return Point{}, fmt.Errorf("%w %q: want lat,lon", ErrInvalidPoint, s)
	}
	var p Point
	var err error
	if p.Lat, err = strconv.ParseFloat(strings.TrimSpace(lat), 64); err != nil {
		return Point{}, fmt.Errorf("%w %q: lat: %v", ErrInvalidPoint, s, err)
	}
	if p.Lon, err = strconv.ParseFloat(strings.TrimSpace(lon), 64); err != nil {
		return Point{}, fmt.Errorf("%w %q: lon: %v", ErrInvalidPoint, s, err)
	}
	if p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return Point{}, fmt.Errorf("%w %q: out of range", ErrInvalidPoint, s)
	}
	return p, nil
}

// Distance returns the distance between a and b in unit u.
func Distance(a, b Point, u Unit) float64 {
	latC, lonC := u.coefficients()
	dx := a.Lon*lonC*math.Cos(a.Lat*math.Pi/180) - b.Lon*lonC*math.Cos(b.Lat*math.Pi/180)
	dy := a.Lat*latC - b.Lat*latC
	return math.Sqrt(dx*dx + dy*dy)
}

// Distances computes Distance pairwise over starts[i], stops[i].
func Distances(starts, stops []Point, u Unit) ([]float64, error) {
	if len(starts) != len(stops) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(starts), len(stops))
	}
	out := make([]float64, len(starts))
	for i := range starts {
		out[i] = Distance(starts[i], stops[i], u)
	}
	return out, nil
}
