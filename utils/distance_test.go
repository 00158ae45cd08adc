package utils

import (
	"math"
	"testing"
)

func TestHaversineMeters(t *testing.T) {
	// Times Square to Grand Central is roughly 1.1km.
	tsLat, tsLon := 40.7580, -73.9855
	gcLat, gcLon := 40.7527, -73.9772
	d := HaversineMeters(tsLat, tsLon, gcLat, gcLon)
	if d < 900 || d > 1500 {
		t.Fatalf("unexpected distance %.0f m", d)
	}
}

func TestHaversineMetersZero(t *testing.T) {
	d := HaversineMeters(40.7580, -73.9855, 40.7580, -73.9855)
	if d != 0 {
		t.Fatalf("expected 0, got %f", d)
	}
}

func TestHaversineMetersSymmetry(t *testing.T) {
	a := HaversineMeters(40.7359, -73.9906, 40.7527, -73.9772)
	b := HaversineMeters(40.7527, -73.9772, 40.7359, -73.9906)
	if math.Abs(a-b) > 1e-9 {
		t.Fatalf("distance not symmetric: %f vs %f", a, b)
	}
}

func TestCombineHighLow(t *testing.T) {
	tests := []struct {
		name     string
		high     uint32
		low      uint32
		expected int64
	}{
		{name: "zero high", high: 0, low: 1700000000, expected: 1700000000},
		{name: "zero both", high: 0, low: 0, expected: 0},
		{name: "nonzero high", high: 1, low: 5, expected: 1<<32 + 5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CombineHighLow(tt.high, tt.low); got != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, got)
			}
		})
	}
}

func TestIso8601FromUnixSeconds(t *testing.T) {
	if got := Iso8601FromUnixSeconds(1696320000); got != "2023-10-03T08:00:00Z" {
		t.Errorf("unexpected format: %s", got)
	}
	if got := Iso8601FromUnixSeconds(0); got != "" {
		t.Errorf("expected empty string for zero, got %s", got)
	}
}
