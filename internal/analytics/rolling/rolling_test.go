package rolling

import (
	"math"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestRegistry(t *testing.T) {
	for _, name := range []string{"mean", "median"} {
		averager, err := Get(name)
		if err != nil {
			t.Errorf("Averager '%s' not registered: %v", name, err)
			continue
		}
		if averager.Name() != name {
			t.Errorf("Averager name mismatch: expected '%s', got '%s'", name, averager.Name())
		}
	}

	if _, err := Get("mode"); err == nil {
		t.Error("Expected error for unknown averager")
	}

	names := List()
	if len(names) < 2 || names[0] != "mean" || names[1] != "median" {
		t.Errorf("Expected sorted [mean median], got %v", names)
	}
}

func TestApply_Mean(t *testing.T) {
	values := []float64{0, 0, 1, 1, 3, 3, 6, 6, 10, 10}
	mean, _ := Get("mean")

	got, err := Apply(values, 3, mean)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}

	expected := []float64{0, 0, 1.0 / 3, 2.0 / 3, 5.0 / 3, 7.0 / 3, 4, 5, 22.0 / 3, 26.0 / 3}
	for i := range expected {
		if !almostEqual(got[i], expected[i]) {
			t.Errorf("index %d: expected %v, got %v", i, expected[i], got[i])
		}
	}
}

func TestApply_Median(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		window   int
		expected []float64
	}{
		{
			name:     "odd window ignores spike",
			values:   []float64{1, 100, 2, 3, 4},
			window:   3,
			expected: []float64{0, 0, 2, 3, 3},
		},
		{
			name:     "even window averages middle values",
			values:   []float64{4, 1, 3, 2},
			window:   4,
			expected: []float64{0, 0, 0, 2.5},
		},
		{
			name:     "window of one is identity",
			values:   []float64{5, 7, 9},
			window:   1,
			expected: []float64{5, 7, 9},
		},
	}

	median, _ := Get("median")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Apply(tt.values, tt.window, median)
			if err != nil {
				t.Fatalf("Apply failed: %v", err)
			}
			for i := range tt.expected {
				if !almostEqual(got[i], tt.expected[i]) {
					t.Errorf("index %d: expected %v, got %v", i, tt.expected[i], got[i])
				}
			}
		})
	}
}

func TestApply_WindowLargerThanSeries(t *testing.T) {
	mean, _ := Get("mean")
	got, err := Apply([]float64{1, 2, 3}, 5, mean)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	for i, v := range got {
		if v != 0 {
			t.Errorf("index %d: expected 0, got %v", i, v)
		}
	}
}

func TestApply_InvalidInput(t *testing.T) {
	mean, _ := Get("mean")
	if _, err := Apply([]float64{1, 2}, 0, mean); err == nil {
		t.Error("Expected error for zero window")
	}
	if _, err := Apply([]float64{1, 2}, 2, nil); err == nil {
		t.Error("Expected error for nil averager")
	}
}

func TestApply_EmptySeries(t *testing.T) {
	mean, _ := Get("mean")
	got, err := Apply(nil, 3, mean)
	if err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Expected empty result, got %v", got)
	}
}
