package trend

import (
	"math"
	"testing"
)

func generateLinearValues(n int, slope, intercept float64) []float64 {
	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = slope*float64(i) + intercept
	}
	return values
}

func TestFit_ExactLine(t *testing.T) {
	xs := []float64{0, 1, 2, 3, 4}
	ys := generateLinearValues(5, 2.0, 5.0)

	line, err := Fit(xs, ys)
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if math.Abs(line.Slope-2.0) > 1e-9 {
		t.Errorf("Expected slope 2, got %v", line.Slope)
	}
	if math.Abs(line.Intercept-5.0) > 1e-9 {
		t.Errorf("Expected intercept 5, got %v", line.Intercept)
	}
}

func TestFit_SinglePoint(t *testing.T) {
	line, err := Fit([]float64{3}, []float64{42})
	if err != nil {
		t.Fatalf("Fit failed: %v", err)
	}
	if line.Slope != 0 || line.At(3) != 42 {
		t.Errorf("Expected flat line through 42, got %+v", line)
	}
}

func TestFit_Errors(t *testing.T) {
	if _, err := Fit([]float64{1, 2}, []float64{1}); err == nil {
		t.Error("Expected error for length mismatch")
	}
	if _, err := Fit(nil, nil); err == nil {
		t.Error("Expected error for empty input")
	}
}

func TestTrailing_LastWindowOnly(t *testing.T) {
	values := []float64{0, 0, 1, 1, 3, 3, 6, 6, 10, 10}

	got, err := Trailing(values, 3)
	if err != nil {
		t.Fatalf("Trailing failed: %v", err)
	}

	for i := 0; i < 7; i++ {
		if !math.IsNaN(got[i]) {
			t.Errorf("index %d: expected NaN, got %v", i, got[i])
		}
	}

	expected := map[int]float64{7: 20.0 / 3, 8: 26.0 / 3, 9: 32.0 / 3}
	for i, want := range expected {
		if math.Abs(got[i]-want) > 1e-9 {
			t.Errorf("index %d: expected %v, got %v", i, want, got[i])
		}
	}
}

func TestTrailing_WindowCoversWholeSeries(t *testing.T) {
	values := generateLinearValues(4, 1.5, 2.0)

	got, err := Trailing(values, 10)
	if err != nil {
		t.Fatalf("Trailing failed: %v", err)
	}
	for i := range values {
		if math.Abs(got[i]-values[i]) > 1e-9 {
			t.Errorf("index %d: expected %v, got %v", i, values[i], got[i])
		}
	}
}

func TestTrailing_DefinedCount(t *testing.T) {
	values := generateLinearValues(20, 3, 1)
	for _, w := range []int{1, 2, 7, 19, 20} {
		got, err := Trailing(values, w)
		if err != nil {
			t.Fatalf("Trailing(%d) failed: %v", w, err)
		}
		defined := 0
		for _, v := range got {
			if !math.IsNaN(v) {
				defined++
			}
		}
		if defined != w {
			t.Errorf("window %d: expected %d defined positions, got %d", w, w, defined)
		}
	}
}

func TestTrailing_InvalidWindow(t *testing.T) {
	if _, err := Trailing([]float64{1, 2, 3}, 0); err == nil {
		t.Error("Expected error for zero window")
	}
}
