package core

import (
	"math"
	"testing"
)

func TestNormalizeVector(t *testing.T) {
	t.Run("unit length", func(t *testing.T) {
		v := NormalizeVector([]float32{3, 4})
		var mag float32
		for _, x := range v {
			mag += x * x
		}
		if math.Abs(float64(mag)-1.0) > 1e-6 {
			t.Errorf("normalized magnitude = %f, want 1", mag)
		}
	})

	t.Run("zero vector", func(t *testing.T) {
		v := NormalizeVector([]float32{0, 0, 0})
		for i, x := range v {
			if x != 0 {
				t.Errorf("index %d = %f, want 0", i, x)
			}
		}
	})

	t.Run("empty vector", func(t *testing.T) {
		if v := NormalizeVector(nil); len(v) != 0 {
			t.Errorf("expected empty result, got %v", v)
		}
	})

	t.Run("input unchanged", func(t *testing.T) {
		in := []float32{3, 4}
		NormalizeVector(in)
		if in[0] != 3 || in[1] != 4 {
			t.Error("input vector was mutated")
		}
	})
}

func TestDotProduct(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float32
	}{
		{"orthogonal", []float32{1, 0}, []float32{0, 1}, 0},
		{"identical unit", []float32{1, 0}, []float32{1, 0}, 1},
		{"opposite", []float32{1, 0}, []float32{-1, 0}, -1},
		{"mismatched lengths", []float32{1, 0}, []float32{1}, 0},
		{"empty", nil, nil, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DotProduct(tt.a, tt.b); got != tt.want {
				t.Errorf("DotProduct = %f, want %f", got, tt.want)
			}
		})
	}
}

func TestCosineSimilarity(t *testing.T) {
	t.Run("scale invariant", func(t *testing.T) {
		a := []float32{1, 2, 3}
		b := []float32{2, 4, 6}
		got := CosineSimilarity(a, b)
		if math.Abs(float64(got)-1.0) > 1e-6 {
			t.Errorf("parallel vectors similarity = %f, want 1", got)
		}
	})

	t.Run("matches dot product for normalized inputs", func(t *testing.T) {
		a := NormalizeVector([]float32{0.2, 0.5, 0.9})
		b := NormalizeVector([]float32{0.7, 0.1, 0.4})
		cos := CosineSimilarity(a, b)
		dot := DotProduct(a, b)
		if math.Abs(float64(cos-dot)) > 1e-5 {
			t.Errorf("cosine %f != dot %f for normalized vectors", cos, dot)
		}
	})

	t.Run("zero magnitude", func(t *testing.T) {
		if got := CosineSimilarity([]float32{0, 0}, []float32{1, 1}); got != 0 {
			t.Errorf("similarity with zero vector = %f, want 0", got)
		}
	})
}
