package vecstore

import (
	"math"
	"testing"
)

func TestVectorSerializationRoundTrip(t *testing.T) {
	original := []float32{0.1, -0.5, 3.14159, 0, 1e-8, -1e8}

	blob := SerializeVector(original)
	if len(blob) != len(original)*4 {
		t.Fatalf("blob length = %d, want %d", len(blob), len(original)*4)
	}

	restored := DeserializeVector(blob)
	if len(restored) != len(original) {
		t.Fatalf("restored length = %d, want %d", len(restored), len(original))
	}
	for i := range original {
		if restored[i] != original[i] {
			t.Errorf("restored[%d] = %v, want %v", i, restored[i], original[i])
		}
	}
}

func TestCosineSimilarity(t *testing.T) {
	tests := []struct {
		name string
		a, b []float32
		want float64
	}{
		{"identical", []float32{1, 0, 0}, []float32{1, 0, 0}, 1.0},
		{"orthogonal", []float32{1, 0, 0}, []float32{0, 1, 0}, 0.0},
		{"opposite", []float32{1, 0, 0}, []float32{-1, 0, 0}, -1.0},
		{"scaled still identical", []float32{1, 2, 3}, []float32{2, 4, 6}, 1.0},
		{"zero vector", []float32{0, 0, 0}, []float32{1, 2, 3}, 0.0},
		{"length mismatch", []float32{1, 0}, []float32{1, 0, 0}, 0.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CosineSimilarity(tt.a, tt.b)
			if math.Abs(got-tt.want) > 1e-6 {
				t.Errorf("CosineSimilarity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCosineDistanceRange(t *testing.T) {
	// Distance must span [0,2]: identical vectors at 0, opposite at 2.
	identical := cosineDistance([]float32{1, 1}, []float32{1, 1})
	if math.Abs(identical) > 1e-6 {
		t.Errorf("identical vectors distance = %v, want 0", identical)
	}

	opposite := cosineDistance([]float32{1, 0}, []float32{-1, 0})
	if math.Abs(opposite-2.0) > 1e-6 {
		t.Errorf("opposite vectors distance = %v, want 2", opposite)
	}
}
