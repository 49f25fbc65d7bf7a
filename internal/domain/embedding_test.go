package domain

import (
	"errors"
	"testing"
)

func TestEmbeddingResult_CheckDimensions(t *testing.T) {
	tests := []struct {
		name    string
		vec     []float32
		dim     int
		wantErr []error
	}{
		{"match", []float32{1, 2, 3}, 3, nil},
		{"unchecked length", []float32{1, 2}, 0, nil},
		{"empty", nil, 3, []error{ErrEmbeddingService}},
		{"mismatch", []float32{1, 2}, 3, []error{ErrIndex, ErrVectorDimMismatch}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := EmbeddingResult{Embedding: tc.vec}.CheckDimensions(tc.dim)
			if tc.wantErr == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			for _, want := range tc.wantErr {
				if !errors.Is(err, want) {
					t.Errorf("error %v does not wrap %v", err, want)
				}
			}
		})
	}
}
