package repository

import (
	"fmt"
	"testing"
)

func TestChunkStrings(t *testing.T) {
	values := func(n int) []string {
		out := make([]string, n)
		for i := range out {
			out[i] = fmt.Sprintf("fp-%d", i)
		}
		return out
	}

	tests := []struct {
		name      string
		values    []string
		size      int
		wantSizes []int
	}{
		{name: "empty input", values: nil, size: 10, wantSizes: nil},
		{name: "under one chunk", values: values(3), size: 10, wantSizes: []int{3}},
		{name: "exact multiple", values: values(4), size: 2, wantSizes: []int{2, 2}},
		{name: "trailing remainder", values: values(5), size: 2, wantSizes: []int{2, 2, 1}},
		{name: "size one", values: values(3), size: 1, wantSizes: []int{1, 1, 1}},
		{name: "non-positive size", values: values(3), size: 0, wantSizes: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chunks := chunkStrings(tt.values, tt.size)
			if len(chunks) != len(tt.wantSizes) {
				t.Fatalf("chunkStrings() produced %d chunks, want %d", len(chunks), len(tt.wantSizes))
			}
			seen := 0
			for i, chunk := range chunks {
				if len(chunk) != tt.wantSizes[i] {
					t.Errorf("chunk %d has %d values, want %d", i, len(chunk), tt.wantSizes[i])
				}
				for _, v := range chunk {
					if v != tt.values[seen] {
						t.Errorf("chunk %d holds %q out of order, want %q", i, v, tt.values[seen])
					}
					seen++
				}
			}
			if seen != len(tt.values) {
				t.Errorf("chunks cover %d values, want %d", seen, len(tt.values))
			}
		})
	}
}
