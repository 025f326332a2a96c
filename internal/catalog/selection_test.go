package catalog

import "testing"

func TestClampSelection(t *testing.T) {
	tests := []struct {
		index, length int
		want          int
		ok            bool
	}{
		{0, 3, 0, true},
		{2, 3, 2, true},
		{5, 3, 2, true},
		{3, 3, 2, true},
		{-4, 3, 0, true},
		{0, 0, NoSelection, false},
		{4, 0, NoSelection, false},
	}

	for _, tt := range tests {
		got, ok := ClampSelection(tt.index, tt.length)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ClampSelection(%d, %d) = %d, %v; want %d, %v", tt.index, tt.length, got, ok, tt.want, tt.ok)
		}
	}
}

func TestClampSelection_AfterRemovingImages(t *testing.T) {
	images := []string{"a", "b", "c", "d"}
	selected := 3

	images = images[:2]
	idx, ok := ClampSelection(selected, len(images))
	if !ok {
		t.Fatalf("Expected a valid selection")
	}
	if images[idx] != "b" {
		t.Errorf("Expected last remaining image, got %s", images[idx])
	}
}
