package types

import (
	"testing"
)

func TestFaceResultUnmarshal(t *testing.T) {
	var faces []FaceResult
	if err := json.Unmarshal([]byte(`[[0, 0.91], [1, 0.55]]`), &faces); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if len(faces) != 2 {
		t.Fatalf("Expected 2 faces, got %d", len(faces))
	}
	if faces[0].Class != WithMask || faces[0].Confidence != 0.91 {
		t.Errorf("Unexpected first face: %+v", faces[0])
	}
	if faces[1].Class != WithoutMask {
		t.Errorf("Expected without-mask, got %v", faces[1].Class)
	}
}

func TestFaceResultUnmarshal_BadShape(t *testing.T) {
	var f FaceResult
	if err := json.Unmarshal([]byte(`[0]`), &f); err == nil {
		t.Error("Expected error for single element pair")
	}
	if err := json.Unmarshal([]byte(`{"error": "boom"}`), &f); err == nil {
		t.Error("Expected error for object payload")
	}
}

func TestFaceClassString(t *testing.T) {
	tests := map[FaceClass]string{
		Unsure:       "unsure",
		NotFound:     "not-found",
		WithMask:     "with-mask",
		WithoutMask:  "without-mask",
		FaceClass(7): "class(7)",
	}
	for c, want := range tests {
		if got := c.String(); got != want {
			t.Errorf("FaceClass(%d).String() = %q, want %q", int(c), got, want)
		}
	}
}
