package classify

import (
	"bytes"
	"math"
	"testing"
	"time"

	"github.com/andresmejia3/maskwatch/internal/types"
)

func face(c types.FaceClass, conf float64) types.FaceResult {
	return types.FaceResult{Class: c, Confidence: conf}
}

func approx(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestAggregate_Agreement(t *testing.T) {
	img := []byte{0xFF, 0xD8, 0xFF, 0xD9}
	frames := [][]types.FaceResult{
		{face(types.WithMask, 0.9)},
		{face(types.WithMask, 0.8)},
	}

	res, ok := Aggregate(frames, img, 120*time.Millisecond)
	if !ok {
		t.Fatal("Expected a result")
	}
	if res.Class != types.WithMask || res.FaceCount != 1 || res.SampleCount != 2 {
		t.Errorf("Unexpected verdict: %s", res)
	}
	if !approx(res.MeanConfidence, 0.85) || !approx(res.MinConfidence, 0.8) || !approx(res.MaxConfidence, 0.9) {
		t.Errorf("Unexpected confidences: %s", res)
	}
	if !bytes.Equal(res.Image, img) || res.Elapsed != 120*time.Millisecond {
		t.Errorf("Image or elapsed time not carried through")
	}
}

func TestAggregate_MultipleFaces(t *testing.T) {
	frames := [][]types.FaceResult{
		{face(types.WithoutMask, 0.6), face(types.WithoutMask, 1.0)},
		{face(types.WithoutMask, 0.7), face(types.WithoutMask, 0.9)},
	}

	res, _ := Aggregate(frames, nil, 0)
	if res.Class != types.WithoutMask || res.FaceCount != 2 {
		t.Fatalf("Unexpected verdict: %s", res)
	}
	// (0.6 + 1.0 + 0.7 + 0.9) / (2 samples * 2 faces)
	if !approx(res.MeanConfidence, 0.8) {
		t.Errorf("MeanConfidence = %v, want 0.8", res.MeanConfidence)
	}
	if !approx(res.MinConfidence, 0.6) || !approx(res.MaxConfidence, 1.0) {
		t.Errorf("Unexpected range: min %v max %v", res.MinConfidence, res.MaxConfidence)
	}
}

func TestAggregate_ClassDisagreementIsUnsure(t *testing.T) {
	frames := [][]types.FaceResult{
		{face(types.WithMask, 0.9)},
		{face(types.WithoutMask, 0.7)},
	}

	res, ok := Aggregate(frames, nil, 0)
	if !ok {
		t.Fatal("Disagreement must still produce a result")
	}
	if res.Class != types.Unsure {
		t.Errorf("Class = %s, want unsure", res.Class)
	}
	// Only the first frame was accumulated before the mismatch.
	if !approx(res.MinConfidence, 0.9) || !approx(res.MaxConfidence, 0.9) {
		t.Errorf("Expected partial range [0.9, 0.9], got [%v, %v]", res.MinConfidence, res.MaxConfidence)
	}
	if res.MeanConfidence != 0 || res.FaceCount != 0 {
		t.Errorf("Unsure rounds carry no mean or face count, got %s", res)
	}
}

func TestAggregate_FaceCountDisagreementIsUnsure(t *testing.T) {
	frames := [][]types.FaceResult{
		{face(types.WithMask, 0.9)},
		{face(types.WithMask, 0.8), face(types.WithMask, 0.7)},
	}

	res, _ := Aggregate(frames, nil, 0)
	if res.Class != types.Unsure {
		t.Errorf("Class = %s, want unsure", res.Class)
	}
	if res.SampleCount != 2 {
		t.Errorf("SampleCount = %d, want 2", res.SampleCount)
	}
}

func TestAggregate_MixedClassesInOneFrame(t *testing.T) {
	frames := [][]types.FaceResult{
		{face(types.WithMask, 0.9), face(types.WithoutMask, 0.8)},
	}

	res, _ := Aggregate(frames, nil, 0)
	if res.Class != types.Unsure {
		t.Errorf("Class = %s, want unsure", res.Class)
	}
}

func TestAggregate_NoFaces(t *testing.T) {
	res, ok := Aggregate([][]types.FaceResult{{}, {}}, nil, 0)
	if !ok {
		t.Fatal("Expected a result for frames without faces")
	}
	if res.Class != types.NotFound || res.FaceCount != 0 {
		t.Errorf("Expected not-found with 0 faces, got %s", res)
	}
	if res.MinConfidence != 1.0 || res.MaxConfidence != 0.0 || !res.NoFacesObserved() {
		t.Errorf("Expected sentinel range, got [%v, %v]", res.MinConfidence, res.MaxConfidence)
	}
	if res.MeanConfidence != 0 {
		t.Errorf("MeanConfidence = %v, want 0", res.MeanConfidence)
	}
}

func TestAggregate_Empty(t *testing.T) {
	if _, ok := Aggregate(nil, nil, 0); ok {
		t.Error("Expected no result for nil frames")
	}
	if _, ok := Aggregate([][]types.FaceResult{}, []byte{1}, time.Second); ok {
		t.Error("Expected no result for empty frames")
	}
}
