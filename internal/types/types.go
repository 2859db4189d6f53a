package types

import (
	"fmt"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// FaceClass is the verdict for a single face, or for a whole sampling round.
type FaceClass int

const (
	Unsure      FaceClass = -2
	NotFound    FaceClass = -1
	WithMask    FaceClass = 0
	WithoutMask FaceClass = 1
)

func (c FaceClass) String() string {
	switch c {
	case Unsure:
		return "unsure"
	case NotFound:
		return "not-found"
	case WithMask:
		return "with-mask"
	case WithoutMask:
		return "without-mask"
	}
	return fmt.Sprintf("class(%d)", int(c))
}

// FrameTask represents a single captured frame queued for classification
type FrameTask struct {
	Index int
	Data  []byte
}

// FaceResult is one detected face in one frame, as reported by the Python classifier.
// On the wire it is a two element array: [class_id, confidence].
type FaceResult struct {
	Class      FaceClass
	Confidence float64
}

func (f *FaceResult) UnmarshalJSON(b []byte) error {
	var pair []float64
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("face result: expected [class, confidence], got %d values", len(pair))
	}
	f.Class = FaceClass(int(pair[0]))
	f.Confidence = pair[1]
	return nil
}

func (f FaceResult) MarshalJSON() ([]byte, error) {
	return json.Marshal([]float64{float64(f.Class), f.Confidence})
}

// ErrorResult captures the error object returned by Python on failure
type ErrorResult struct {
	Error string `json:"error"`
}
