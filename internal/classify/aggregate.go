// Package classify fuses the per-frame output of the mask classifier into one
// verdict per sampling round.
package classify

import (
	"fmt"
	"time"

	"github.com/andresmejia3/maskwatch/internal/types"
)

// Result is the verdict for one sampling round. It is never modified after Aggregate returns it.
//
// MinConfidence starts at 1.0 and MaxConfidence at 0.0; when no face was
// observed they keep those values, so MinConfidence > MaxConfidence means
// "no faces", not corrupt data.
type Result struct {
	Image          []byte
	FaceCount      int
	Class          types.FaceClass
	MeanConfidence float64
	MinConfidence  float64
	MaxConfidence  float64
	SampleCount    int
	Elapsed        time.Duration
}

// NoFacesObserved reports whether the confidence range is still at its sentinels.
func (r Result) NoFacesObserved() bool {
	return r.MinConfidence > r.MaxConfidence
}

func (r Result) String() string {
	return fmt.Sprintf("Face: %d, Classification: %s, Accuracy: %.4f, Min Accuracy: %.4f, Max Accuracy: %.4f, Duration: %s, Sample: %d",
		r.FaceCount, r.Class, r.MeanConfidence, r.MinConfidence, r.MaxConfidence, r.Elapsed, r.SampleCount)
}

// Aggregate reduces one face list per sampled frame into a single Result.
// It returns ok=false when frames is empty, which callers must treat as
// "no data" rather than as a NotFound verdict.
//
// Every frame must agree with the first on the number of faces and every
// face must share the first face's class; otherwise the round is Unsure and
// only the confidence range gathered before the disagreement is reported.
func Aggregate(frames [][]types.FaceResult, lastImage []byte, elapsed time.Duration) (Result, bool) {
	if len(frames) == 0 {
		return Result{}, false
	}

	out := Result{
		Image:         lastImage,
		Class:         types.Unsure,
		MinConfidence: 1.0,
		MaxConfidence: 0.0,
		SampleCount:   len(frames),
		Elapsed:       elapsed,
	}

	faceCount := len(frames[0])
	class := types.NotFound
	if faceCount > 0 {
		class = frames[0][0].Class
	}

	var total float64
	for _, faces := range frames {
		if len(faces) != faceCount {
			return out, true
		}
		for _, face := range faces {
			if face.Class != class {
				return out, true
			}
			if face.Confidence < out.MinConfidence {
				out.MinConfidence = face.Confidence
			}
			if face.Confidence > out.MaxConfidence {
				out.MaxConfidence = face.Confidence
			}
			total += face.Confidence
		}
	}

	out.FaceCount = faceCount
	out.Class = class
	if faceCount > 0 {
		out.MeanConfidence = total / float64(out.SampleCount*faceCount)
	}
	return out, true
}
