package api

import (
	"time"

	"github.com/andresmejia3/maskwatch/internal/geo"
	"github.com/andresmejia3/maskwatch/internal/monitor"
	"github.com/andresmejia3/maskwatch/internal/store"
)

type AddZoneRequest struct {
	Name      string  `json:"name" validate:"required,max=64"`
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
	// Current marks the zone center as the device's present position.
	Current bool `json:"current"`
}

type LocationRequest struct {
	Latitude  float64 `json:"latitude" validate:"latitude"`
	Longitude float64 `json:"longitude" validate:"longitude"`
}

type ScreenRequest struct {
	Interactive *bool `json:"interactive" validate:"required"`
}

type LocationResponse struct {
	Accepted bool `json:"accepted"`
	IsSafe   bool `json:"is_safe"`
}

type ZonesResponse struct {
	Zones []geo.Zone `json:"zones"`
}

type ResultResponse struct {
	RoundID        string    `json:"round_id"`
	Class          string    `json:"class,omitempty"`
	FaceCount      int       `json:"face_count"`
	MeanConfidence float64   `json:"mean_confidence"`
	MinConfidence  float64   `json:"min_confidence"`
	MaxConfidence  float64   `json:"max_confidence"`
	SampleCount    int       `json:"sample_count"`
	ElapsedMs      int64     `json:"elapsed_ms"`
	Passed         bool      `json:"passed"`
	At             time.Time `json:"at"`
	Error          string    `json:"error,omitempty"`
}

func newResultResponse(r monitor.Report) ResultResponse {
	resp := ResultResponse{RoundID: r.RoundID, Passed: r.Passed, At: r.At, Error: r.Err}
	if r.Err != "" {
		return resp
	}
	resp.Class = r.Result.Class.String()
	resp.FaceCount = r.Result.FaceCount
	resp.MeanConfidence = r.Result.MeanConfidence
	resp.MinConfidence = r.Result.MinConfidence
	resp.MaxConfidence = r.Result.MaxConfidence
	resp.SampleCount = r.Result.SampleCount
	resp.ElapsedMs = r.Result.Elapsed.Milliseconds()
	return resp
}

func newHistoryResponse(r store.ResultRecord) ResultResponse {
	return ResultResponse{
		RoundID:        r.RoundID,
		Class:          r.Class,
		FaceCount:      r.FaceCount,
		MeanConfidence: r.MeanConfidence,
		MinConfidence:  r.MinConfidence,
		MaxConfidence:  r.MaxConfidence,
		SampleCount:    r.SampleCount,
		ElapsedMs:      r.ElapsedMs,
		Passed:         r.Passed,
		At:             r.CreatedAt,
	}
}
