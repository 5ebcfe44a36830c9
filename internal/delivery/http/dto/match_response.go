package dto

import (
	"time"

	"resume-match/internal/domain/match"
	"resume-match/internal/domain/matching"
	"resume-match/internal/infrastructure/rasterizer"
	"resume-match/internal/usecase"

	"github.com/google/uuid"
)

type MatchRecordResponse struct {
	ID              uuid.UUID `json:"id"`
	JobDescription  string    `json:"job_description"`
	MatchScore      *float64  `json:"match_score"`
	Suggestions     string    `json:"suggestions"`
	MissingKeywords []string  `json:"missing_keywords"`
	CreatedAt       time.Time `json:"created_at"`
}

func NewMatchRecordResponse(r match.Record) MatchRecordResponse {
	return MatchRecordResponse{
		ID:              r.ID,
		JobDescription:  r.JobDescription,
		MatchScore:      r.MatchScore,
		Suggestions:     r.Suggestions,
		MissingKeywords: matching.SplitSuggestions(r.Suggestions),
		CreatedAt:       r.CreatedAt,
	}
}

type PreviewImageResponse struct {
	Page int    `json:"page"`
	URL  string `json:"url"`
}

func NewPreviewImages(images []rasterizer.Image) []PreviewImageResponse {
	out := make([]PreviewImageResponse, 0, len(images))
	for _, img := range images {
		out = append(out, PreviewImageResponse{Page: img.Page, URL: img.URL})
	}
	return out
}

type SubmitMatchResponse struct {
	Match  MatchRecordResponse    `json:"match"`
	Images []PreviewImageResponse `json:"images"`
}

func NewSubmitMatchResponse(res usecase.SubmitResult) SubmitMatchResponse {
	return SubmitMatchResponse{
		Match:  NewMatchRecordResponse(res.Record),
		Images: NewPreviewImages(res.Images),
	}
}

type LatestMatchResponse struct {
	HadPrevious bool                 `json:"had_previous"`
	Match       *MatchRecordResponse `json:"match"`
}

type MatchHistoryResponse struct {
	Items  []MatchRecordResponse `json:"items"`
	Limit  int                   `json:"limit"`
	Offset int                   `json:"offset"`
}

type PreviewResponse struct {
	MatchID uuid.UUID              `json:"match_id"`
	Images  []PreviewImageResponse `json:"images"`
}
