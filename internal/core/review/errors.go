package review

import "errors"

var (
	ErrNoJob              = errors.New("review session has no job")
	ErrSessionClosed      = errors.New("review session closed")
	ErrSessionNotFound    = errors.New("review session not found")
	ErrInvalidSpeed       = errors.New("playback speed must be one of 0.25, 0.5, 1, 2, 4")
	ErrInvalidThreshold   = errors.New("invalid diversity threshold")
	ErrNoAnalyzer         = errors.New("diversity analyzer not configured")
	ErrNoCreator          = errors.New("curated dataset creator not configured")
	ErrAnalysisFailed     = errors.New("diversity analysis failed, try again")
	ErrAnalysisSuperseded = errors.New("diversity analysis superseded by a newer request")
	ErrNameRequired       = errors.New("curated dataset name is required")
	ErrSubmitInProgress   = errors.New("curated dataset submission in progress")
)
