package service

import "github.com/okian/wardrobe/internal/domain/types"

// Sentinel kinds returned by Service operations. Callers match them with errors.Is.
var (
	ErrInvalidArgument = types.ErrInvalidArgument
	ErrNotFound        = types.ErrNotFound
	ErrRecommendation  = types.ErrRecommendation
)
