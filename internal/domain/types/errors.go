package types

import "errors"

// Error kinds shared by the service and its transports.
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrRecommendation  = errors.New("failed to generate recommendations")
)
