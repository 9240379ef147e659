package search

import "errors"

// ErrEmptyQuery is returned when a query has no searchable text.
var ErrEmptyQuery = errors.New("search query is required")
