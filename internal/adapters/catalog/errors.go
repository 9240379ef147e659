package catalog

import "errors"

// Sentinel errors for the catalog provider.
var (
	ErrCatalogLoad     = errors.New("catalog load failed")
	ErrProductNotFound = errors.New("product not found")
	ErrMissingHeader   = errors.New("catalog has no header row")
)
