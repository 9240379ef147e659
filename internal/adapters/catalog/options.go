package catalog

import "github.com/okian/wardrobe/pkg/logger"

// Option configures a CSVProvider.
type Option func(*CSVProvider)

// WithImagesDir sets the directory scanned for product images.
func WithImagesDir(dir string) Option {
	return func(p *CSVProvider) { p.imagesDir = dir }
}

// WithFallbackImage sets the preferred image for products without one.
func WithFallbackImage(name string) Option {
	return func(p *CSVProvider) { p.fallbackImage = name }
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(p *CSVProvider) {
		if l != nil {
			p.log = l
		}
	}
}
