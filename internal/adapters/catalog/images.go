package catalog

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const imageURLPrefix = "/images/"

// imageIndex records which product ids have an image on disk.
type imageIndex struct {
	ids      map[string]struct{}
	fallback string // file name served for products without an image
}

// scanImages lists <id>.jpg and <id>.png files in dir. A missing directory
// yields an empty index. The fallback is preferred when present, otherwise the
// first image in name order is used.
func scanImages(dir, preferred string) (imageIndex, error) {
	idx := imageIndex{ids: make(map[string]struct{})}
	if dir == "" {
		return idx, nil
	}
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return idx, nil
	}
	if err != nil {
		return idx, fmt.Errorf("read images dir %s: %w", dir, err)
	}

	var first string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".jpg" && ext != ".png" {
			continue
		}
		idx.ids[strings.TrimSuffix(name, filepath.Ext(name))] = struct{}{}
		if first == "" {
			first = strings.TrimSuffix(name, filepath.Ext(name)) + ".jpg"
		}
	}

	if preferred != "" {
		if _, err := os.Stat(filepath.Join(dir, preferred)); err == nil {
			idx.fallback = preferred
			return idx, nil
		}
	}
	idx.fallback = first
	return idx, nil
}

// url returns the image URL for id. Ids without an image get the fallback,
// or an empty string when no image exists at all.
func (i imageIndex) url(id string) string {
	if _, ok := i.ids[id]; ok {
		return imageURLPrefix + id + ".jpg"
	}
	if i.fallback == "" {
		return ""
	}
	return imageURLPrefix + i.fallback
}
