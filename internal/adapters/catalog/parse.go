package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/okian/wardrobe/internal/domain/model"
)

// ParseStyles reads a styles CSV. Rows with more fields than the header fold
// the overflow into the last column joined by spaces, rows with fewer are
// skipped. Unknown columns are ignored.
func ParseStyles(r io.Reader) ([]model.Product, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrMissingHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(strings.TrimPrefix(header[i], "\ufeff"))
	}

	var out []model.Product
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if len(rec) < len(header) {
			continue
		}
		if len(rec) > len(header) {
			last := len(header) - 1
			rec = append(rec[:last], strings.Join(rec[last:], " "))
		}
		var p model.Product
		for i, col := range header {
			assign(&p, col, strings.TrimSpace(rec[i]))
		}
		if p.ID == "" {
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func assign(p *model.Product, column, value string) {
	switch column {
	case "id":
		p.ID = value
	case "gender":
		p.Gender = value
	case "masterCategory":
		p.MasterCategory = value
	case "subCategory":
		p.SubCategory = value
	case "articleType":
		p.ArticleType = value
	case "baseColour":
		p.BaseColour = value
	case "season":
		p.Season = value
	case "year":
		p.Year = value
	case "usage":
		p.Usage = value
	case "productDisplayName":
		p.ProductDisplayName = value
	}
}
