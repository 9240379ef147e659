package api

import (
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/okian/wardrobe/internal/domain/model"
)

const (
	defaultPage      = 1
	defaultPageLimit = "12"
)

type searchResponse struct {
	Products    []model.Product `json:"products"`
	TotalCount  int             `json:"totalCount"`
	TotalPages  int             `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
	Query       string          `json:"query"`
}

type pageResponse struct {
	Products    []model.Product `json:"products"`
	TotalCount  int             `json:"totalCount"`
	TotalPages  int             `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
	ShowingAll  bool            `json:"showingAll"`
}

type allProductsResponse struct {
	Products   []model.Product `json:"products"`
	TotalCount int             `json:"totalCount"`
	ShowingAll bool            `json:"showingAll"`
}

type productResponse struct {
	Success bool          `json:"success"`
	Product model.Product `json:"product"`
}

// queryInt parses a positive integer query parameter, or returns def.
func queryInt(r *http.Request, key string, def int) int {
	n, err := strconv.Atoi(r.URL.Query().Get(key))
	if err != nil || n < 1 {
		return def
	}
	return n
}

// handleSearch handles GET /api/search?q=&page=&limit=.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	const op = "api.search"
	q := r.URL.Query().Get("q")
	if strings.TrimSpace(q) == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "Search query is required")
		return
	}

	page, err := s.deps.Search(r.Context(), q, queryInt(r, "page", defaultPage), queryInt(r, "limit", 0))
	if err != nil {
		s.fail(w, r, op, Wrap(op, err), failure{internal: "Failed to perform search"})
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{
		Products:    page.Products,
		TotalCount:  page.TotalCount,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
		Query:       q,
	})
}

// handleMergedProducts handles GET /api/merged-products?page=&limit=&all=&search=.
// A search parameter redirects to /api/search.
func (s *Server) handleMergedProducts(w http.ResponseWriter, r *http.Request) {
	const op = "api.merged_products"
	query := r.URL.Query()

	if term := query.Get("search"); term != "" {
		page := query.Get("page")
		if page == "" {
			page = strconv.Itoa(defaultPage)
		}
		limit := query.Get("limit")
		if limit == "" {
			limit = defaultPageLimit
		}
		target := "/api/search?q=" + url.QueryEscape(term) +
			"&page=" + url.QueryEscape(page) + "&limit=" + url.QueryEscape(limit)
		http.Redirect(w, r, target, http.StatusFound)
		return
	}

	all := query.Get("all") == "true"
	page, err := s.deps.Products(r.Context(), queryInt(r, "page", defaultPage), queryInt(r, "limit", 0), all)
	if err != nil {
		s.fail(w, r, op, Wrap(op, err), failure{internal: "Failed to retrieve products"})
		return
	}

	if all {
		writeJSON(w, http.StatusOK, allProductsResponse{
			Products:   page.Products,
			TotalCount: page.TotalCount,
			ShowingAll: true,
		})
		return
	}
	writeJSON(w, http.StatusOK, pageResponse{
		Products:    page.Products,
		TotalCount:  page.TotalCount,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
	})
}

// handleProduct handles GET /api/products/{productId}.
func (s *Server) handleProduct(w http.ResponseWriter, r *http.Request) {
	const op = "api.product"
	p, err := s.deps.Product(r.Context(), chi.URLParam(r, "productId"))
	if err != nil {
		s.fail(w, r, op, Wrap(op, err), failure{notFound: "Product not found", internal: "Failed to fetch product"})
		return
	}
	writeJSON(w, http.StatusOK, productResponse{Success: true, Product: p})
}
