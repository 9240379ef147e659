package api

import (
	"net/http"
	"strconv"
)

const msgRecommendationFailed = "Failed to generate recommendations"

// handleRecommendations handles GET /api/recommendations[?forceRefresh=true].
func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	const op = "api.recommendations"
	forceRefresh, _ := strconv.ParseBool(r.URL.Query().Get("forceRefresh"))

	u, err := s.user(r, "")
	if err != nil {
		s.fail(w, r, op, Wrap(op, err), failure{internal: msgRecommendationFailed})
		return
	}
	resp, err := s.deps.Recommend(r.Context(), u.ID, forceRefresh)
	if err != nil {
		s.fail(w, r, op, Wrap(op, err), failure{internal: msgRecommendationFailed})
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
