package simulate

import (
	"time"

	"github.com/okian/wardrobe/internal/domain/model"
	"github.com/okian/wardrobe/internal/domain/types"
)

// Config holds configuration for a simulation run.
type Config struct {
	BaseURL        string        // Base URL of the service
	Users          []string      // user-id header values; "" acts as the demo user
	Rounds         int           // like/dislike rounds per user
	LikesPerRound  int           // likes recorded per round
	FootwearShare  float64       // fraction of users that mostly like footwear
	Workers        int           // users simulated concurrently
	Limit          int           // maximum recommendations the server returns
	Seed           uint64        // seed for product selection
	Timeout        time.Duration // HTTP request timeout
	ReportFile     string        // optional JSON report path
	Verbose        bool          // log every violation
	HealthEndpoint string        // path probed before the run
}

// Stats holds run statistics.
type Stats struct {
	RunID                string        `json:"runId"`
	Users                int           `json:"users"`
	InteractionsSent     int64         `json:"interactionsSent"`
	InteractionsFailed   int64         `json:"interactionsFailed"`
	RecommendationCalls  int64         `json:"recommendationCalls"`
	RecommendationFailed int64         `json:"recommendationFailed"`
	FootwearResponses    int64         `json:"footwearResponses"`
	Violations           []Violation   `json:"violations"`
	StartTime            time.Time     `json:"startTime"`
	EndTime              time.Time     `json:"endTime"`
	Duration             time.Duration `json:"duration"`
}

type allProductsResponse struct {
	Products   []model.Product `json:"products"`
	TotalCount int             `json:"totalCount"`
}

type interactionRequest struct {
	ProductID       string `json:"productId"`
	InteractionType string `json:"interactionType"`
}

type recommendationResponse = types.RecommendationResponse
