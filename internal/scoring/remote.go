package scoring

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/skadziol/sando-seer/internal/domain"
)

// RemoteScorer calls an external forecasting service over HTTP. Every call
// carries a bounded timeout; any failure surfaces as an error and never as a
// default score.
type RemoteScorer struct {
	url     string
	client  *http.Client
	timeout time.Duration
}

// NewRemoteScorer creates a forecaster client.
func NewRemoteScorer(url string, timeout time.Duration) *RemoteScorer {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &RemoteScorer{
		url:     url,
		client:  &http.Client{Timeout: timeout},
		timeout: timeout,
	}
}

// forecastRequest is the wire form sent to the forecaster.
type forecastRequest struct {
	Kind           string       `json:"kind"`
	Venue          string       `json:"venue"`
	Legs           []domain.Leg `json:"legs"`
	ExpectedProfit float64      `json:"expected_profit"`
	SuccessRate    float64      `json:"success_rate"`
	OpenAttempts   int          `json:"open_attempts"`
}

// forecastResponse is the forecaster's reply.
type forecastResponse struct {
	Score float64 `json:"score"`
	Risk  string  `json:"risk,omitempty"`
}

// Score asks the forecaster to refine a locally estimated score. The local
// estimate is passed in via sc so the service sees the same economics.
func (r *RemoteScorer) Score(ctx context.Context, cand *domain.OpportunityCandidate, sc Context) (*domain.ScoredOpportunity, error) {
	local := NewHeuristicScorer()
	base, err := local.Score(ctx, cand, sc)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	body, err := json.Marshal(forecastRequest{
		Kind:           string(cand.Kind),
		Venue:          cand.Venue,
		Legs:           cand.Legs,
		ExpectedProfit: base.ExpectedProfit,
		SuccessRate:    sc.SuccessRate(),
		OpenAttempts:   sc.Exposure.OpenAttempts,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, &domain.TransportError{Op: "forecast", Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &domain.TransportError{Op: "forecast", Err: fmt.Errorf("status %d", resp.StatusCode)}
	}

	var fr forecastResponse
	if err := json.NewDecoder(resp.Body).Decode(&fr); err != nil {
		return nil, fmt.Errorf("decode forecast response: %w", err)
	}
	if fr.Score < 0 || fr.Score > 1 {
		return nil, fmt.Errorf("forecast score %f out of range", fr.Score)
	}

	base.Confidence = BandConfidence(fr.Score)
	if risk := parseRisk(fr.Risk); risk != "" {
		base.Risk = risk
	}
	base.ScoredAt = time.Now().UnixMilli()
	return base, nil
}

func parseRisk(s string) domain.RiskClass {
	switch domain.RiskClass(s) {
	case domain.RiskLow, domain.RiskMedium, domain.RiskHigh:
		return domain.RiskClass(s)
	}
	return ""
}
