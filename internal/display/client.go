package display

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"stagedoor/internal/dto"
)

// NewLineupFetcher builds a FetchFunc hitting the public lineup endpoint for
// one event. An empty dateKey means "today", re-evaluated on every fetch so
// a screen left running overnight rolls over on its own.
func NewLineupFetcher(baseURL string, eventID int64, dateKey string) FetchFunc {
	client := &http.Client{Timeout: 5 * time.Second}

	return func(ctx context.Context) (*dto.LineupResponse, error) {
		date := dateKey
		if date == "" {
			date = time.Now().Format("2006-01-02")
		}
		endpoint := fmt.Sprintf("%s/v1/events/%d/lineup?date=%s", baseURL, eventID, url.QueryEscape(date))

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}

		resp, err := client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("lineup endpoint returned %s", resp.Status)
		}

		var envelope struct {
			Status string             `json:"status"`
			Data   dto.LineupResponse `json:"data"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
			return nil, fmt.Errorf("decode lineup response: %w", err)
		}
		return &envelope.Data, nil
	}
}
