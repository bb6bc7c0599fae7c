package sim

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Error codes returned by the service that the simulator reacts to.
const (
	codeAllMatchupsCompleted = "all_matchups_completed"
	codeDuplicateComparison  = "duplicate_comparison"
)

// client wraps http.Client with the service's wire contract.
type client struct {
	http    *http.Client
	baseURL string
}

func newClient(baseURL string, timeout time.Duration) *client {
	return &client{
		http:    &http.Client{Timeout: timeout},
		baseURL: baseURL,
	}
}

// champion carries the "winner stays on" hint between rounds.
type champion struct {
	siteID int64
	side   string
}

// getMatchup fetches the next pair for an actor. exhausted is true when the
// actor has voted every pair.
func (c *client) getMatchup(ctx context.Context, actor string, champ *champion) (matchupPayload, bool, error) {
	q := url.Values{}
	if actor != "" {
		q.Set("actor", actor)
	}
	if champ != nil {
		q.Set("champion", strconv.FormatInt(champ.siteID, 10))
		q.Set("side", champ.side)
	}

	endpoint := c.baseURL + "/matchup"
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return matchupPayload{}, false, fmt.Errorf("building matchup request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return matchupPayload{}, false, fmt.Errorf("fetching matchup: %w", err)
	}
	body, err := readBody(resp)
	if err != nil {
		return matchupPayload{}, false, err
	}

	if resp.StatusCode == http.StatusConflict {
		var ep errorPayload
		if err := json.Unmarshal(body, &ep); err == nil && ep.Code == codeAllMatchupsCompleted {
			return matchupPayload{}, true, nil
		}
		return matchupPayload{}, false, fmt.Errorf("matchup rejected: %s", body)
	}
	if resp.StatusCode != http.StatusOK {
		return matchupPayload{}, false, fmt.Errorf("unexpected matchup status %d: %s", resp.StatusCode, body)
	}

	var mp matchupPayload
	if err := json.Unmarshal(body, &mp); err != nil {
		return matchupPayload{}, false, fmt.Errorf("decoding matchup: %w", err)
	}
	return mp, false, nil
}

// postComparison records one vote. duplicate is true when the service
// rejected the pair as already voted.
func (c *client) postComparison(ctx context.Context, winnerID, loserID int64, actor string) (bool, error) {
	payload, err := json.Marshal(comparisonRequest{WinnerID: winnerID, LoserID: loserID, Actor: actor})
	if err != nil {
		return false, fmt.Errorf("marshaling comparison: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/comparisons", bytes.NewReader(payload))
	if err != nil {
		return false, fmt.Errorf("building comparison request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return false, fmt.Errorf("posting comparison: %w", err)
	}
	body, err := readBody(resp)
	if err != nil {
		return false, err
	}

	switch resp.StatusCode {
	case http.StatusCreated:
		return false, nil
	case http.StatusConflict:
		var ep errorPayload
		if err := json.Unmarshal(body, &ep); err == nil && ep.Code == codeDuplicateComparison {
			return true, nil
		}
		return false, fmt.Errorf("comparison rejected: %s", body)
	default:
		return false, fmt.Errorf("unexpected comparison status %d: %s", resp.StatusCode, body)
	}
}

// getRankings fetches the current leaderboard.
func (c *client) getRankings(ctx context.Context) ([]standing, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rankings", nil)
	if err != nil {
		return nil, fmt.Errorf("building rankings request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching rankings: %w", err)
	}
	body, err := readBody(resp)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected rankings status %d: %s", resp.StatusCode, body)
	}

	var rp rankingsPayload
	if err := json.Unmarshal(body, &rp); err != nil {
		return nil, fmt.Errorf("decoding rankings: %w", err)
	}
	return rp.Rankings, nil
}

// readBody reads and closes the response body.
func readBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading response body: %w", err)
	}
	return body, nil
}
