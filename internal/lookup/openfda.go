package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	logx "github.com/datasleuth/server/pkg/logger"
)

// Config configures the openFDA enforcement-report client. Enabled gates the
// whole capability; when false the service is wired without external lookup.
type Config struct {
	Enabled bool   `envconfig:"LOOKUP_ENABLED" default:"false"`
	BaseURL string `envconfig:"LOOKUP_BASE_URL" default:"https://api.fda.gov/food/enforcement.json"`
	Limit   int    `envconfig:"LOOKUP_LIMIT" default:"10"`
	Timeout int    `envconfig:"LOOKUP_TIMEOUT_SECONDS" default:"10"`
}

// OpenFDA queries the public openFDA food enforcement database for recall
// events matching a free-text query.
type OpenFDA struct {
	httpClient *http.Client
	baseURL    string
	limit      int
}

func NewOpenFDA(cfg Config) *OpenFDA {
	return &OpenFDA{
		httpClient: &http.Client{Timeout: time.Duration(cfg.Timeout) * time.Second},
		baseURL:    cfg.BaseURL,
		limit:      cfg.Limit,
	}
}

type enforcementResponse struct {
	Results []struct {
		RecallInitiationDate string `json:"recall_initiation_date"`
		ProductDescription   string `json:"product_description"`
		ReasonForRecall      string `json:"reason_for_recall"`
		Classification       string `json:"classification"`
	} `json:"results"`
}

func (c *OpenFDA) Search(ctx context.Context, query string) ([]Event, error) {
	params := url.Values{}
	params.Set("search", fmt.Sprintf("reason_for_recall:%q", query))
	params.Set("limit", strconv.Itoa(c.limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("build lookup request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("lookup request: %w", err)
	}
	defer resp.Body.Close()

	// openFDA answers 404 for "no matches"; that is an empty result, not a failure.
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("lookup returned status %d", resp.StatusCode)
	}

	var body enforcementResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode lookup response: %w", err)
	}

	events := make([]Event, 0, len(body.Results))
	for _, r := range body.Results {
		events = append(events, Event{
			Source:      "fda-enforcement",
			Date:        formatRecallDate(r.RecallInitiationDate),
			Description: fmt.Sprintf("%s recall: %s (%s)", r.Classification, r.ProductDescription, r.ReasonForRecall),
		})
	}
	logx.Debug().Int("events", len(events)).Msg("external lookup completed")
	return events, nil
}

// formatRecallDate converts openFDA's YYYYMMDD stamps to ISO dates; anything
// unexpected passes through unchanged.
func formatRecallDate(d string) string {
	if len(d) != 8 {
		return d
	}
	return d[0:4] + "-" + d[4:6] + "-" + d[6:8]
}
