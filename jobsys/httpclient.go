package jobsys

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"worksflow/schedule"
)

// HTTPClient is a thin adapter over the job system's REST API. Only the fields
// the agreement pipeline needs are decoded; everything else is ignored.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewHTTPClient(baseURL, apiKey string) *HTTPClient {
	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: 15 * time.Second},
	}
}

type jobPayload struct {
	ID          json.Number `json:"id"`
	Number      string      `json:"generatedJobId"`
	Name        string      `json:"name"`
	DateIssued  string      `json:"dateIssued"`
	Customer    struct {
		Name string `json:"name"`
	} `json:"customer"`
	Site struct {
		Name    string `json:"name"`
		Address struct {
			Line     string `json:"address"`
			City     string `json:"city"`
			State    string `json:"state"`
			Postcode string `json:"postalCode"`
		} `json:"address"`
	} `json:"site"`
	Total struct {
		IncTax float64 `json:"incTax"`
	} `json:"total"`
}

func (c *HTTPClient) GetJob(ctx context.Context, jobID string, companyID int) (EnrichedJob, error) {
	endpoint := fmt.Sprintf("%s/api/v1.0/companies/%d/jobs/%s", c.baseURL, companyID, url.PathEscape(jobID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return EnrichedJob{}, fmt.Errorf("jobsys: build request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return EnrichedJob{}, fmt.Errorf("jobsys: fetch job %s: %w", jobID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return EnrichedJob{}, fmt.Errorf("jobsys: fetch job %s: unexpected status %d", jobID, resp.StatusCode)
	}

	var payload jobPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return EnrichedJob{}, fmt.Errorf("jobsys: decode job %s: %w", jobID, err)
	}

	issuedAt, _ := time.Parse("2006-01-02", payload.DateIssued)

	id := payload.ID.String()
	if id == "" {
		id = jobID
	}
	number := payload.Number
	if number == "" {
		number = jobID
	}

	return EnrichedJob{
		ID:               id,
		Number:           number,
		Name:             payload.Name,
		ClientName:       payload.Customer.Name,
		SiteName:         payload.Site.Name,
		AddressLine:      payload.Site.Address.Line,
		City:             payload.Site.Address.City,
		State:            payload.Site.Address.State,
		Postcode:         payload.Site.Address.Postcode,
		TotalIncGstCents: schedule.ToCents(payload.Total.IncTax),
		IssuedAt:         issuedAt,
	}, nil
}

var _ Client = (*HTTPClient)(nil)
