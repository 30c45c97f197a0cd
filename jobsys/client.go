// Package jobsys is the seam to the external job-management system. The
// pipeline consumes the enrichment snapshot; the system itself lives elsewhere.
package jobsys

import (
	"context"
	"strings"
	"time"
)

// EnrichedJob is the read-only snapshot fetched for one ingest request. It is
// owned by the call that fetched it and never cached beyond the request.
type EnrichedJob struct {
	ID         string
	Number     string
	Name       string
	ClientName string
	SiteName   string

	AddressLine string
	City        string
	State       string
	Postcode    string

	TotalIncGstCents int64
	IssuedAt         time.Time
}

// SiteAddress composes the display address, dropping empty components.
func (j EnrichedJob) SiteAddress() string {
	parts := make([]string, 0, 4)
	for _, p := range []string{j.AddressLine, j.City, j.State, j.Postcode} {
		if s := strings.TrimSpace(p); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

// Client fetches enriched job data by job and company identifier. A failure
// aborts the ingest request; no partial agreement is ever built from it.
type Client interface {
	GetJob(ctx context.Context, jobID string, companyID int) (EnrichedJob, error)
}
