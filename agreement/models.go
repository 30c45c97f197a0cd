package agreement

import (
	"errors"
	"time"

	"worksflow/schedule"
)

var (
	// ErrAgreementExists signals the atomic create hit an existing record for the
	// job id. Expected under duplicate delivery, not a failure.
	ErrAgreementExists = errors.New("agreement: already exists for job")
	// ErrAgreementNotFound is returned when no agreement exists for the job id.
	ErrAgreementNotFound = errors.New("agreement: not found")
	// ErrJobIDRequired signals a manual create without a job identifier.
	ErrJobIDRequired = errors.New("agreement: job id required")
	// ErrTotalRequired signals a manual create without a positive total.
	ErrTotalRequired = errors.New("agreement: total inc gst required")
)

// Provenance records which entry point created an agreement.
type Provenance string

const (
	ProvenanceWebhook Provenance = "webhook"
	ProvenanceManual  Provenance = "manual"
)

// StatusDraft is the only status this pipeline produces. Later lifecycle states
// belong to the document workflow, not to ingestion.
const StatusDraft = "draft"

// WorksAgreement is the persisted record: one per job identifier, ever.
type WorksAgreement struct {
	ID           string
	JobID        string
	JobNumber    string
	JobName      string
	ClientName   string
	SiteAddress  string
	SiteName     string
	InitialWorks string
	ColourScheme string
	TotalCents   int64
	Schedule     []schedule.Entry
	IssueDate    string
	Status       string
	Provenance   Provenance
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Placeholder copy carried into the rendered document until an operator edits it.
const (
	DefaultInitialWorks = "Initial works as per the attached contract documentation."
	DefaultColourScheme = "Colour scheme to be confirmed with the owner prior to commencement."
)

// UpdateFields is a partial merge for Update. Nil pointers leave the stored
// value untouched. When TotalCents is set the caller must supply the recomputed
// Schedule alongside it; the store never invokes the synthesizer itself.
type UpdateFields struct {
	JobNumber    *string
	JobName      *string
	ClientName   *string
	SiteAddress  *string
	SiteName     *string
	InitialWorks *string
	ColourScheme *string
	TotalCents   *int64
	Schedule     []schedule.Entry
	IssueDate    *string
}
