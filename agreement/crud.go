package agreement

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"worksflow/event"
	"worksflow/logger"
	"worksflow/schedule"
)

// CreateParams is a manual, operator-supplied agreement. Job id and a positive
// total are mandatory; everything else has sensible blanks or placeholders.
type CreateParams struct {
	JobID        string
	JobNumber    string
	JobName      string
	ClientName   string
	SiteAddress  string
	SiteName     string
	InitialWorks string
	ColourScheme string
	TotalIncGst  float64
	IssueDate    string
}

// UpdateParams is the PATCH body: nil means "leave alone". A new total triggers
// schedule recomputation before the store merge.
type UpdateParams struct {
	JobNumber    *string
	JobName      *string
	ClientName   *string
	SiteAddress  *string
	SiteName     *string
	InitialWorks *string
	ColourScheme *string
	TotalIncGst  *float64
	IssueDate    *string
}

// CRUDService backs the manual agreement API. It shares the store (and its
// atomic create) and the schedule synthesizer with the webhook path.
type CRUDService struct {
	store       Store
	audit       IngestRecorder
	log         *logger.Logger
	idGenerator func() string
	now         func() time.Time
}

func NewCRUDService(store Store, audit IngestRecorder, log *logger.Logger) *CRUDService {
	if log == nil {
		log = logger.Nop()
	}
	return &CRUDService{
		store:       store,
		audit:       audit,
		log:         log,
		idGenerator: func() string { return uuid.NewString() },
		now:         time.Now,
	}
}

func (s *CRUDService) WithIDGenerator(gen func() string) *CRUDService {
	s.idGenerator = gen
	return s
}

func (s *CRUDService) WithClock(now func() time.Time) *CRUDService {
	s.now = now
	return s
}

func (s *CRUDService) Create(ctx context.Context, operatorID string, params CreateParams) (WorksAgreement, error) {
	jobID := strings.TrimSpace(params.JobID)
	if jobID == "" {
		return WorksAgreement{}, ErrJobIDRequired
	}
	totalCents := schedule.ToCents(params.TotalIncGst)
	if totalCents <= 0 {
		return WorksAgreement{}, ErrTotalRequired
	}

	issueDate := params.IssueDate
	if issueDate == "" {
		issueDate = s.now().Format("02/01/2006")
	}
	initialWorks := params.InitialWorks
	if initialWorks == "" {
		initialWorks = DefaultInitialWorks
	}
	colourScheme := params.ColourScheme
	if colourScheme == "" {
		colourScheme = DefaultColourScheme
	}

	rec := WorksAgreement{
		ID:           s.idGenerator(),
		JobID:        jobID,
		JobNumber:    params.JobNumber,
		JobName:      params.JobName,
		ClientName:   params.ClientName,
		SiteAddress:  params.SiteAddress,
		SiteName:     params.SiteName,
		InitialWorks: initialWorks,
		ColourScheme: colourScheme,
		TotalCents:   totalCents,
		Schedule:     schedule.Build(totalCents),
		IssueDate:    issueDate,
		Status:       StatusDraft,
		Provenance:   ProvenanceManual,
	}

	stored, err := s.store.Create(ctx, rec)
	if err != nil {
		if errors.Is(err, ErrAgreementExists) {
			s.recordManual(ctx, jobID, "create", OutcomeAlreadyExists, operatorDetail(operatorID, "conflict"))
			return WorksAgreement{}, err
		}
		return WorksAgreement{}, err
	}

	s.log.Info("manual agreement created", "jobId", jobID, "operator", operatorID, "totalCents", totalCents)
	s.recordManual(ctx, jobID, "create", OutcomeCreated, operatorDetail(operatorID, fmt.Sprintf("total %d", totalCents)))
	return stored, nil
}

func (s *CRUDService) Get(ctx context.Context, jobID string) (WorksAgreement, error) {
	return s.store.Get(ctx, jobID)
}

func (s *CRUDService) List(ctx context.Context) ([]WorksAgreement, error) {
	return s.store.ListAll(ctx)
}

func (s *CRUDService) Update(ctx context.Context, operatorID, jobID string, params UpdateParams) (WorksAgreement, error) {
	fields := UpdateFields{
		JobNumber:    params.JobNumber,
		JobName:      params.JobName,
		ClientName:   params.ClientName,
		SiteAddress:  params.SiteAddress,
		SiteName:     params.SiteName,
		InitialWorks: params.InitialWorks,
		ColourScheme: params.ColourScheme,
		IssueDate:    params.IssueDate,
	}
	if params.TotalIncGst != nil {
		totalCents := schedule.ToCents(*params.TotalIncGst)
		fields.TotalCents = &totalCents
		fields.Schedule = schedule.Build(totalCents)
	}

	updated, err := s.store.Update(ctx, jobID, fields)
	if err != nil {
		return WorksAgreement{}, err
	}

	s.log.Info("manual agreement updated", "jobId", jobID, "operator", operatorID)
	s.recordManual(ctx, jobID, "update", OutcomeUpdated, operatorDetail(operatorID, ""))
	return updated, nil
}

func (s *CRUDService) Delete(ctx context.Context, operatorID, jobID string) error {
	if err := s.store.Delete(ctx, jobID); err != nil {
		return err
	}
	s.log.Info("manual agreement deleted", "jobId", jobID, "operator", operatorID)
	s.recordManual(ctx, jobID, "delete", OutcomeDeleted, operatorDetail(operatorID, ""))
	return nil
}

func (s *CRUDService) recordManual(ctx context.Context, jobID, action string, outcome Outcome, detail string) {
	if s.audit == nil {
		return
	}
	ev := IngestEvent{
		ID:        s.idGenerator(),
		JobID:     jobID,
		Source:    string(event.SourceManual),
		Action:    action,
		Outcome:   outcome,
		Detail:    detail,
		CreatedAt: s.now().UTC(),
	}
	if err := s.audit.Record(ctx, ev); err != nil {
		s.log.Warn("ingest audit write failed", "jobId", jobID, "outcome", outcome, "error", err)
	}
}

func operatorDetail(operatorID, rest string) string {
	switch {
	case operatorID == "":
		return rest
	case rest == "":
		return "operator " + operatorID
	default:
		return "operator " + operatorID + ": " + rest
	}
}
