package agreement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"worksflow/event"
	"worksflow/jobsys"
	"worksflow/logger"
	"worksflow/schedule"
)

// Outcome classifies how the pipeline resolved one inbound event. Everything
// except a hard failure is an acknowledged outcome, not an error.
type Outcome string

const (
	OutcomeCreated        Outcome = "created"
	OutcomeUpdated        Outcome = "updated"
	OutcomeAlreadyExists  Outcome = "already_exists"
	OutcomeBelowThreshold Outcome = "below_threshold"
	OutcomeNotJobEvent    Outcome = "not_job_event"
	OutcomeDeleted        Outcome = "deleted"
	OutcomeFailed         Outcome = "failed"
)

// IngestResult is what the webhook endpoint maps into an HTTP response.
type IngestResult struct {
	Outcome   Outcome
	Reason    string
	Agreement *WorksAgreement
}

// Service orchestrates webhook-triggered agreement creation: enrichment,
// threshold gating, schedule synthesis, and the atomic store create.
type Service struct {
	store          Store
	jobs           jobsys.Client
	audit          IngestRecorder
	log            *logger.Logger
	thresholdCents int64
	idGenerator    func() string
	now            func() time.Time
}

func NewService(store Store, jobs jobsys.Client, audit IngestRecorder, log *logger.Logger, thresholdCents int64) *Service {
	if log == nil {
		log = logger.Nop()
	}
	if thresholdCents <= 0 {
		thresholdCents = DefaultThresholdCents
	}
	return &Service{
		store:          store,
		jobs:           jobs,
		audit:          audit,
		log:            log,
		thresholdCents: thresholdCents,
		idGenerator:    func() string { return uuid.NewString() },
		now:            time.Now,
	}
}

func (s *Service) WithIDGenerator(gen func() string) *Service {
	s.idGenerator = gen
	return s
}

func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// HandleJobEvent runs one normalized event through the pipeline. The returned
// error is reserved for enrichment or store failures; every expected outcome
// (duplicate, below threshold) comes back as an acknowledged IngestResult.
func (s *Service) HandleJobEvent(ctx context.Context, evt event.JobEvent) (IngestResult, error) {
	log := s.log.With("jobId", evt.JobID, "source", evt.Source, "action", evt.Action)

	// Fast-path duplicate check. This is an optimization to skip the enrichment
	// call for obvious replays; the atomic Create below is the real guarantee.
	if evt.Action == event.ActionCreated {
		existing, err := s.store.Get(ctx, evt.JobID)
		if err == nil {
			log.Info("skipping delivery, agreement already exists")
			s.record(ctx, evt, OutcomeAlreadyExists, "duplicate delivery")
			return IngestResult{Outcome: OutcomeAlreadyExists, Reason: "agreement already exists", Agreement: &existing}, nil
		}
		if !errors.Is(err, ErrAgreementNotFound) {
			return IngestResult{}, fmt.Errorf("agreement: precheck %s: %w", evt.JobID, err)
		}
	}

	job, err := s.jobs.GetJob(ctx, evt.JobID, evt.CompanyID)
	if err != nil {
		log.Error("enrichment failed", "error", err)
		s.record(ctx, evt, OutcomeFailed, "enrichment: "+err.Error())
		return IngestResult{}, fmt.Errorf("agreement: enrich job %s: %w", evt.JobID, err)
	}
	if job.ID == "" {
		job.ID = evt.JobID
	}

	if evt.Action == event.ActionUpdated {
		existing, err := s.store.Get(ctx, evt.JobID)
		if err == nil {
			return s.applyUpdate(ctx, evt, existing, job, log)
		}
		if !errors.Is(err, ErrAgreementNotFound) {
			return IngestResult{}, fmt.Errorf("agreement: lookup %s: %w", evt.JobID, err)
		}
		// First observation of this job id: fall through to the create path.
	}

	if !ShouldCreate(job.TotalIncGstCents, s.thresholdCents) {
		log.Info("skipping delivery, total below threshold",
			"totalCents", job.TotalIncGstCents, "thresholdCents", s.thresholdCents)
		s.record(ctx, evt, OutcomeBelowThreshold, fmt.Sprintf("total %d below threshold %d", job.TotalIncGstCents, s.thresholdCents))
		return IngestResult{Outcome: OutcomeBelowThreshold, Reason: "total below threshold"}, nil
	}

	rec := s.buildAgreement(job, ProvenanceWebhook)
	stored, err := s.store.Create(ctx, rec)
	if err != nil {
		if errors.Is(err, ErrAgreementExists) {
			log.Info("create lost the race, agreement already exists")
			s.record(ctx, evt, OutcomeAlreadyExists, "concurrent create conflict")
			result := IngestResult{Outcome: OutcomeAlreadyExists, Reason: "agreement already exists"}
			if existing, getErr := s.store.Get(ctx, evt.JobID); getErr == nil {
				result.Agreement = &existing
			}
			return result, nil
		}
		log.Error("store create failed", "error", err)
		s.record(ctx, evt, OutcomeFailed, "store: "+err.Error())
		return IngestResult{}, err
	}

	log.Info("agreement created", "totalCents", stored.TotalCents, "scheduleEntries", len(stored.Schedule))
	s.record(ctx, evt, OutcomeCreated, fmt.Sprintf("total %d", stored.TotalCents))
	return IngestResult{Outcome: OutcomeCreated, Reason: "agreement created", Agreement: &stored}, nil
}

func (s *Service) applyUpdate(ctx context.Context, evt event.JobEvent, existing WorksAgreement, job jobsys.EnrichedJob, log *logger.Logger) (IngestResult, error) {
	total := job.TotalIncGstCents
	fields := UpdateFields{
		JobNumber:   strPtr(job.Number),
		JobName:     strPtr(job.Name),
		ClientName:  strPtr(job.ClientName),
		SiteAddress: strPtr(job.SiteAddress()),
		SiteName:    strPtr(job.SiteName),
		TotalCents:  &total,
		Schedule:    schedule.Build(total),
	}

	updated, err := s.store.Update(ctx, evt.JobID, fields)
	if err != nil {
		if errors.Is(err, ErrAgreementNotFound) {
			// Deleted between lookup and merge; treat as a no-op skip.
			s.record(ctx, evt, OutcomeNotJobEvent, "agreement removed mid-update")
			return IngestResult{Outcome: OutcomeNotJobEvent, Reason: "agreement no longer exists"}, nil
		}
		log.Error("store update failed", "error", err)
		s.record(ctx, evt, OutcomeFailed, "store: "+err.Error())
		return IngestResult{}, err
	}

	log.Info("agreement updated", "totalCents", updated.TotalCents)
	s.record(ctx, evt, OutcomeUpdated, fmt.Sprintf("total %d -> %d", existing.TotalCents, updated.TotalCents))
	return IngestResult{Outcome: OutcomeUpdated, Reason: "agreement updated", Agreement: &updated}, nil
}

func (s *Service) buildAgreement(job jobsys.EnrichedJob, prov Provenance) WorksAgreement {
	issued := job.IssuedAt
	if issued.IsZero() {
		issued = s.now()
	}
	return WorksAgreement{
		ID:           s.idGenerator(),
		JobID:        job.ID,
		JobNumber:    job.Number,
		JobName:      job.Name,
		ClientName:   job.ClientName,
		SiteAddress:  job.SiteAddress(),
		SiteName:     job.SiteName,
		InitialWorks: DefaultInitialWorks,
		ColourScheme: DefaultColourScheme,
		TotalCents:   job.TotalIncGstCents,
		Schedule:     schedule.Build(job.TotalIncGstCents),
		IssueDate:    issued.Format("02/01/2006"),
		Status:       StatusDraft,
		Provenance:   prov,
	}
}

func (s *Service) record(ctx context.Context, evt event.JobEvent, outcome Outcome, detail string) {
	if s.audit == nil {
		return
	}
	ev := IngestEvent{
		ID:        s.idGenerator(),
		JobID:     evt.JobID,
		Source:    string(evt.Source),
		Action:    string(evt.Action),
		Outcome:   outcome,
		Detail:    detail,
		CreatedAt: s.now().UTC(),
	}
	if err := s.audit.Record(ctx, ev); err != nil {
		s.log.Warn("ingest audit write failed", "jobId", evt.JobID, "outcome", outcome, "error", err)
	}
}

func strPtr(s string) *string {
	return &s
}
