package agreement

import (
	"context"
	"sync"
	"time"

	"worksflow/schedule"
)

// MemStore holds agreements in process memory behind one mutex, so the
// check-and-insert in Create is atomic with respect to every other caller.
// Used by tests and for running the service without Postgres.
type MemStore struct {
	mu    sync.Mutex
	byJob map[string]WorksAgreement
}

func NewMemStore() *MemStore {
	return &MemStore{byJob: make(map[string]WorksAgreement)}
}

func (m *MemStore) Get(ctx context.Context, jobID string) (WorksAgreement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byJob[jobID]
	if !ok {
		return WorksAgreement{}, ErrAgreementNotFound
	}
	return cloneAgreement(rec), nil
}

func (m *MemStore) Create(ctx context.Context, rec WorksAgreement) (WorksAgreement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byJob[rec.JobID]; ok {
		return WorksAgreement{}, ErrAgreementExists
	}
	m.byJob[rec.JobID] = cloneAgreement(rec)
	return rec, nil
}

func (m *MemStore) Update(ctx context.Context, jobID string, fields UpdateFields) (WorksAgreement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.byJob[jobID]
	if !ok {
		return WorksAgreement{}, ErrAgreementNotFound
	}

	mergeFields(&rec, fields)
	rec.UpdatedAt = time.Now().UTC()
	m.byJob[jobID] = cloneAgreement(rec)
	return cloneAgreement(rec), nil
}

func (m *MemStore) Delete(ctx context.Context, jobID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byJob[jobID]; !ok {
		return ErrAgreementNotFound
	}
	delete(m.byJob, jobID)
	return nil
}

func (m *MemStore) ListAll(ctx context.Context) ([]WorksAgreement, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]WorksAgreement, 0, len(m.byJob))
	for _, rec := range m.byJob {
		out = append(out, cloneAgreement(rec))
	}
	return out, nil
}

func mergeFields(rec *WorksAgreement, fields UpdateFields) {
	if fields.JobNumber != nil {
		rec.JobNumber = *fields.JobNumber
	}
	if fields.JobName != nil {
		rec.JobName = *fields.JobName
	}
	if fields.ClientName != nil {
		rec.ClientName = *fields.ClientName
	}
	if fields.SiteAddress != nil {
		rec.SiteAddress = *fields.SiteAddress
	}
	if fields.SiteName != nil {
		rec.SiteName = *fields.SiteName
	}
	if fields.InitialWorks != nil {
		rec.InitialWorks = *fields.InitialWorks
	}
	if fields.ColourScheme != nil {
		rec.ColourScheme = *fields.ColourScheme
	}
	if fields.TotalCents != nil {
		rec.TotalCents = *fields.TotalCents
		rec.Schedule = append([]schedule.Entry(nil), fields.Schedule...)
	}
	if fields.IssueDate != nil {
		rec.IssueDate = *fields.IssueDate
	}
}

func cloneAgreement(rec WorksAgreement) WorksAgreement {
	rec.Schedule = append([]schedule.Entry(nil), rec.Schedule...)
	return rec
}

var _ Store = (*MemStore)(nil)
