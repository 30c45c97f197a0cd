package agreement

import "context"

// Store is the only shared mutable state in the pipeline. Create must be a
// single atomic check-and-insert on the job id: concurrent creators for the
// same key serialize so that exactly one succeeds and the rest observe
// ErrAgreementExists. A separate read followed by a separate write is not an
// acceptable implementation.
type Store interface {
	Get(ctx context.Context, jobID string) (WorksAgreement, error)
	Create(ctx context.Context, rec WorksAgreement) (WorksAgreement, error)
	Update(ctx context.Context, jobID string, fields UpdateFields) (WorksAgreement, error)
	Delete(ctx context.Context, jobID string) error
	ListAll(ctx context.Context) ([]WorksAgreement, error)
}
