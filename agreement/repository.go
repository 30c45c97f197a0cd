package agreement

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"worksflow/schedule"
)

const agreementColumns = `id, job_id, job_number, job_name, client_name, site_address, site_name,
       initial_works, colour_scheme, total_cents, payment_schedule, issue_date, status, provenance,
       created_at, updated_at`

// Repository is the Postgres-backed Store. The uniqueness invariant lives in
// the works_agreements.job_id unique constraint: Create maps the unique
// violation (23505) to ErrAgreementExists, so concurrent creators for the same
// job id serialize inside the database and exactly one insert wins.
type Repository struct {
	pool *pgxpool.Pool
}

func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

func (r *Repository) Get(ctx context.Context, jobID string) (WorksAgreement, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+agreementColumns+` FROM works_agreements WHERE job_id = $1`, jobID)
	rec, err := scanAgreement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WorksAgreement{}, ErrAgreementNotFound
		}
		return WorksAgreement{}, fmt.Errorf("agreement: get %s: %w", jobID, err)
	}
	return rec, nil
}

func (r *Repository) Create(ctx context.Context, rec WorksAgreement) (WorksAgreement, error) {
	scheduleJSON, err := json.Marshal(rec.Schedule)
	if err != nil {
		return WorksAgreement{}, fmt.Errorf("agreement: marshal schedule: %w", err)
	}

	const insertSQL = `
INSERT INTO works_agreements
    (id, job_id, job_number, job_name, client_name, site_address, site_name,
     initial_works, colour_scheme, total_cents, payment_schedule, issue_date, status, provenance)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
RETURNING ` + agreementColumns

	row := r.pool.QueryRow(ctx, insertSQL,
		rec.ID, rec.JobID, rec.JobNumber, rec.JobName, rec.ClientName, rec.SiteAddress,
		rec.SiteName, rec.InitialWorks, rec.ColourScheme, rec.TotalCents, scheduleJSON,
		rec.IssueDate, rec.Status, rec.Provenance,
	)
	stored, err := scanAgreement(row)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return WorksAgreement{}, ErrAgreementExists
		}
		return WorksAgreement{}, fmt.Errorf("agreement: insert %s: %w", rec.JobID, err)
	}
	return stored, nil
}

// Update merges the provided fields into the existing row. The row is locked
// FOR UPDATE for the duration of the merge so interleaved updates to the same
// job id apply whole, last-write-wins per call.
func (r *Repository) Update(ctx context.Context, jobID string, fields UpdateFields) (WorksAgreement, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return WorksAgreement{}, fmt.Errorf("agreement: begin update tx: %w", err)
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx, `SELECT `+agreementColumns+` FROM works_agreements WHERE job_id = $1 FOR UPDATE`, jobID)
	rec, err := scanAgreement(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return WorksAgreement{}, ErrAgreementNotFound
		}
		return WorksAgreement{}, fmt.Errorf("agreement: lock %s: %w", jobID, err)
	}

	mergeFields(&rec, fields)

	scheduleJSON, err := json.Marshal(rec.Schedule)
	if err != nil {
		return WorksAgreement{}, fmt.Errorf("agreement: marshal schedule: %w", err)
	}

	const updateSQL = `
UPDATE works_agreements
SET job_number=$2, job_name=$3, client_name=$4, site_address=$5, site_name=$6,
    initial_works=$7, colour_scheme=$8, total_cents=$9, payment_schedule=$10,
    issue_date=$11, updated_at=now()
WHERE job_id=$1
RETURNING ` + agreementColumns

	row = tx.QueryRow(ctx, updateSQL,
		jobID, rec.JobNumber, rec.JobName, rec.ClientName, rec.SiteAddress, rec.SiteName,
		rec.InitialWorks, rec.ColourScheme, rec.TotalCents, scheduleJSON, rec.IssueDate,
	)
	updated, err := scanAgreement(row)
	if err != nil {
		return WorksAgreement{}, fmt.Errorf("agreement: update %s: %w", jobID, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return WorksAgreement{}, fmt.Errorf("agreement: commit update: %w", err)
	}
	return updated, nil
}

func (r *Repository) Delete(ctx context.Context, jobID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM works_agreements WHERE job_id = $1`, jobID)
	if err != nil {
		return fmt.Errorf("agreement: delete %s: %w", jobID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAgreementNotFound
	}
	return nil
}

func (r *Repository) ListAll(ctx context.Context) ([]WorksAgreement, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+agreementColumns+` FROM works_agreements ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("agreement: list: %w", err)
	}
	defer rows.Close()

	records := []WorksAgreement{}
	for rows.Next() {
		rec, err := scanAgreement(rows)
		if err != nil {
			return nil, fmt.Errorf("agreement: scan list row: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("agreement: iterate list: %w", err)
	}
	return records, nil
}

func scanAgreement(row pgx.Row) (WorksAgreement, error) {
	var (
		rec          WorksAgreement
		scheduleJSON []byte
	)
	if err := row.Scan(
		&rec.ID, &rec.JobID, &rec.JobNumber, &rec.JobName, &rec.ClientName, &rec.SiteAddress,
		&rec.SiteName, &rec.InitialWorks, &rec.ColourScheme, &rec.TotalCents, &scheduleJSON,
		&rec.IssueDate, &rec.Status, &rec.Provenance, &rec.CreatedAt, &rec.UpdatedAt,
	); err != nil {
		return WorksAgreement{}, err
	}

	rec.Schedule = []schedule.Entry{}
	if len(scheduleJSON) > 0 {
		if err := json.Unmarshal(scheduleJSON, &rec.Schedule); err != nil {
			return WorksAgreement{}, fmt.Errorf("decode payment schedule: %w", err)
		}
	}
	return rec, nil
}

var _ Store = (*Repository)(nil)
