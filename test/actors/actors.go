package actors

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"worksflow/agreement"
	"worksflow/event"
)

// WebhookCreator replays job-created deliveries for the same job id through the
// full ingest path. Under contention exactly one delivery wins; the rest resolve
// as already_exists, which is an acknowledged outcome and never an error.
func WebhookCreator(ctx context.Context, svc *agreement.Service, jobID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		evt := event.JobEvent{Source: event.SourceWebhookV1, JobID: jobID, Action: event.ActionCreated}
		if _, err := svc.HandleJobEvent(ctx, evt); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		time.Sleep(time.Duration(10+rand.Intn(20)) * time.Millisecond)
	}
}

// WebhookUpdater replays job-updated deliveries, racing the creators. Updates
// against an existing record recompute the schedule; updates arriving first take
// the create path instead.
func WebhookUpdater(ctx context.Context, svc *agreement.Service, jobID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		evt := event.JobEvent{Source: event.SourceWebhookV2, JobID: jobID, Action: event.ActionUpdated}
		if _, err := svc.HandleJobEvent(ctx, evt); err != nil && ctx.Err() != nil {
			return ctx.Err()
		}
		time.Sleep(time.Duration(20+rand.Intn(40)) * time.Millisecond)
	}
}

// ManualCreator races operator-entered creates against the webhook path for the
// same job id. Losing the race surfaces as ErrAgreementExists, which is expected.
func ManualCreator(ctx context.Context, crud *agreement.CRUDService, jobID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, err := crud.Create(ctx, "stress-op", agreement.CreateParams{
			JobID:       jobID,
			JobName:     "Stress build " + jobID,
			ClientName:  "Stress Client",
			TotalIncGst: float64(25000 + rand.Intn(20000)),
		})
		if err != nil && !errors.Is(err, agreement.ErrAgreementExists) && ctx.Err() != nil {
			return ctx.Err()
		}
		time.Sleep(time.Duration(15+rand.Intn(30)) * time.Millisecond)
	}
}

// RawInserter hammers the unique constraint directly, below the service layer.
// 23505 is the expected loss under contention; anything else is a real failure.
func RawInserter(ctx context.Context, pool *pgxpool.Pool, jobID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, err := pool.Exec(ctx, `INSERT INTO works_agreements (id, job_id, total_cents, payment_schedule, provenance)
                                   VALUES ($1, $2, 2500000, '[{"stage":"Deposit","amountCents":2500000,"position":1}]'::jsonb, 'manual')`,
			fmt.Sprintf("raw-%s-%d", jobID, rand.Int63()), jobID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				// expected under contention
			} else if ctx.Err() != nil {
				return ctx.Err()
			}
		}
		time.Sleep(time.Duration(10+rand.Intn(20)) * time.Millisecond)
	}
}

// Patcher applies random total patches so the schedule synthesizer keeps getting
// re-run against a live row. Missing records (not yet created, or churned away)
// are fine.
func Patcher(ctx context.Context, crud *agreement.CRUDService, jobID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		total := float64(21000 + rand.Intn(50000))
		_, err := crud.Update(ctx, "stress-op", jobID, agreement.UpdateParams{TotalIncGst: &total})
		if err != nil && !errors.Is(err, agreement.ErrAgreementNotFound) && ctx.Err() != nil {
			return ctx.Err()
		}
		time.Sleep(time.Duration(30+rand.Intn(50)) * time.Millisecond)
	}
}

// Churner creates and deletes its own job id in a loop, interleaving with the
// chaos killer to catch partial writes.
func Churner(ctx context.Context, crud *agreement.CRUDService, jobID string, stop <-chan struct{}) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-stop:
			return nil
		default:
		}
		_, err := crud.Create(ctx, "stress-op", agreement.CreateParams{JobID: jobID, TotalIncGst: 30000})
		if err == nil || errors.Is(err, agreement.ErrAgreementExists) {
			_ = crud.Delete(ctx, "stress-op", jobID)
		} else if ctx.Err() != nil {
			return ctx.Err()
		}
		time.Sleep(time.Duration(40+rand.Intn(60)) * time.Millisecond)
	}
}
