package agreement

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"worksflow/schedule"
)

// TestRepository_Integration connects to a real PostgreSQL via DATABASE_URL and
// verifies the atomic create-if-absent behavior end to end, including under
// concurrent creators.
func TestRepository_Integration(t *testing.T) {
	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL is empty; set it to a live PostgreSQL to run integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		t.Fatalf("connect pool: %v", err)
	}
	defer pool.Close()

	var exists bool
	if err := pool.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = 'works_agreements')`).Scan(&exists); err != nil {
		t.Fatalf("check schema: %v", err)
	}
	if !exists {
		t.Skip("database schema missing; apply migrations from the migrations folder")
	}

	repo := NewRepository(pool)
	jobID := fmt.Sprintf("itest-%d", time.Now().UnixNano())

	t.Cleanup(func() {
		ctx2, cancel2 := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel2()
		pool.Exec(ctx2, `DELETE FROM works_agreements WHERE job_id = $1`, jobID)
		pool.Exec(ctx2, `DELETE FROM ingest_events WHERE job_id = $1`, jobID)
	})

	rec := draftAgreement(jobID, 2500000)
	rec.ID = fmt.Sprintf("%x-%d", time.Now().UnixNano(), 0)

	stored, err := repo.Create(ctx, rec)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if stored.CreatedAt.IsZero() {
		t.Errorf("expected created_at populated")
	}
	if got := schedule.Sum(stored.Schedule); got != 2500000 {
		t.Errorf("round-tripped schedule sums to %d", got)
	}

	// Duplicate insert hits the unique constraint.
	dup := draftAgreement(jobID, 9900000)
	dup.ID = fmt.Sprintf("%x-%d", time.Now().UnixNano(), 1)
	if _, err := repo.Create(ctx, dup); !errors.Is(err, ErrAgreementExists) {
		t.Fatalf("expected ErrAgreementExists, got %v", err)
	}

	// Partial update with a new total replaces the schedule.
	newTotal := int64(3000000)
	updated, err := repo.Update(ctx, jobID, UpdateFields{TotalCents: &newTotal, Schedule: schedule.Build(newTotal)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.TotalCents != newTotal || schedule.Sum(updated.Schedule) != newTotal {
		t.Fatalf("update did not replace total/schedule: %+v", updated)
	}

	// Concurrent creators on a fresh job id: exactly one insert wins.
	raceID := jobID + "-race"
	t.Cleanup(func() {
		pool.Exec(context.Background(), `DELETE FROM works_agreements WHERE job_id = $1`, raceID)
	})

	const n = 8
	var wins int32
	var g errgroup.Group
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			r := draftAgreement(raceID, 2100000)
			r.ID = fmt.Sprintf("%x-race-%d", time.Now().UnixNano(), i)
			_, err := repo.Create(ctx, r)
			if err == nil {
				atomic.AddInt32(&wins, 1)
				return nil
			}
			if errors.Is(err, ErrAgreementExists) {
				return nil
			}
			return err
		})
	}
	if err := g.Wait(); err != nil {
		t.Fatalf("concurrent create: %v", err)
	}
	if wins != 1 {
		t.Fatalf("expected exactly one winning insert, got %d", wins)
	}

	if err := repo.Delete(ctx, raceID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := repo.Delete(ctx, raceID); !errors.Is(err, ErrAgreementNotFound) {
		t.Fatalf("second delete: expected ErrAgreementNotFound, got %v", err)
	}
}
