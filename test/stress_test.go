package test

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"worksflow/agreement"
	"worksflow/jobsys"
	"worksflow/logger"
	"worksflow/test/actors"
	"worksflow/test/chaos"
	"worksflow/test/infra"
	"worksflow/test/oracles"
)

var (
	flDuration    = flag.Duration("duration", 90*time.Second, "how long to run stress")
	flConcurrency = flag.Int("concurrency", 8, "number of concurrent actors per contended job")
	flSeed        = flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flDSN         = flag.String("dsn", "", "existing Postgres DSN to reuse (avoids Docker)")
)

func seedRNG(seed int64) { rand.Seed(seed) }

// stressJobSystem stands in for the upstream job system. Job ids prefixed
// "low-" enrich below the agreement threshold; everything else lands above it
// with a jittered total so schedule recomputation keeps happening.
type stressJobSystem struct{}

func (stressJobSystem) GetJob(ctx context.Context, jobID string, companyID int) (jobsys.EnrichedJob, error) {
	total := int64(2_500_000 + rand.Intn(100)*100)
	if strings.HasPrefix(jobID, "low-") {
		total = 1_500_000
	}
	return jobsys.EnrichedJob{
		ID:               jobID,
		Number:           jobID,
		Name:             "Stress build " + jobID,
		ClientName:       "Stress Client",
		SiteName:         "Lot 12",
		AddressLine:      "14 Harbour Rd",
		City:             "Newcastle",
		State:            "NSW",
		Postcode:         "2300",
		TotalIncGstCents: total,
	}, nil
}

func TestAgreementPipelineConcurrency(t *testing.T) {
	flag.Parse()
	seed := *flSeed
	seedRNG(seed)

	var (
		pgC        *infra.PGContainer
		dsn        string
		err        error
		usedShared bool
	)
	ctx, cancel := context.WithTimeout(context.Background(), *flDuration+60*time.Second)
	defer cancel()

	switch {
	case *flDSN != "":
		dsn = *flDSN
		usedShared = true
		pgC = &infra.PGContainer{}
	case os.Getenv("STRESS_TEST_PG_DSN") != "":
		dsn = os.Getenv("STRESS_TEST_PG_DSN")
		usedShared = true
		pgC = &infra.PGContainer{}
	default:
		if dockerAvailable(ctx) {
			pgC, dsn, err = infra.StartPostgres16(ctx, "")
			if err != nil {
				t.Fatalf("start postgres: %v", err)
			}
		} else {
			dsn, err = infra.InitLocalDatabase(ctx)
			if err != nil {
				t.Fatalf("init local database: %v", err)
			}
			pgC = &infra.PGContainer{}
		}
	}
	defer pgC.Terminate(context.Background())

	// migrations
	pool, teardown, err := infra.ApplyMigrations(ctx, dsn, usedShared)
	if err != nil {
		t.Fatalf("apply migrations: %v", err)
	}
	defer pool.Close()
	defer func() {
		if err := teardown(context.Background()); err != nil {
			t.Logf("teardown warning: %v", err)
		}
	}()

	store := agreement.NewRepository(pool)
	audit := agreement.NewPGIngestLog(pool)
	log := logger.Nop()
	svc := agreement.NewService(store, stressJobSystem{}, audit, log, agreement.DefaultThresholdCents)
	crud := agreement.NewCRUDService(store, audit, log)

	contended := []string{"job-7001", "job-7002", "job-7003"}

	// run actors
	g, ctx2 := errgroup.WithContext(ctx)
	stop := make(chan struct{})

	// webhook, manual, and raw-SQL creators all battling over the same job ids
	for _, jobID := range contended {
		jobID := jobID
		for i := 0; i < *flConcurrency; i++ {
			g.Go(func() error { return actors.WebhookCreator(ctx2, svc, jobID, stop) })
			g.Go(func() error { return actors.ManualCreator(ctx2, crud, jobID, stop) })
		}
		g.Go(func() error { return actors.RawInserter(ctx2, pool, jobID, stop) })
		g.Go(func() error { return actors.WebhookUpdater(ctx2, svc, jobID, stop) })
		g.Go(func() error { return actors.Patcher(ctx2, crud, jobID, stop) })
	}
	// below-threshold deliveries must never materialise a record
	g.Go(func() error { return actors.WebhookCreator(ctx2, svc, "low-9001", stop) })
	// create/delete churn on its own id
	g.Go(func() error { return actors.Churner(ctx2, crud, "job-churn", stop) })
	// chaos: kill random backend
	go chaos.TerminateRandomBackend(ctx2, pool, "", stop)

	// schedule oracle checks until duration reached
	deadline := time.Now().Add(*flDuration)
	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	var failed bool
loop:
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			break loop
		case <-ticker.C:
			name, row, err := oracles.Run(ctx2, pool)
			if err != nil {
				if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
					break loop
				}
				t.Fatalf("oracle error: %v", err)
			}
			if name != "" {
				failed = true
				dumpRecent(t, ctx2, pool)
				t.Fatalf("Oracle %s failed. First row: %s (seed=%d)", name, row, seed)
			}
		}
	}

	close(stop)
	if err := g.Wait(); err != nil && !failed {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			t.Fatalf("actors errored: %v", err)
		}
	}

	// exactly one survivor per contended job id, none for below-threshold jobs
	for _, jobID := range contended {
		var n int
		if err := pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM works_agreements WHERE job_id=$1`, jobID).Scan(&n); err != nil {
			t.Fatalf("count %s: %v", jobID, err)
		}
		if n != 1 {
			t.Errorf("job %s: expected exactly one agreement, got %d (seed=%d)", jobID, n, seed)
		}
	}
	var low int
	if err := pool.QueryRow(context.Background(), `SELECT COUNT(*) FROM works_agreements WHERE job_id='low-9001'`).Scan(&low); err != nil {
		t.Fatalf("count low-9001: %v", err)
	}
	if low != 0 {
		t.Errorf("below-threshold job materialised %d agreements (seed=%d)", low, seed)
	}
}

func dockerAvailable(ctx context.Context) bool {
	if _, err := exec.LookPath("docker"); err != nil {
		return false
	}
	c := exec.CommandContext(ctx, "docker", "info")
	c.Stdout = io.Discard
	c.Stderr = io.Discard
	return c.Run() == nil
}

func dumpRecent(t *testing.T, ctx context.Context, pool *pgxpool.Pool) {
	t.Helper()
	type dump struct {
		name string
		sql  string
	}
	dumps := []dump{
		{"works_agreements", `SELECT id, job_id, total_cents, provenance, status, created_at FROM works_agreements ORDER BY created_at DESC LIMIT 50`},
		{"ingest_events", `SELECT id, job_id, source, action, outcome, created_at FROM ingest_events ORDER BY created_at DESC LIMIT 50`},
	}
	for _, d := range dumps {
		rows, err := pool.Query(ctx, d.sql)
		if err != nil {
			t.Logf("dump %s error: %v", d.name, err)
			continue
		}
		cols := rows.FieldDescriptions()
		t.Logf("-- %s --", d.name)
		for rows.Next() {
			vals, _ := rows.Values()
			// compact print
			buf := make([]any, 0, len(vals))
			for i := range vals {
				buf = append(buf, fmt.Sprintf("%s=%v", string(cols[i].Name), vals[i]))
			}
			t.Logf("%s", buf)
		}
		rows.Close()
	}
}
