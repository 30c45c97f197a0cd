package agreement

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// IngestEvent is one audit row per inbound delivery or manual mutation, keyed
// by job id and outcome so duplicate-delivery patterns are queryable.
type IngestEvent struct {
	ID        string
	JobID     string
	Source    string
	Action    string
	Outcome   Outcome
	Detail    string
	CreatedAt time.Time
}

// IngestRecorder persists audit events. Recording is best-effort: callers log
// failures and carry on, they never fail the request over it.
type IngestRecorder interface {
	Record(ctx context.Context, ev IngestEvent) error
}

// PGIngestLog writes audit rows to the ingest_events table.
type PGIngestLog struct {
	pool *pgxpool.Pool
}

func NewPGIngestLog(pool *pgxpool.Pool) *PGIngestLog {
	return &PGIngestLog{pool: pool}
}

func (l *PGIngestLog) Record(ctx context.Context, ev IngestEvent) error {
	_, err := l.pool.Exec(ctx, `
INSERT INTO ingest_events (id, job_id, source, action, outcome, detail)
VALUES ($1,$2,$3,$4,$5,$6)`,
		ev.ID, ev.JobID, ev.Source, ev.Action, ev.Outcome, ev.Detail,
	)
	if err != nil {
		return fmt.Errorf("agreement: record ingest event: %w", err)
	}
	return nil
}

// MemIngestLog collects audit events in memory. Tests assert against Events.
type MemIngestLog struct {
	mu     sync.Mutex
	events []IngestEvent
}

func NewMemIngestLog() *MemIngestLog {
	return &MemIngestLog{}
}

func (l *MemIngestLog) Record(ctx context.Context, ev IngestEvent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, ev)
	return nil
}

func (l *MemIngestLog) Events() []IngestEvent {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]IngestEvent, len(l.events))
	copy(out, l.events)
	return out
}

var (
	_ IngestRecorder = (*PGIngestLog)(nil)
	_ IngestRecorder = (*MemIngestLog)(nil)
)
