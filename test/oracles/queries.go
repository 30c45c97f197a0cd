package oracles

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type Oracle struct {
	Name string
	SQL  string
}

func All() []Oracle {
	return []Oracle{
		{
			Name: "O1_one_agreement_per_job",
			SQL: `SELECT job_id, COUNT(*) FROM works_agreements
                  GROUP BY job_id HAVING COUNT(*) > 1`,
		},
		{
			Name: "O2_schedule_sums_to_total",
			SQL: `SELECT w.job_id, w.total_cents FROM works_agreements w
                  WHERE jsonb_array_length(w.payment_schedule) > 0
                    AND w.total_cents <> (
                        SELECT SUM((e->>'amountCents')::bigint)
                        FROM jsonb_array_elements(w.payment_schedule) e)`,
		},
		{
			Name: "O3_schedule_positions_sequential",
			SQL: `SELECT w.job_id FROM works_agreements w
                  WHERE EXISTS (
                      SELECT 1
                      FROM jsonb_array_elements(w.payment_schedule) WITH ORDINALITY AS t(e, ord)
                      WHERE (t.e->>'position')::int <> t.ord)`,
		},
		{
			Name: "O4_positive_total_has_schedule",
			SQL: `SELECT job_id FROM works_agreements
                  WHERE total_cents > 0 AND jsonb_array_length(payment_schedule) = 0`,
		},
		{
			Name: "O5_provenance_valid",
			SQL: `SELECT job_id, provenance FROM works_agreements
                  WHERE provenance NOT IN ('webhook','manual')`,
		},
		{
			Name: "O6_ingest_outcome_valid",
			SQL: `SELECT id, outcome FROM ingest_events
                  WHERE outcome NOT IN ('created','updated','already_exists','below_threshold','not_job_event','deleted','failed')`,
		},
	}
}

// Run executes all oracles and returns the first failure (name and sample row text) or empty name if all pass.
func Run(ctx context.Context, pool *pgxpool.Pool) (string, string, error) {
	for _, o := range All() {
		rows, err := pool.Query(ctx, o.SQL)
		if err != nil {
			return o.Name, "", fmt.Errorf("oracle %s: %w", o.Name, err)
		}
		has := rows.Next()
		if has {
			vals, err := rows.Values()
			rows.Close()
			if err != nil {
				return o.Name, "", err
			}
			return o.Name, fmt.Sprintf("%v", vals), nil
		}
		rows.Close()
	}
	return "", "", nil
}
