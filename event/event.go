package event

// Source identifies which inbound shape produced a JobEvent.
type Source string

const (
	SourceWebhookV1 Source = "webhook-v1"
	SourceWebhookV2 Source = "webhook-v2"
	SourceManual    Source = "manual"
)

// Action is the job lifecycle transition the upstream system reported.
type Action string

const (
	ActionCreated Action = "created"
	ActionUpdated Action = "updated"
)

// JobEvent is the canonical form every inbound delivery is reduced to before
// the ingest pipeline sees it. One instance per inbound call, never retained.
type JobEvent struct {
	Source    Source
	JobID     string
	CompanyID int
	Action    Action

	// RawTotalIncGst carries the total embedded in legacy payloads. The pipeline
	// works from enriched totals; this survives only for fallback construction.
	RawTotalIncGst float64
}
