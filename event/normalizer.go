package event

import (
	"bytes"
	"encoding/json"
	"strings"
)

// flexID accepts a job identifier serialized as either a JSON number or a string.
// The upstream system is not consistent between payload versions.
type flexID struct {
	value string
}

func (f *flexID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		f.value = strings.TrimSpace(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	f.value = n.String()
	return nil
}

type inboundPayload struct {
	// Current shape: {"name":"Job","action":"created","reference":{...}}
	Name      string `json:"name"`
	Action    string `json:"action"`
	Reference *struct {
		CompanyID int    `json:"companyID"`
		JobID     flexID `json:"jobID"`
	} `json:"reference"`

	// Legacy shape: {"event":"job.created","data":{"ID":...,"Total":{"IncTax":...}}}
	Event string `json:"event"`
	Data  *struct {
		ID    flexID `json:"ID"`
		Total struct {
			IncTax float64 `json:"IncTax"`
		} `json:"Total"`
	} `json:"data"`
}

// Normalize reduces an inbound webhook body to a canonical JobEvent. The second
// return is false when the body is not an actionable job event: malformed JSON,
// an unrelated event name, or a missing job identifier. That is a legitimate
// no-op for the caller, not an error.
func Normalize(body []byte) (JobEvent, bool) {
	var p inboundPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return JobEvent{}, false
	}

	if p.Reference != nil && strings.EqualFold(p.Name, "job") {
		if action, ok := parseAction(p.Action); ok && p.Reference.JobID.value != "" {
			return JobEvent{
				Source:    SourceWebhookV1,
				JobID:     p.Reference.JobID.value,
				CompanyID: p.Reference.CompanyID,
				Action:    action,
			}, true
		}
	}

	if p.Data != nil && p.Data.ID.value != "" {
		if action, ok := parseLegacyEvent(p.Event); ok {
			return JobEvent{
				Source:         SourceWebhookV2,
				JobID:          p.Data.ID.value,
				Action:         action,
				RawTotalIncGst: p.Data.Total.IncTax,
			}, true
		}
	}

	return JobEvent{}, false
}

func parseAction(raw string) (Action, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "created":
		return ActionCreated, true
	case "updated":
		return ActionUpdated, true
	}
	return "", false
}

func parseLegacyEvent(raw string) (Action, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "job.created", "job created":
		return ActionCreated, true
	case "job.updated", "job updated":
		return ActionUpdated, true
	}
	return "", false
}
