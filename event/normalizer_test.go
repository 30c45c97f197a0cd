package event

import "testing"

func TestNormalize_ReferenceShape(t *testing.T) {
	body := []byte(`{"name":"Job","action":"created","reference":{"companyID":3,"jobID":10862}}`)

	evt, ok := Normalize(body)
	if !ok {
		t.Fatalf("expected a job event")
	}
	if evt.Source != SourceWebhookV1 {
		t.Errorf("expected source %s, got %s", SourceWebhookV1, evt.Source)
	}
	if evt.JobID != "10862" {
		t.Errorf("expected job id 10862, got %q", evt.JobID)
	}
	if evt.CompanyID != 3 {
		t.Errorf("expected company id 3, got %d", evt.CompanyID)
	}
	if evt.Action != ActionCreated {
		t.Errorf("expected action created, got %s", evt.Action)
	}
}

func TestNormalize_ReferenceShape_StringJobID(t *testing.T) {
	body := []byte(`{"name":"job","action":"UPDATED","reference":{"jobID":"555"}}`)

	evt, ok := Normalize(body)
	if !ok {
		t.Fatalf("expected a job event")
	}
	if evt.JobID != "555" {
		t.Errorf("expected job id 555, got %q", evt.JobID)
	}
	if evt.CompanyID != 0 {
		t.Errorf("expected company id to default to 0, got %d", evt.CompanyID)
	}
	if evt.Action != ActionUpdated {
		t.Errorf("expected action updated, got %s", evt.Action)
	}
}

func TestNormalize_LegacyShape(t *testing.T) {
	cases := []struct {
		event string
		want  Action
	}{
		{"job.created", ActionCreated},
		{"job.updated", ActionUpdated},
		{"Job Created", ActionCreated},
		{"Job Updated", ActionUpdated},
	}

	for _, tc := range cases {
		body := []byte(`{"event":"` + tc.event + `","data":{"ID":42,"Total":{"IncTax":25000.5}}}`)
		evt, ok := Normalize(body)
		if !ok {
			t.Fatalf("event %q: expected a job event", tc.event)
		}
		if evt.Source != SourceWebhookV2 {
			t.Errorf("event %q: expected source %s, got %s", tc.event, SourceWebhookV2, evt.Source)
		}
		if evt.JobID != "42" {
			t.Errorf("event %q: expected job id 42, got %q", tc.event, evt.JobID)
		}
		if evt.Action != tc.want {
			t.Errorf("event %q: expected action %s, got %s", tc.event, tc.want, evt.Action)
		}
		if evt.RawTotalIncGst != 25000.5 {
			t.Errorf("event %q: expected raw total 25000.5, got %v", tc.event, evt.RawTotalIncGst)
		}
	}
}

func TestNormalize_NotAJobEvent(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"malformed json", `{"name":"Job",`},
		{"unrelated name", `{"name":"Invoice","action":"created","reference":{"jobID":1}}`},
		{"unknown action", `{"name":"Job","action":"archived","reference":{"jobID":1}}`},
		{"missing job id", `{"name":"Job","action":"created","reference":{"companyID":1}}`},
		{"unknown legacy event", `{"event":"invoice.created","data":{"ID":9}}`},
		{"legacy missing id", `{"event":"job.created","data":{"Total":{"IncTax":100}}}`},
		{"empty object", `{}`},
	}

	for _, tc := range cases {
		if _, ok := Normalize([]byte(tc.body)); ok {
			t.Errorf("%s: expected no job event", tc.name)
		}
	}
}
