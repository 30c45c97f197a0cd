package schedule

import (
	"reflect"
	"testing"
)

func TestBuild_SumsExactly(t *testing.T) {
	totals := []int64{
		1,
		99,
		100,
		101,
		2000000,     // 20,000.00
		2500000,     // 25,000.00
		2500001,     // odd cent
		2999999,
		3000000,
		123456789,
		987654321,
	}

	for _, total := range totals {
		entries := Build(total)
		if got := Sum(entries); got != total {
			t.Errorf("total %d: schedule sums to %d", total, got)
		}
	}
}

func TestBuild_SumsExactlyAcrossRange(t *testing.T) {
	// Sweep a window of consecutive cent values to catch rounding drift.
	for total := int64(1999950); total <= 2000050; total++ {
		if got := Sum(Build(total)); got != total {
			t.Fatalf("total %d: schedule sums to %d", total, got)
		}
	}
}

func TestBuild_Deterministic(t *testing.T) {
	first := Build(2500000)
	second := Build(2500000)
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("expected identical schedules, got %+v vs %+v", first, second)
	}
}

func TestBuild_StableOrderingAndStages(t *testing.T) {
	entries := Build(3000000)
	if len(entries) != 5 {
		t.Fatalf("expected 5 entries, got %d", len(entries))
	}

	wantStages := []string{"Deposit", "Base stage", "Frame stage", "Lock-up stage", "Practical completion"}
	for i, e := range entries {
		if e.Position != i+1 {
			t.Errorf("entry %d: expected position %d, got %d", i, i+1, e.Position)
		}
		if e.Stage != wantStages[i] {
			t.Errorf("entry %d: expected stage %q, got %q", i, wantStages[i], e.Stage)
		}
		if e.AmountCents <= 0 {
			t.Errorf("entry %d: expected positive amount, got %d", i, e.AmountCents)
		}
	}

	// 30,000.00 splits cleanly: 10/20/25/25 percent plus the 20 percent remainder.
	wantAmounts := []int64{300000, 600000, 750000, 750000, 600000}
	for i, e := range entries {
		if e.AmountCents != wantAmounts[i] {
			t.Errorf("entry %d: expected %d cents, got %d", i, wantAmounts[i], e.AmountCents)
		}
	}
}

func TestBuild_NonPositiveTotals(t *testing.T) {
	for _, total := range []int64{0, -1, -2500000} {
		entries := Build(total)
		if len(entries) != 0 {
			t.Errorf("total %d: expected empty schedule, got %d entries", total, len(entries))
		}
	}
}

func TestToCents(t *testing.T) {
	cases := []struct {
		major float64
		want  int64
	}{
		{0, 0},
		{25000, 2500000},
		{25000.005, 2500001}, // rounds half up
		{19999.99, 1999999},
		{0.1 + 0.2, 30}, // float noise absorbed
	}
	for _, tc := range cases {
		if got := ToCents(tc.major); got != tc.want {
			t.Errorf("ToCents(%v): expected %d, got %d", tc.major, tc.want, got)
		}
	}
}
