// Package schedule synthesizes the milestone payment plan attached to a works
// agreement. All amounts are integer cents; conversion to and from major units
// happens only at HTTP and collaborator boundaries.
package schedule

import "math"

// Entry is one milestone payment. Position is 1-based and stable for a given total.
type Entry struct {
	Stage       string `json:"stage"`
	AmountCents int64  `json:"amountCents"`
	Position    int    `json:"position"`
}

// Milestone split, in order. The closing stage takes whatever remains so the
// entries always sum to the total exactly.
var stages = []struct {
	name string
	pct  int64
}{
	{"Deposit", 10},
	{"Base stage", 20},
	{"Frame stage", 25},
	{"Lock-up stage", 25},
}

const closingStage = "Practical completion"

// Build derives the payment schedule for a total (inc GST, cents). It is a pure
// function: the same total always yields identical entries, and the amounts sum
// to totalCents with no rounding drift. Non-positive totals yield an empty
// schedule. Recomputed schedules replace the prior one wholesale.
func Build(totalCents int64) []Entry {
	if totalCents <= 0 {
		return []Entry{}
	}

	entries := make([]Entry, 0, len(stages)+1)
	var allocated int64
	for i, st := range stages {
		amount := roundHalfUp(totalCents, st.pct)
		entries = append(entries, Entry{Stage: st.name, AmountCents: amount, Position: i + 1})
		allocated += amount
	}

	entries = append(entries, Entry{
		Stage:       closingStage,
		AmountCents: totalCents - allocated,
		Position:    len(stages) + 1,
	})
	return entries
}

// Sum returns the combined amount of the entries, in cents.
func Sum(entries []Entry) int64 {
	var total int64
	for _, e := range entries {
		total += e.AmountCents
	}
	return total
}

func roundHalfUp(totalCents, pct int64) int64 {
	return (totalCents*pct + 50) / 100
}

// ToCents converts a major-unit amount from JSON into cents, rounding to the
// nearest cent to absorb float decoding noise.
func ToCents(major float64) int64 {
	return int64(math.Round(major * 100))
}

// ToMajor converts cents back to major units for response bodies.
func ToMajor(cents int64) float64 {
	return float64(cents) / 100
}
