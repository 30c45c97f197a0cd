package agreement

// DefaultThresholdCents is the minimum job total (inc GST) that triggers
// automatic agreement creation: 20,000.00 in major units. The unit must match
// the totals the enrichment collaborator returns; a mismatch here silently
// disables the whole pipeline.
const DefaultThresholdCents int64 = 20000 * 100

// ShouldCreate reports whether a job total warrants an agreement. Pure predicate.
func ShouldCreate(totalCents, thresholdCents int64) bool {
	return totalCents >= thresholdCents
}
