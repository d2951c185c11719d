package domain

import "time"

type VariantStatus string

const (
	VariantPending   VariantStatus = "pending"
	VariantSucceeded VariantStatus = "succeeded"
	VariantFailed    VariantStatus = "failed"
)

type RunStatus string

const (
	RunSucceeded RunStatus = "succeeded"
	RunFailed    RunStatus = "failed"
)

type VariantResult struct {
	Style         VariantStyle
	Status        VariantStatus
	ArtifactRef   ArtifactRef
	FailureReason string
	Attempts      int
}

type GenerationResult struct {
	Variants    [4]VariantResult
	Status      RunStatus
	StartedAt   time.Time
	CompletedAt time.Time
}

// Aggregate computes the run status from the four per-variant outcomes. The
// run succeeds when at least one variant succeeded.
func Aggregate(variants [4]VariantResult) RunStatus {
	for _, v := range variants {
		if v.Status == VariantSucceeded {
			return RunSucceeded
		}
	}
	return RunFailed
}

func (r GenerationResult) Succeeded() int {
	count := 0
	for _, v := range r.Variants {
		if v.Status == VariantSucceeded {
			count++
		}
	}
	return count
}

type ManifestEntry struct {
	Style         VariantStyle
	ArtifactRef   ArtifactRef
	FailureReason string
	Attempts      int
}

func (e ManifestEntry) Present() bool {
	return e.ArtifactRef != ""
}

type Manifest struct {
	SessionID SessionID
	Entries   []ManifestEntry
}

func ManifestFromResult(id SessionID, result GenerationResult) Manifest {
	entries := make([]ManifestEntry, 0, len(result.Variants))
	for _, v := range result.Variants {
		entry := ManifestEntry{Style: v.Style, Attempts: v.Attempts}
		if v.Status == VariantSucceeded {
			entry.ArtifactRef = v.ArtifactRef
		} else {
			entry.FailureReason = v.FailureReason
		}
		entries = append(entries, entry)
	}
	return Manifest{SessionID: id, Entries: entries}
}

func (m Manifest) Present() int {
	count := 0
	for _, entry := range m.Entries {
		if entry.Present() {
			count++
		}
	}
	return count
}
