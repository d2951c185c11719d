package domain

import "time"

type ArtifactRef string

type ArtifactKind string

const (
	ArtifactInput     ArtifactKind = "input"
	ArtifactGenerated ArtifactKind = "generated"
)

type Artifact struct {
	Ref         ArtifactRef
	SessionID   SessionID
	Kind        ArtifactKind
	ContentType string
	Size        int64
	CreatedAt   time.Time
	ExpiresAt   time.Time
	Data        []byte
}

func (a Artifact) Expired(now time.Time) bool {
	return !a.ExpiresAt.IsZero() && !now.Before(a.ExpiresAt)
}
