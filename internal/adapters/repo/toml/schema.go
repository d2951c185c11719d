package toml

import "fmt"

const currentSchemaVersion = 1

type historySchema struct {
	Version int         `toml:"version"`
	Runs    []runSchema `toml:"runs"`
}

func (s *historySchema) applyDefaults() {
	if s.Version == 0 {
		s.Version = currentSchemaVersion
	}
}

func (s historySchema) validateVersion() error {
	if s.Version > currentSchemaVersion {
		return fmt.Errorf("unsupported history schema version %d (current %d)", s.Version, currentSchemaVersion)
	}
	return nil
}

type runSchema struct {
	SessionID     string          `toml:"session_id"`
	Stage         string          `toml:"stage"`
	FailureReason string          `toml:"failure_reason,omitempty"`
	Category      string          `toml:"category"`
	CompletedAt   string          `toml:"completed_at"`
	Variants      []variantSchema `toml:"variants"`
}

type variantSchema struct {
	Style         string `toml:"style"`
	ArtifactRef   string `toml:"artifact_ref,omitempty"`
	FailureReason string `toml:"failure_reason,omitempty"`
	Attempts      int    `toml:"attempts"`
}
