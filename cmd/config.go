package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bnema/adforge/internal/adapters/blob/memory"
	"github.com/bnema/adforge/internal/adapters/gemini"
	"github.com/bnema/adforge/internal/application"
	"github.com/bnema/adforge/internal/domain"
	"github.com/spf13/viper"
)

const envPrefix = "ADFORGE"

type settings struct {
	App       application.Config
	Gemini    geminiSettings
	Artifacts artifactSettings
	Server    serverSettings
	History   string
	Log       logSettings
}

type geminiSettings struct {
	APIKey        string
	AnalysisModel string
	ImageModel    string
}

type artifactSettings struct {
	Backend        string
	Dir            string
	COSBucketURL   string
	COSPrefix      string
	MemoryCapacity int
}

type serverSettings struct {
	Listen         string
	AllowedOrigins []string
}

type logSettings struct {
	Level  string
	Format string
}

func configDir(home string) string {
	return filepath.Join(home, ".config", "adforge")
}

func configPath(home string) string {
	return filepath.Join(configDir(home), "config.toml")
}

func setDefaults(v *viper.Viper, home string) {
	d := application.DefaultConfig()

	v.SetDefault("gemini.api_key", "")
	v.SetDefault("gemini.analysis_model", gemini.DefaultAnalysisModel)
	v.SetDefault("gemini.image_model", gemini.DefaultImageModel)

	v.SetDefault("upload.allowed_types", d.AllowedUploadTypes)
	v.SetDefault("upload.max_bytes", d.MaxUploadBytes)

	v.SetDefault("generation.width", d.TargetResolution.Width)
	v.SetDefault("generation.height", d.TargetResolution.Height)
	v.SetDefault("generation.min_width", d.MinOutputResolution.Width)
	v.SetDefault("generation.min_height", d.MinOutputResolution.Height)
	v.SetDefault("generation.aspect_tolerance", d.AspectTolerance)
	v.SetDefault("generation.max_attempts", d.MaxAttempts)
	v.SetDefault("generation.initial_backoff", d.InitialBackoff)
	v.SetDefault("generation.max_backoff", d.MaxBackoff)
	v.SetDefault("generation.attempt_timeout", d.AttemptTimeout)
	v.SetDefault("generation.max_concurrent_sessions", d.MaxGeneratingSessions)
	v.SetDefault("generation.admission_wait", d.AdmissionWait)

	v.SetDefault("analysis.max_attempts", d.AnalysisMaxAttempts)

	v.SetDefault("questions.min_answer_length", d.MinAnswerLength)
	v.SetDefault("questions.confidence_threshold", d.ConfidenceThreshold)

	v.SetDefault("session.idle_timeout", d.IdleTimeout)
	v.SetDefault("session.retention", d.SessionRetention)
	v.SetDefault("session.sweep_interval", d.SweepInterval)

	v.SetDefault("artifacts.ttl", d.ArtifactTTL)
	v.SetDefault("artifacts.download_window", d.DownloadWindow)
	v.SetDefault("artifacts.backend", "memory")
	v.SetDefault("artifacts.dir", filepath.Join(home, ".cache", "adforge", "artifacts"))
	v.SetDefault("artifacts.cos_bucket_url", "")
	v.SetDefault("artifacts.cos_prefix", "adforge")
	v.SetDefault("artifacts.memory_capacity", memory.DefaultCapacity)

	v.SetDefault("server.listen", "127.0.0.1:8080")
	v.SetDefault("server.allowed_origins", []string{"*"})

	v.SetDefault("history.path", filepath.Join(configDir(home), "history.toml"))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "console")
}

// loadSettings reads config.toml when present, then applies ADFORGE_*
// environment overrides on top of the defaults.
func loadSettings(v *viper.Viper, home string) (settings, error) {
	setDefaults(v, home)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	path := configPath(home)
	if _, err := os.Stat(path); err == nil {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return settings{}, fmt.Errorf("read config %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return settings{}, fmt.Errorf("stat config %s: %w", path, err)
	}

	s := settings{
		App: application.Config{
			AllowedUploadTypes: stringList(v, "upload.allowed_types"),
			MaxUploadBytes:     v.GetInt64("upload.max_bytes"),
			TargetResolution: domain.Resolution{
				Width:  v.GetInt("generation.width"),
				Height: v.GetInt("generation.height"),
			},
			MinOutputResolution: domain.Resolution{
				Width:  v.GetInt("generation.min_width"),
				Height: v.GetInt("generation.min_height"),
			},
			AspectTolerance:       v.GetFloat64("generation.aspect_tolerance"),
			MaxAttempts:           v.GetInt("generation.max_attempts"),
			InitialBackoff:        v.GetDuration("generation.initial_backoff"),
			MaxBackoff:            v.GetDuration("generation.max_backoff"),
			AttemptTimeout:        v.GetDuration("generation.attempt_timeout"),
			MaxGeneratingSessions: v.GetInt("generation.max_concurrent_sessions"),
			AdmissionWait:         v.GetDuration("generation.admission_wait"),
			AnalysisMaxAttempts:   v.GetInt("analysis.max_attempts"),
			MinAnswerLength:       v.GetInt("questions.min_answer_length"),
			ConfidenceThreshold:   v.GetFloat64("questions.confidence_threshold"),
			IdleTimeout:           v.GetDuration("session.idle_timeout"),
			SessionRetention:      v.GetDuration("session.retention"),
			SweepInterval:         v.GetDuration("session.sweep_interval"),
			ArtifactTTL:           v.GetDuration("artifacts.ttl"),
			DownloadWindow:        v.GetDuration("artifacts.download_window"),
		},
		Gemini: geminiSettings{
			APIKey:        v.GetString("gemini.api_key"),
			AnalysisModel: v.GetString("gemini.analysis_model"),
			ImageModel:    v.GetString("gemini.image_model"),
		},
		Artifacts: artifactSettings{
			Backend:        strings.ToLower(v.GetString("artifacts.backend")),
			Dir:            v.GetString("artifacts.dir"),
			COSBucketURL:   v.GetString("artifacts.cos_bucket_url"),
			COSPrefix:      v.GetString("artifacts.cos_prefix"),
			MemoryCapacity: v.GetInt("artifacts.memory_capacity"),
		},
		Server: serverSettings{
			Listen:         v.GetString("server.listen"),
			AllowedOrigins: stringList(v, "server.allowed_origins"),
		},
		History: v.GetString("history.path"),
		Log: logSettings{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
	}

	if err := s.App.Validate(); err != nil {
		return settings{}, fmt.Errorf("invalid config: %w", err)
	}
	return s, nil
}

// stringList accepts both TOML arrays and comma-separated env values.
func stringList(v *viper.Viper, key string) []string {
	var out []string
	for _, item := range v.GetStringSlice(key) {
		for _, part := range strings.Split(item, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}
