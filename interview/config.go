package interview

import (
	"os"
	"strconv"
	"strings"
)

// VoiceConfig is the realtime voice interview configuration handed to the
// browser client. The API key itself never leaves the server.
type VoiceConfig struct {
	Enabled            bool   `json:"enabled"`
	Model              string `json:"model"`
	Voice              string `json:"voice"`
	TranscriptionModel string `json:"transcriptionModel"`
	MaxDurationSec     int    `json:"maxDurationSec"`
	AllowInterruptions bool   `json:"allowInterruptions"`
}

// VoiceEnabled reports whether voice interviews are switched on. Any of
// the flag variables enables the feature, but an API key is always
// required.
func VoiceEnabled(apiKeyPresent bool) bool {
	if !apiKeyPresent {
		return false
	}
	for _, name := range []string{"AI_VOICE_INTERVIEW_ENABLED", "ENABLE_AI_VOICE_INTERVIEW", "AI_REALTIME_ENABLED"} {
		if envFlag(name) {
			return true
		}
	}
	return false
}

// LoadVoiceConfig reads the realtime configuration from the environment.
func LoadVoiceConfig(apiKeyPresent bool) VoiceConfig {
	cfg := VoiceConfig{
		Enabled:            VoiceEnabled(apiKeyPresent),
		Model:              envDefault("OPENAI_REALTIME_MODEL", "gpt-4o-realtime-preview-2024-12-17"),
		Voice:              envDefault("OPENAI_REALTIME_VOICE", "alloy"),
		TranscriptionModel: envDefault("OPENAI_TRANSCRIPTION_MODEL", "whisper-1"),
		MaxDurationSec:     600,
		AllowInterruptions: true,
	}
	if raw := os.Getenv("AI_VOICE_MAX_DURATION_SEC"); raw != "" {
		if sec, err := strconv.Atoi(raw); err == nil && sec > 0 {
			cfg.MaxDurationSec = sec
		}
	}
	if raw := os.Getenv("AI_VOICE_ALLOW_INTERRUPTIONS"); raw != "" {
		cfg.AllowInterruptions = parseFlag(raw)
	}
	return cfg
}

func envDefault(name, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(name)); v != "" {
		return v
	}
	return fallback
}

func envFlag(name string) bool {
	return parseFlag(os.Getenv(name))
}

func parseFlag(raw string) bool {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}
