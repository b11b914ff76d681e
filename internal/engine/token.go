package engine

import (
	"os"
	"path/filepath"
	"strings"
)

// ResolveHFToken finds the Hugging Face token used for diarization models.
// Resolution order: the configured environment variable, then
// ~/.lectern/hf_token. Returns "" when no token is available; callers decide
// whether that disables diarization or fails the run.
func ResolveHFToken(envVar string) string {
	if envVar == "" {
		envVar = "HF_TOKEN"
	}
	if token := strings.TrimSpace(os.Getenv(envVar)); token != "" {
		return token
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	data, err := os.ReadFile(filepath.Join(home, ".lectern", "hf_token"))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}
