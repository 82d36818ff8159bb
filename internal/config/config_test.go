package config

import (
	"os"
	"path/filepath"
	"testing"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{"LLM_API_KEY", "LLM_PROVIDER", "DATABASE_DSN", "LOG_LEVEL"} {
		t.Setenv(k, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.RAG.ChunkSize != 500 || cfg.RAG.ChunkOverlap != 150 {
		t.Fatalf("chunking = %d/%d", cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	}
	if cfg.RAG.Store != StoreFile || cfg.LLM.Provider != ProviderNone {
		t.Fatalf("store = %s, provider = %s", cfg.RAG.Store, cfg.LLM.Provider)
	}
	if cfg.RAG.ChatResults != 8 || cfg.RAG.StudyResults != 10 || cfg.RAG.Ranker.ImportantIDF != 2.0 {
		t.Fatalf("rag = %+v", cfg.RAG)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("LLM_API_KEY", "secret")
	t.Setenv("LLM_PROVIDER", "Ollama")
	path := writeConfig(t, `
log_level: debug
rag:
  chunk_size: 100
  store: postgres
llm:
  provider: openai
  timeout_secs: 5
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.RAG.ChunkSize != 100 || cfg.RAG.ChunkOverlap != 0 {
		t.Fatalf("chunking = %d/%d", cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap)
	}
	if cfg.LLM.Provider != ProviderOllama || cfg.LLM.Key != "secret" || cfg.LLM.TimeoutSecs != 5 {
		t.Fatalf("llm = %+v", cfg.LLM)
	}
	if cfg.LLM.BaseURL != "http://localhost:11434" {
		t.Fatalf("base url = %s", cfg.LLM.BaseURL)
	}
	if cfg.RAG.Store != StorePostgres || cfg.LogLevel != "debug" {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	clearEnv(t)
	cases := map[string]string{
		"overlap too big": "rag:\n  chunk_size: 100\n  chunk_overlap: 100\n",
		"negative size":   "rag:\n  chunk_size: -1\n",
		"unknown store":   "rag:\n  store: redis\n",
		"unknown llm":     "llm:\n  provider: cohere\n",
		"bad yaml":        "rag: [\n",
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := LoadConfig(writeConfig(t, body)); err == nil {
				t.Fatalf("LoadConfig accepted %q", body)
			}
		})
	}
}

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Fatalf("Default().Validate() = %v", err)
	}
}
