package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"SEARCH_BACKEND", "LLM_INSIGHT_MODEL", "LLM_ANSWER_MODEL", "SERVER_PORT"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.Search.Backend != "postgres" {
		t.Errorf("Search.Backend = %q, want postgres", cfg.Search.Backend)
	}
	if cfg.LLM.InsightModel != "claude-haiku-4-5" {
		t.Errorf("LLM.InsightModel = %q, want claude-haiku-4-5", cfg.LLM.InsightModel)
	}
	if cfg.LLM.AnswerModel != "claude-sonnet-4-5" {
		t.Errorf("LLM.AnswerModel = %q, want claude-sonnet-4-5", cfg.LLM.AnswerModel)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
}

func TestValidateRejectsUnknownSearchBackend(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/test")
	t.Setenv("ANTHROPIC_API_KEY", "key")
	t.Setenv("SEARCH_BACKEND", "elasticsearch")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("Validate accepted unknown search backend")
	}
}
