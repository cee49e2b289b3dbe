package config

import "testing"

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Synthesis.MaxTextLength != 5000 {
		t.Fatalf("expected default max text length 5000, got %d", cfg.Synthesis.MaxTextLength)
	}
	if cfg.Storage.MaxAgeSeconds != 3600 {
		t.Fatalf("expected default max age 3600, got %d", cfg.Storage.MaxAgeSeconds)
	}
	if cfg.Storage.SweepIntervalMinutes != 15 {
		t.Fatalf("expected default sweep interval 15, got %d", cfg.Storage.SweepIntervalMinutes)
	}
	if cfg.Synthesis.DefaultVoice != "en-US-ChristopherNeural" {
		t.Fatalf("expected default voice, got %q", cfg.Synthesis.DefaultVoice)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("LOQA_SPEECH_SYNTHESIS_MODE", "exec")
	t.Setenv("LOQA_SPEECH_SYNTHESIS_COMMAND", "edge-tts")
	t.Setenv("LOQA_SPEECH_SYNTHESIS_MAX_TEXT_LENGTH", "200")
	t.Setenv("LOQA_SPEECH_STORAGE_ROOT", "/tmp/speech-test")
	t.Setenv("LOQA_SPEECH_STORAGE_MAX_AGE_SECONDS", "120")
	t.Setenv("LOQA_SPEECH_STORAGE_SWEEP_INTERVAL_MINUTES", "1")
	t.Setenv("LOQA_SPEECH_JOURNAL_RETENTION_MODE", "ephemeral")
	t.Setenv("LOQA_SPEECH_BUS_SERVERS", "nats://one:4222, nats://two:4222")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Synthesis.Mode != "exec" || cfg.Synthesis.Command != "edge-tts" {
		t.Fatalf("expected synthesis overrides, got %+v", cfg.Synthesis)
	}
	if cfg.Synthesis.MaxTextLength != 200 {
		t.Fatalf("expected max text length 200, got %d", cfg.Synthesis.MaxTextLength)
	}
	if cfg.Storage.Root != "/tmp/speech-test" {
		t.Fatalf("expected storage root override, got %q", cfg.Storage.Root)
	}
	if cfg.Storage.MaxAgeSeconds != 120 {
		t.Fatalf("expected max age 120, got %d", cfg.Storage.MaxAgeSeconds)
	}
	if cfg.Storage.SweepIntervalMinutes != 1 {
		t.Fatalf("expected sweep interval 1, got %d", cfg.Storage.SweepIntervalMinutes)
	}
	if cfg.Journal.RetentionMode != "ephemeral" {
		t.Fatalf("expected journal retention override")
	}
	if len(cfg.Bus.Servers) != 2 {
		t.Fatalf("expected 2 servers, got %v", cfg.Bus.Servers)
	}
}

func TestValidateRejectsBadMode(t *testing.T) {
	t.Setenv("LOQA_SPEECH_SYNTHESIS_MODE", "polly")
	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error for unknown synthesis mode")
	}
}

func TestValidateRequiresCommandForExec(t *testing.T) {
	t.Setenv("LOQA_SPEECH_SYNTHESIS_MODE", "exec")
	if _, err := Load(""); err == nil {
		t.Fatal("expected validation error when exec mode has no command")
	}
}
