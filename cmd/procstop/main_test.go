package main

import (
	"bytes"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/MikeSquared-Agency/procstop/internal/config"
	"github.com/MikeSquared-Agency/procstop/internal/export"
	"github.com/MikeSquared-Agency/procstop/internal/extractor"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug": slog.LevelDebug,
		"warn":  slog.LevelWarn,
		"error": slog.LevelError,
		"info":  slog.LevelInfo,
		"":      slog.LevelInfo,
		"loud":  slog.LevelInfo,
	}
	for in, want := range tests {
		if got := parseLevel(in); got != want {
			t.Errorf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestNewCompleter(t *testing.T) {
	tests := []struct {
		name    string
		cfg     config.Config
		wantErr string
	}{
		{"openai", config.Config{LLMProvider: "openai", OpenAIAPIKey: "sk", Model: "gpt-4", CompletionTimeout: time.Second}, ""},
		{"anthropic", config.Config{LLMProvider: "anthropic", AnthropicAPIKey: "sk", Model: "claude"}, ""},
		{"openai without key", config.Config{LLMProvider: "openai"}, "OPENAI_API_KEY"},
		{"anthropic without key", config.Config{LLMProvider: "anthropic"}, "ANTHROPIC_API_KEY"},
		{"unknown provider", config.Config{LLMProvider: "mystery"}, "unknown LLM_PROVIDER"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := newCompleter(tt.cfg)
			if tt.wantErr == "" {
				if err != nil || c == nil {
					t.Fatalf("unexpected error %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestNewExtractor(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	ext, err := newExtractor(config.Config{InferenceURL: "http://nlp:8000"}, logger)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ext.(*extractor.InferenceClient); !ok {
		t.Errorf("expected inference client, got %T", ext)
	}

	ext, err = newExtractor(config.Config{OpenAIAPIKey: "sk", ExtractorModel: "gpt-4o-mini"}, logger)
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := ext.(*extractor.LLMExtractor); !ok {
		t.Errorf("expected LLM extractor, got %T", ext)
	}

	if _, err := newExtractor(config.Config{}, logger); err == nil {
		t.Error("expected error without any extractor configured")
	}
}

func TestNewSink(t *testing.T) {
	s, err := newSink("xlsx", "out")
	if err != nil {
		t.Fatal(err)
	}
	if x, ok := s.(*export.XLSXSink); !ok || x.Dir != "out" {
		t.Errorf("expected xlsx sink in out, got %#v", s)
	}
	if s, _ := newSink("", "out"); s == nil {
		t.Error("expected csv default")
	}
	if _, err := newSink("pdf", "out"); err == nil {
		t.Error("expected error for unknown format")
	}
}

func TestWriteReport(t *testing.T) {
	var buf bytes.Buffer
	if err := writeReport(&buf, map[string]int{"conversations": 2}); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `"conversations": 2`) {
		t.Errorf("unexpected output %s", buf.String())
	}
}
