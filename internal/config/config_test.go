package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(nil)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Port != 5175 {
		t.Errorf("Port = %d, want 5175", cfg.Port)
	}
	if cfg.DBDriver != "sqlite3" {
		t.Errorf("DBDriver = %q, want sqlite3", cfg.DBDriver)
	}
	if cfg.DailyQuestions != 10 {
		t.Errorf("DailyQuestions = %d, want 10", cfg.DailyQuestions)
	}
	if cfg.JWTTTL() != 14*24*time.Hour {
		t.Errorf("JWTTTL() = %v", cfg.JWTTTL())
	}
	if cfg.Addr() != ":5175" {
		t.Errorf("Addr() = %q", cfg.Addr())
	}
	if cfg.SessionRetention() != 15*time.Minute {
		t.Errorf("SessionRetention() = %v", cfg.SessionRetention())
	}
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "synquiz.yaml")
	yaml := "port: 7000\nlog_level: debug\ndaily_questions: 5\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("LOG_LEVEL", "warn")
	t.Setenv("JWT_SECRET", "from-env")
	t.Setenv("UNRELATED_VARIABLE", "ignored")

	fs := FlagSet("test")
	if err := fs.Parse([]string{"--config", path, "--port", "9000"}); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(fs)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"flag beats file", cfg.Port, 9000},
		{"env beats file", cfg.LogLevel, "warn"},
		{"file beats default", cfg.DailyQuestions, 5},
		{"env beats default", cfg.JWTSecret, "from-env"},
		{"default kept", cfg.CookieName, "synquiz_token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantKey string
	}{
		{"unknown driver", map[string]string{"DB_DRIVER": "oracle"}, "DBDriver"},
		{"postgres needs url", map[string]string{"DB_DRIVER": "postgres"}, "DBURL"},
		{"bad level", map[string]string{"LOG_LEVEL": "loud"}, "LogLevel"},
		{"zero questions", map[string]string{"DAILY_QUESTIONS": "0"}, "DailyQuestions"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load(nil)
			if err == nil {
				t.Fatal("Load() error = nil, want validation error")
			}
			if !strings.Contains(err.Error(), tt.wantKey) {
				t.Errorf("error %q does not mention %s", err, tt.wantKey)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	fs := FlagSet("test")
	if err := fs.Parse([]string{"-c", filepath.Join(t.TempDir(), "nope.yaml")}); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(fs); err == nil {
		t.Error("Load() with missing config file: error = nil")
	}
}
