package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"

	"github.com/ppiankov/verifyhub/internal/model"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfig_FileOverridesDefaults(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	dir := t.TempDir()
	markers := writeFile(t, dir, "markers.yaml", "ownership:\n  - \"issued to\"\n")
	path := writeFile(t, dir, "config.yaml", `
http:
  timeout: 5s
server:
  addr: ":9090"
verify:
  preserve_fetch_detail: true
markers_file: `+markers+`
`)

	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig: %v", err)
	}

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}

	if cfg.HTTP.Timeout != 5*time.Second {
		t.Errorf("expected 5s timeout, got %v", cfg.HTTP.Timeout)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("expected :9090, got %q", cfg.Server.Addr)
	}
	if !cfg.Verify.PreserveFetchDetail {
		t.Error("expected preserve_fetch_detail from file")
	}
	if cfg.Links.SocialDomain != "linkedin.com" {
		t.Errorf("unset keys should keep defaults, got %q", cfg.Links.SocialDomain)
	}
	if len(cfg.Markers.Ownership) != 1 || cfg.Markers.Ownership[0] != "issued to" {
		t.Errorf("expected ownership markers from file, got %v", cfg.Markers.Ownership)
	}
	if len(cfg.Markers.NotFound) == 0 {
		t.Error("marker lists left out of the file should keep defaults")
	}
}

func TestLoadConfig_APIKeyFromEnvironment(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	t.Setenv("OPENAI_API_KEY", "sk-env")
	viper.Set("llm.provider", "openai")

	cfg, err := loadConfig()
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.LLM.APIKey != "sk-env" {
		t.Errorf("expected key from OPENAI_API_KEY, got %q", cfg.LLM.APIKey)
	}
}

// staticFetcher returns the same page for every URL
type staticFetcher string

func (f staticFetcher) Fetch(_ context.Context, rawURL string) model.FetchOutcome {
	return model.FetchOutcome{URL: rawURL, Succeeded: true, HTTPStatus: 200, Body: string(f)}
}

func TestBuildService(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Store.MemoryOnly = true

	svc, err := buildService(cfg, staticFetcher(`<title>Data Science | Coursera</title><p>has successfully completed</p>`))
	if err != nil {
		t.Fatalf("buildService: %v", err)
	}

	out, err := svc.Verify(context.Background(), model.VerificationRequest{
		CertificateURL: "https://www.coursera.org/account/accomplishments/verify/XYZ",
		SocialPostURL:  "https://www.linkedin.com/posts/sam_data-activity-1",
		RequesterID:    "u1",
	})
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !out.Result.Valid {
		t.Fatalf("expected valid result, got %v", out.Result.Errors)
	}
	if out.Submission == nil {
		t.Fatal("expected submission to be stored")
	}
	if _, err := svc.Submission(out.Submission.ID); err != nil {
		t.Errorf("stored submission not readable: %v", err)
	}
}

func TestBuildService_UnknownProvider(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Store.MemoryOnly = true
	cfg.LLM.Provider = "mystery"

	if _, err := buildService(cfg, nil); err == nil {
		t.Error("expected error for unknown provider")
	}
}
