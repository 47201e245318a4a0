package model

import "time"

// Config is the complete runtime configuration. It is built once and passed
// into constructors; nothing below the CLI reads the environment directly.
type Config struct {
	HTTP    HTTPConfig   `yaml:"http" mapstructure:"http"`
	Links   LinksConfig  `yaml:"links" mapstructure:"links"`
	Verify  VerifyConfig `yaml:"verify" mapstructure:"verify"`
	Markers MarkerSet    `yaml:"markers" mapstructure:"markers"`
	Server  ServerConfig `yaml:"server" mapstructure:"server"`
	Store   StoreConfig  `yaml:"store" mapstructure:"store"`
	Batch   BatchConfig  `yaml:"batch" mapstructure:"batch"`
	LLM     LLMConfig    `yaml:"llm" mapstructure:"llm"`
	Log     LogConfig    `yaml:"log" mapstructure:"log"`
}

// HTTPConfig controls outbound page fetches
type HTTPConfig struct {
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent         string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes      int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	MaxRedirects      int           `yaml:"max_redirects" mapstructure:"max_redirects"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"` // Per target domain, 0 disables
	Burst             int           `yaml:"burst" mapstructure:"burst"`
	RespectRobots     bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy         string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy        string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy           string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// LinksConfig describes which sites the two evidence links must come from
type LinksConfig struct {
	CertificateDomain string   `yaml:"certificate_domain" mapstructure:"certificate_domain"`
	CertificateLabel  string   `yaml:"certificate_label" mapstructure:"certificate_label"`
	CertificateSite   string   `yaml:"certificate_site" mapstructure:"certificate_site"` // Title suffix stripped from course titles
	SocialDomain      string   `yaml:"social_domain" mapstructure:"social_domain"`
	SocialLabel       string   `yaml:"social_label" mapstructure:"social_label"`
	SocialPostPaths   []string `yaml:"social_post_paths" mapstructure:"social_post_paths"` // Regexes, any match accepts the path
}

// VerifyConfig tunes the orchestrator
type VerifyConfig struct {
	// PreserveFetchDetail reports each link's transport failure separately
	// instead of one generic "timed out" error for both.
	PreserveFetchDetail bool `yaml:"preserve_fetch_detail" mapstructure:"preserve_fetch_detail"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr            string        `yaml:"addr" mapstructure:"addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins" mapstructure:"allowed_origins"`
	MaxRequestBytes int64         `yaml:"max_request_bytes" mapstructure:"max_request_bytes"`
	RequestTimeout  time.Duration `yaml:"request_timeout" mapstructure:"request_timeout"`
}

// StoreConfig controls where submissions and profiles are kept
type StoreConfig struct {
	Dir        string `yaml:"dir" mapstructure:"dir"`
	MemoryOnly bool   `yaml:"memory_only" mapstructure:"memory_only"`
}

// BatchConfig controls batch re-verification
type BatchConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LLMConfig configures the optional reviewer note
type LLMConfig struct {
	Provider  string `yaml:"provider" mapstructure:"provider"` // openai, anthropic, ollama or "" (disabled)
	Model     string `yaml:"model" mapstructure:"model"`
	APIKey    string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL   string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout   int    `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens int    `yaml:"max_tokens" mapstructure:"max_tokens"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // console or json
}

// DefaultConfig returns the built-in configuration
func DefaultConfig() *Config {
	return &Config{
		HTTP: HTTPConfig{
			Timeout:           12 * time.Second,
			UserAgent:         "Mozilla/5.0 (compatible; VerifyHubBot/1.0)",
			MaxBodyBytes:      5_000_000,
			MaxRedirects:      10,
			RequestsPerSecond: 2,
			Burst:             4,
			RespectRobots:     false,
		},
		Links: LinksConfig{
			CertificateDomain: "coursera.org",
			CertificateLabel:  "Coursera",
			CertificateSite:   "Coursera",
			SocialDomain:      "linkedin.com",
			SocialLabel:       "LinkedIn",
			SocialPostPaths: []string{
				`(?i)/posts/`,
				`(?i)/feed/update/`,
			},
		},
		Markers: DefaultMarkers(),
		Server: ServerConfig{
			Addr:            ":8080",
			AllowedOrigins:  []string{"*"},
			MaxRequestBytes: 64 << 10,
			RequestTimeout:  60 * time.Second,
		},
		Store: StoreConfig{
			Dir: ".verifyhub/data",
		},
		Batch: BatchConfig{
			Workers: 4,
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 300,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}
