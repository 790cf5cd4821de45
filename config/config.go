// Copyright 2025 The NLP Odyssey Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads the INI configuration of the analysis pipeline.
//
// The file is looked up, in order, at the path given on the command line,
// ./config.ini, config.ini next to the executable, and finally the default
// embedded in the binary. Environment variables override file values.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/ini.v1"
)

//go:embed default.ini
var defaultINI []byte

// FileName is the name of the configuration file looked up on disk.
const FileName = "config.ini"

// EmbeddedSource is reported as Config.Source when no file was found.
const EmbeddedSource = "<embedded>"

const (
	ProviderBedrock = "bedrock"
	ProviderOpenAI  = "openai"
	ProviderGemini  = "gemini"
)

const (
	BackendSQLite   = "sqlite"
	BackendPostgres = "postgres"
	BackendNone     = "none"
)

// Prompt keys of the [PROMPT] section.
const (
	ProductDataPrompt       = "PRODUCT_DATA_PROMPT"
	CompetitorAnalystPrompt = "COMPETITOR_ANALYST_PROMPT"
	SentimentAnalystPrompt  = "SENTIMENT_ANALYST_PROMPT"
	OrchestratorPrompt      = "ORCHESTRATOR_PROMPT"
	EvaluationPrompt        = "EVALUATION_PROMPT"
)

var promptKeys = []string{
	ProductDataPrompt,
	CompetitorAnalystPrompt,
	SentimentAnalystPrompt,
	OrchestratorPrompt,
	EvaluationPrompt,
}

type Config struct {
	// Path of the file the configuration was read from, or EmbeddedSource.
	Source string

	Model     Model
	Prompts   map[string]string
	Paths     Paths
	Session   Session
	Search    Search
	Telemetry Telemetry
	Callback  Callback
}

type Model struct {
	Provider    string
	ModelID     string
	Region      string
	Temperature float64
	MaxTokens   int64
	// TopP is zero when unset.
	TopP           float64
	MaxTurns       uint64
	RequestTimeout time.Duration
	BaseURL        string
	// APIKey for the openai and gemini providers. Bedrock uses the AWS
	// credential chain.
	APIKey string
}

// Name returns the prefixed model name understood by the model provider,
// e.g. "bedrock/us.anthropic.claude-3-7-sonnet-20250219-v1:0".
func (m Model) Name() string {
	return m.Provider + "/" + m.ModelID
}

type Paths struct {
	ResultsDir    string
	DataDir       string
	LogsDir       string
	SessionsDir   string
	EvaluationDir string
}

type Session struct {
	Backend      string
	PostgresDSN  string
	HistoryLimit int
}

type Search struct {
	Enabled     bool
	Endpoint    string
	MaxResults  int
	UserAgent   string
	SaveResults bool
}

type Telemetry struct {
	Enabled           bool
	ServiceName       string
	ExperimentID      string
	ConversationTopic string
	// TraceFile overrides LOGS_DIR/traces_<session-id>.jsonl when set.
	TraceFile        string
	TraceloopBaseURL string
	TraceloopAPIKey  string
}

type Callback struct {
	URL string
}

// Prompt returns the prompt text stored under key.
func (c *Config) Prompt(key string) string {
	return c.Prompts[key]
}

// Load reads the configuration. An empty path triggers the default lookup;
// a non-empty one must exist. A .env file in the working directory, when
// present, is loaded into the environment first.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	source, data, err := Resolve(path)
	if err != nil {
		return nil, err
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", source, err)
	}
	cfg.Source = source
	cfg.applyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration %s: %w", source, err)
	}
	return cfg, nil
}

// Resolve finds the configuration file and returns its location and
// content.
func Resolve(path string) (string, []byte, error) {
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return "", nil, fmt.Errorf("read config: %w", err)
		}
		return path, data, nil
	}

	candidates := []string{FileName}
	if exe, err := os.Executable(); err == nil {
		candidates = append(candidates, filepath.Join(filepath.Dir(exe), FileName))
	}
	for _, c := range candidates {
		data, err := os.ReadFile(c)
		if err == nil {
			return c, data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Errorf("read config: %w", err)
		}
	}
	return EmbeddedSource, defaultINI, nil
}

// Default returns the embedded configuration, without environment
// overrides.
func Default() *Config {
	cfg, err := Parse(defaultINI)
	if err != nil {
		panic(fmt.Errorf("embedded configuration: %w", err))
	}
	cfg.Source = EmbeddedSource
	return cfg
}

// Parse decodes INI data. Missing keys take their defaults; malformed
// values are reported together.
func Parse(data []byte) (*Config, error) {
	// Indented continuation lines extend the previous value, as prompts
	// usually span several lines.
	f, err := ini.LoadSources(ini.LoadOptions{AllowPythonMultilineValues: true}, data)
	if err != nil {
		return nil, err
	}

	var errs []error
	p := parser{f: f, errs: &errs}

	cfg := &Config{
		Model: Model{
			Provider: strings.ToLower(p.str("MODEL_PARAM", "PROVIDER", ProviderBedrock)),
			ModelID: p.str("MODEL_PARAM", "MODEL_ID",
				p.str("MODEL_PARAM", "BEDROCK_MODEL_ID", "")),
			Region:         p.str("MODEL_PARAM", "MODEL_REGION", ""),
			Temperature:    p.float("MODEL_PARAM", "MODEL_TEMPERATURE", 0.3),
			MaxTokens:      p.int64("MODEL_PARAM", "MAXIMUM_TOKENS", 4096),
			TopP:           p.float("MODEL_PARAM", "TOP_P", 0),
			MaxTurns:       uint64(max(p.int64("MODEL_PARAM", "MAX_TURNS", 10), 0)),
			RequestTimeout: p.duration("MODEL_PARAM", "REQUEST_TIMEOUT", 3*time.Minute),
			BaseURL:        p.str("MODEL_PARAM", "BASE_URL", ""),
		},
		Prompts: make(map[string]string, len(promptKeys)),
		Paths: Paths{
			ResultsDir:    p.str("PATHS", "RESULTS_DIR", "results"),
			DataDir:       p.str("PATHS", "DATA_DIR", "data"),
			LogsDir:       p.str("PATHS", "LOGS_DIR", "logs"),
			SessionsDir:   p.str("PATHS", "SESSIONS_DIR", "sessions"),
			EvaluationDir: p.str("PATHS", "EVALUATION_DIR", "evaluation"),
		},
		Session: Session{
			Backend:      strings.ToLower(p.str("SESSION", "BACKEND", BackendSQLite)),
			PostgresDSN:  p.str("SESSION", "POSTGRES_DSN", ""),
			HistoryLimit: int(p.int64("SESSION", "HISTORY_LIMIT", 20)),
		},
		Search: Search{
			Enabled:     p.bool("SEARCH", "ENABLED", true),
			Endpoint:    p.str("SEARCH", "ENDPOINT", ""),
			MaxResults:  int(p.int64("SEARCH", "MAX_RESULTS", 10)),
			UserAgent:   p.str("SEARCH", "USER_AGENT", ""),
			SaveResults: p.bool("SEARCH", "SAVE_RESULTS", true),
		},
		Telemetry: Telemetry{
			Enabled:           p.bool("TELEMETRY", "ENABLED", true),
			ServiceName:       p.str("TELEMETRY", "SERVICE_NAME", "ecommerce-multi-agent"),
			ExperimentID:      p.str("TELEMETRY", "EXPERIMENT_ID", "ecommerce-agent-v2"),
			ConversationTopic: p.str("TELEMETRY", "CONVERSATION_TOPIC", "business-ecommerce"),
			TraceFile:         p.str("TELEMETRY", "TRACE_FILE", ""),
			TraceloopBaseURL:  p.str("TELEMETRY", "TRACELOOP_BASE_URL", ""),
		},
		Callback: Callback{
			URL: p.str("CALLBACK", "URL", ""),
		},
	}
	for _, key := range promptKeys {
		cfg.Prompts[key] = strings.TrimSpace(p.str("PROMPT", key, ""))
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides file values with the environment. The lookup function
// is a parameter so tests need not touch the process environment.
func (c *Config) applyEnv(lookup func(string) (string, bool)) {
	get := func(keys ...string) (string, bool) {
		for _, k := range keys {
			if v, ok := lookup(k); ok && v != "" {
				return v, true
			}
		}
		return "", false
	}

	if v, ok := get("PRODUCTINTEL_PROVIDER"); ok {
		c.Model.Provider = strings.ToLower(v)
	}
	if v, ok := get("PRODUCTINTEL_MODEL_ID", "BEDROCK_MODEL_ID"); ok {
		c.Model.ModelID = v
	}
	if v, ok := get("AWS_DEFAULT_REGION"); ok {
		c.Model.Region = v
	}
	switch c.Model.Provider {
	case ProviderOpenAI:
		if v, ok := get("OPENAI_API_KEY"); ok {
			c.Model.APIKey = v
		}
		if v, ok := get("OPENAI_BASE_URL"); ok {
			c.Model.BaseURL = v
		}
	case ProviderGemini:
		if v, ok := get("GEMINI_API_KEY", "GOOGLE_API_KEY"); ok {
			c.Model.APIKey = v
		}
	}
	if v, ok := get("TRACELOOP_API_KEY"); ok {
		c.Telemetry.TraceloopAPIKey = v
	}
	if v, ok := get("PRODUCTINTEL_POSTGRES_DSN"); ok {
		c.Session.PostgresDSN = v
	}
}

// Validate returns every configuration problem joined in one error.
func (c *Config) Validate() error {
	var errs []error
	switch c.Model.Provider {
	case ProviderBedrock, ProviderOpenAI, ProviderGemini:
	default:
		errs = append(errs, fmt.Errorf("MODEL_PARAM.PROVIDER: unknown provider %q", c.Model.Provider))
	}
	if c.Model.ModelID == "" {
		errs = append(errs, errors.New("MODEL_PARAM.MODEL_ID is required"))
	}
	if c.Model.Temperature < 0 || c.Model.Temperature > 2 {
		errs = append(errs, fmt.Errorf("MODEL_PARAM.MODEL_TEMPERATURE must be in [0, 2], got %g", c.Model.Temperature))
	}
	if c.Model.MaxTokens <= 0 {
		errs = append(errs, fmt.Errorf("MODEL_PARAM.MAXIMUM_TOKENS must be positive, got %d", c.Model.MaxTokens))
	}
	if c.Model.TopP < 0 || c.Model.TopP > 1 {
		errs = append(errs, fmt.Errorf("MODEL_PARAM.TOP_P must be in [0, 1], got %g", c.Model.TopP))
	}
	if c.Model.MaxTurns == 0 {
		errs = append(errs, errors.New("MODEL_PARAM.MAX_TURNS must be positive"))
	}
	for _, key := range promptKeys {
		if c.Prompts[key] == "" {
			errs = append(errs, fmt.Errorf("PROMPT.%s is required", key))
		}
	}
	switch c.Session.Backend {
	case BackendSQLite, BackendNone:
	case BackendPostgres:
		if c.Session.PostgresDSN == "" {
			errs = append(errs, errors.New("SESSION.POSTGRES_DSN is required for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("SESSION.BACKEND: unknown backend %q", c.Session.Backend))
	}
	if c.Search.MaxResults <= 0 {
		errs = append(errs, fmt.Errorf("SEARCH.MAX_RESULTS must be positive, got %d", c.Search.MaxResults))
	}
	return errors.Join(errs...)
}

type parser struct {
	f    *ini.File
	errs *[]error
}

func (p parser) key(section, name string) (*ini.Key, bool) {
	s, err := p.f.GetSection(section)
	if err != nil || !s.HasKey(name) {
		return nil, false
	}
	k := s.Key(name)
	if strings.TrimSpace(k.String()) == "" {
		return nil, false
	}
	return k, true
}

func (p parser) str(section, name, def string) string {
	k, ok := p.key(section, name)
	if !ok {
		return def
	}
	return strings.TrimSpace(k.String())
}

func (p parser) float(section, name string, def float64) float64 {
	k, ok := p.key(section, name)
	if !ok {
		return def
	}
	v, err := k.Float64()
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("%s.%s: %w", section, name, err))
		return def
	}
	return v
}

func (p parser) int64(section, name string, def int64) int64 {
	k, ok := p.key(section, name)
	if !ok {
		return def
	}
	v, err := k.Int64()
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("%s.%s: %w", section, name, err))
		return def
	}
	return v
}

func (p parser) bool(section, name string, def bool) bool {
	k, ok := p.key(section, name)
	if !ok {
		return def
	}
	v, err := k.Bool()
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("%s.%s: %w", section, name, err))
		return def
	}
	return v
}

func (p parser) duration(section, name string, def time.Duration) time.Duration {
	k, ok := p.key(section, name)
	if !ok {
		return def
	}
	v, err := k.Duration()
	if err != nil {
		*p.errs = append(*p.errs, fmt.Errorf("%s.%s: %w", section, name, err))
		return def
	}
	return v
}
