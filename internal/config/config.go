// Package config loads explainer settings from viper: the .explainer.yaml
// file, EXPLAINER_* environment variables and bound command flags.
package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"

	"github.com/dr-rosen-rosen/bioTDMS-explainer/internal/ontology"
)

// EnvPrefix is prepended to every environment override, e.g.
// EXPLAINER_SEARCH_DEFAULT_K.
const EnvPrefix = "EXPLAINER"

// ConfigName is the config file name without extension.
const ConfigName = ".explainer"

var validate = validator.New()

// Config is the full settings tree.
type Config struct {
	Graph     GraphConfig     `mapstructure:"graph" yaml:"graph"`
	Embedding EmbeddingConfig `mapstructure:"embedding" yaml:"embedding"`
	Explain   ExplainConfig   `mapstructure:"explain" yaml:"explain"`
	Search    SearchConfig    `mapstructure:"search" yaml:"search"`
	Reasoner  ReasonerConfig  `mapstructure:"reasoner" yaml:"reasoner"`
	Merge     MergeConfig     `mapstructure:"merge" yaml:"merge"`
	Server    ServerConfig    `mapstructure:"server" yaml:"server"`
	Log       LogConfig       `mapstructure:"log" yaml:"log"`
}

// GraphConfig names the graph files and namespaces.
type GraphConfig struct {
	Paths  []string `mapstructure:"paths" yaml:"paths" validate:"dive,required"`
	MeasNS string   `mapstructure:"meas_ns" yaml:"meas_ns" validate:"required,url"`
	EvidNS string   `mapstructure:"evid_ns" yaml:"evid_ns" validate:"required,url"`
	InstNS string   `mapstructure:"inst_ns" yaml:"inst_ns" validate:"required,url"`

	// Optional lists entries of Paths that may be absent, such as a merge
	// output that has not been written yet.
	Optional []string `mapstructure:"optional" yaml:"optional,omitempty"`
}

// IsOptional reports whether path may be missing at startup.
func (g GraphConfig) IsOptional(path string) bool {
	for _, o := range g.Optional {
		if filepath.Clean(o) == filepath.Clean(path) {
			return true
		}
	}
	return false
}

// Vocabulary returns the configured namespaces.
func (g GraphConfig) Vocabulary() ontology.Vocabulary {
	return ontology.Vocabulary{Meas: g.MeasNS, Evid: g.EvidNS, Inst: g.InstNS}
}

// EmbeddingConfig selects the embedding function and its artifact.
type EmbeddingConfig struct {
	Artifact   string        `mapstructure:"artifact" yaml:"artifact" validate:"required"`
	Provider   string        `mapstructure:"provider" yaml:"provider" validate:"oneof=openai ollama gemini hashing"`
	Model      string        `mapstructure:"model" yaml:"model,omitempty"`
	BaseURL    string        `mapstructure:"base_url" yaml:"base_url,omitempty" validate:"omitempty,url"`
	Dimensions int           `mapstructure:"dimensions" yaml:"dimensions" validate:"gte=0"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gt=0"`

	// Optional lets serve and mcp start without an artifact.
	Optional bool `mapstructure:"optional" yaml:"optional"`
}

// ExplainConfig selects the optional LLM narrator. An empty provider keeps
// the plain text explainer.
type ExplainConfig struct {
	Provider string `mapstructure:"provider" yaml:"provider,omitempty" validate:"omitempty,oneof=openai ollama anthropic gemini"`
	Model    string `mapstructure:"model" yaml:"model,omitempty"`
	BaseURL  string `mapstructure:"base_url" yaml:"base_url,omitempty" validate:"omitempty,url"`

	// PromptsDir may hold explain_evidence_prompt.txt to replace the
	// built-in prompt.
	PromptsDir string `mapstructure:"prompts_dir" yaml:"prompts_dir,omitempty"`
}

// SearchConfig tunes semantic search.
type SearchConfig struct {
	DefaultK   int `mapstructure:"default_k" yaml:"default_k" validate:"gte=1"`
	Oversample int `mapstructure:"oversample" yaml:"oversample" validate:"gte=1"`
}

// ReasonerConfig bounds path search.
type ReasonerConfig struct {
	MaxHops       int           `mapstructure:"max_hops" yaml:"max_hops" validate:"gte=0"`
	MaxExpansions int           `mapstructure:"max_expansions" yaml:"max_expansions" validate:"gte=1"`
	Timeout       time.Duration `mapstructure:"timeout" yaml:"timeout" validate:"gte=0"`
}

// MergeConfig holds merge defaults that flags override.
type MergeConfig struct {
	Mode               string            `mapstructure:"mode" yaml:"mode" validate:"oneof=strict lenient"`
	Sheet              string            `mapstructure:"sheet" yaml:"sheet" validate:"required"`
	Columns            map[string]string `mapstructure:"columns" yaml:"columns,omitempty"`
	AllowNewConstructs bool              `mapstructure:"allow_new_constructs" yaml:"allow_new_constructs"`
	Evidence           bool              `mapstructure:"evidence" yaml:"evidence"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Addr         string        `mapstructure:"addr" yaml:"addr" validate:"required"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout" yaml:"read_timeout" validate:"gt=0"`
	WriteTimeout time.Duration `mapstructure:"write_timeout" yaml:"write_timeout" validate:"gt=0"`
}

// LogConfig configures slog.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=text json"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Graph: GraphConfig{
			Paths:    []string{"ontology/teamMeasurement.ttl", "ontology/evidence.ttl", "ontology/instances.ttl"},
			Optional: []string{"ontology/instances.ttl"},
			MeasNS:   ontology.DefaultMeasNS,
			EvidNS:   ontology.DefaultEvidNS,
			InstNS:   ontology.DefaultInstNS,
		},
		Embedding: EmbeddingConfig{
			Artifact: "ontology/constructs.embeddings.db",
			Provider: "hashing",
			Timeout:  60 * time.Second,
		},
		Search:   SearchConfig{DefaultK: 5, Oversample: 2},
		Reasoner: ReasonerConfig{MaxHops: 3, MaxExpansions: 10000, Timeout: 10 * time.Second},
		Merge:    MergeConfig{Mode: "lenient", Sheet: "measures"},
		Server:   ServerConfig{Addr: "127.0.0.1:8080", ReadTimeout: 15 * time.Second, WriteTimeout: 60 * time.Second},
		Log:      LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads the settings from viper, falling back to Default for unset
// keys, and validates the result.
func Load() (Config, error) {
	d := Default()
	cfg := Config{
		Graph: GraphConfig{
			Paths:    getStringSliceWithDefault("graph.paths", d.Graph.Paths),
			Optional: getStringSliceWithDefault("graph.optional", d.Graph.Optional),
			MeasNS:   getStringWithDefault("graph.meas_ns", d.Graph.MeasNS),
			EvidNS:   getStringWithDefault("graph.evid_ns", d.Graph.EvidNS),
			InstNS:   getStringWithDefault("graph.inst_ns", d.Graph.InstNS),
		},
		Embedding: EmbeddingConfig{
			Artifact:   getStringWithDefault("embedding.artifact", d.Embedding.Artifact),
			Provider:   getStringWithDefault("embedding.provider", d.Embedding.Provider),
			Model:      getStringWithDefault("embedding.model", d.Embedding.Model),
			BaseURL:    getStringWithDefault("embedding.base_url", d.Embedding.BaseURL),
			Dimensions: getIntWithDefault("embedding.dimensions", d.Embedding.Dimensions),
			Timeout:    getDurationWithDefault("embedding.timeout", d.Embedding.Timeout),
			Optional:   getBoolWithDefault("embedding.optional", d.Embedding.Optional),
		},
		Explain: ExplainConfig{
			Provider:   getStringWithDefault("explain.provider", d.Explain.Provider),
			Model:      getStringWithDefault("explain.model", d.Explain.Model),
			BaseURL:    getStringWithDefault("explain.base_url", d.Explain.BaseURL),
			PromptsDir: getStringWithDefault("explain.prompts_dir", d.Explain.PromptsDir),
		},
		Search: SearchConfig{
			DefaultK:   getIntWithDefault("search.default_k", d.Search.DefaultK),
			Oversample: getIntWithDefault("search.oversample", d.Search.Oversample),
		},
		Reasoner: ReasonerConfig{
			MaxHops:       getIntWithDefault("reasoner.max_hops", d.Reasoner.MaxHops),
			MaxExpansions: getIntWithDefault("reasoner.max_expansions", d.Reasoner.MaxExpansions),
			Timeout:       getDurationWithDefault("reasoner.timeout", d.Reasoner.Timeout),
		},
		Merge: MergeConfig{
			Mode:               getStringWithDefault("merge.mode", d.Merge.Mode),
			Sheet:              getStringWithDefault("merge.sheet", d.Merge.Sheet),
			Columns:            viper.GetStringMapString("merge.columns"),
			AllowNewConstructs: getBoolWithDefault("merge.allow_new_constructs", d.Merge.AllowNewConstructs),
			Evidence:           getBoolWithDefault("merge.evidence", d.Merge.Evidence),
		},
		Server: ServerConfig{
			Addr:         getStringWithDefault("server.addr", d.Server.Addr),
			ReadTimeout:  getDurationWithDefault("server.read_timeout", d.Server.ReadTimeout),
			WriteTimeout: getDurationWithDefault("server.write_timeout", d.Server.WriteTimeout),
		},
		Log: LogConfig{
			Level:  strings.ToLower(getStringWithDefault("log.level", d.Log.Level)),
			Format: strings.ToLower(getStringWithDefault("log.format", d.Log.Format)),
		},
	}
	if len(cfg.Merge.Columns) == 0 {
		cfg.Merge.Columns = nil
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks every section.
func (c Config) Validate() error {
	err := validate.Struct(c)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("invalid config: %w", err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, e := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s: failed %q (value: %v)", configKey(e.Namespace()), e.Tag(), e.Value()))
	}
	return fmt.Errorf("invalid config: %s", strings.Join(msgs, "; "))
}

// configKey turns a validator namespace like Config.Search.DefaultK into
// the struct path without the root type.
func configKey(ns string) string {
	if i := strings.IndexByte(ns, '.'); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func getIntWithDefault(key string, defaultVal int) int {
	if viper.IsSet(key) {
		return viper.GetInt(key)
	}
	return defaultVal
}

func getBoolWithDefault(key string, defaultVal bool) bool {
	if viper.IsSet(key) {
		return viper.GetBool(key)
	}
	return defaultVal
}

func getStringWithDefault(key string, defaultVal string) string {
	if viper.IsSet(key) {
		return viper.GetString(key)
	}
	return defaultVal
}

func getDurationWithDefault(key string, defaultVal time.Duration) time.Duration {
	if viper.IsSet(key) {
		return viper.GetDuration(key)
	}
	return defaultVal
}

func getStringSliceWithDefault(key string, defaultVal []string) []string {
	if viper.IsSet(key) {
		return viper.GetStringSlice(key)
	}
	return append([]string(nil), defaultVal...)
}
