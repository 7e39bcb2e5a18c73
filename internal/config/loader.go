package config

import (
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/viper"

	"github.com/contextinator/contextinator/internal/contextinatorerrors"
)

// Loader loads configuration from file and environment variables.
type Loader interface {
	// Load loads configuration with priority defaults → config file →
	// environment variables (env wins).
	Load() (*Config, error)
}

type loader struct {
	rootDir string
}

// NewLoader creates a configuration loader rooted at rootDir.
func NewLoader(rootDir string) Loader {
	return &loader{rootDir: rootDir}
}

func (l *loader) Load() (*Config, error) {
	v := viper.New()

	configDir := filepath.Join(l.rootDir, ".contextinator")
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(configDir)

	v.SetEnvPrefix("CONTEXTINATOR")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	bindProviderEnv(v)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, contextinatorerrors.ConfigurationError("read config file: %v", err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, contextinatorerrors.ConfigurationError("unmarshal config: %v", err)
	}

	applyUpstreamEnvVars(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// bindProviderEnv binds CONTEXTINATOR_-prefixed environment variables to
// each configuration key so viper's automatic env works for nested keys.
func bindProviderEnv(v *viper.Viper) {
	v.BindEnv("embedding.endpoint")
	v.BindEnv("embedding.api_key")
	v.BindEnv("embedding.model")
	v.BindEnv("embedding.dimensions")
	v.BindEnv("embedding.batch_size")
	v.BindEnv("embedding.max_concurrent")

	v.BindEnv("vector_store.use_server")
	v.BindEnv("vector_store.server_url")
	v.BindEnv("vector_store.auth_token")
	v.BindEnv("vector_store.batch_size")
	v.BindEnv("vector_store.base_dir")

	v.BindEnv("discovery.ignore")
	v.BindEnv("chunking.max_tokens")
	v.BindEnv("chunking.overlap")
	v.BindEnv("git.clone_timeout")
}

func setDefaults(v *viper.Viper) {
	d := Default()

	v.SetDefault("embedding.endpoint", d.Embedding.Endpoint)
	v.SetDefault("embedding.model", d.Embedding.Model)
	v.SetDefault("embedding.dimensions", d.Embedding.Dimensions)
	v.SetDefault("embedding.batch_size", d.Embedding.BatchSize)
	v.SetDefault("embedding.max_concurrent", d.Embedding.MaxConcurrent)

	v.SetDefault("vector_store.use_server", d.VectorStore.UseServer)
	v.SetDefault("vector_store.server_url", d.VectorStore.ServerURL)
	v.SetDefault("vector_store.batch_size", d.VectorStore.BatchSize)
	v.SetDefault("vector_store.base_dir", d.VectorStore.BaseDir)

	v.SetDefault("discovery.ignore", d.Discovery.Ignore)
	v.SetDefault("chunking.max_tokens", d.Chunking.MaxTokens)
	v.SetDefault("chunking.overlap", d.Chunking.Overlap)
	v.SetDefault("git.clone_timeout", d.Git.CloneTimeout)
}

// applyUpstreamEnvVars layers in the spec's own environment variable names
// (OPENAI_API_KEY, EMBEDDING_BATCH_SIZE, CHROMA_SERVER_URL,
// CHROMA_SERVER_AUTH_TOKEN, USE_CHROMA_SERVER, CHROMA_BATCH_SIZE) on top of
// whatever viper resolved from CONTEXTINATOR_* and the config file, since
// those are the variable names operators of the underlying pipeline already
// know.
func applyUpstreamEnvVars(cfg *Config) {
	if key := os.Getenv("OPENAI_API_KEY"); key != "" {
		cfg.Embedding.APIKey = key
	}
	if raw := os.Getenv("EMBEDDING_BATCH_SIZE"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			cfg.Embedding.BatchSize = n
		}
	}
	if u := os.Getenv("CHROMA_SERVER_URL"); u != "" {
		cfg.VectorStore.ServerURL = u
	}
	if token := os.Getenv("CHROMA_SERVER_AUTH_TOKEN"); token != "" {
		cfg.VectorStore.AuthToken = token
	}
	if raw := os.Getenv("USE_CHROMA_SERVER"); raw != "" {
		if b, err := strconv.ParseBool(raw); err == nil {
			cfg.VectorStore.UseServer = b
		}
	}
	if raw := os.Getenv("CHROMA_BATCH_SIZE"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil {
			cfg.VectorStore.BatchSize = n
		}
	}
}

// LoadConfig loads configuration rooted at the current working directory.
func LoadConfig() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, contextinatorerrors.ConfigurationError("get working directory: %v", err)
	}
	return NewLoader(wd).Load()
}

// LoadConfigFromDir loads configuration rooted at a specific directory.
func LoadConfigFromDir(rootDir string) (*Config, error) {
	return NewLoader(rootDir).Load()
}

// ServerHostPort splits VectorStoreConfig.ServerURL into a host and port
// suitable for the Qdrant gRPC client, which dials by host/port rather than
// URL.
func (c *VectorStoreConfig) ServerHostPort() (host string, port int, err error) {
	parsed, err := url.Parse(c.ServerURL)
	if err != nil {
		return "", 0, contextinatorerrors.ConfigurationError("invalid vector store server url %q: %v", c.ServerURL, err)
	}
	host = parsed.Hostname()
	if host == "" {
		return "", 0, contextinatorerrors.ConfigurationError("vector store server url %q has no host", c.ServerURL)
	}
	portStr := parsed.Port()
	if portStr == "" {
		port = 6334
		return host, port, nil
	}
	port, err = strconv.Atoi(portStr)
	if err != nil {
		return "", 0, contextinatorerrors.ConfigurationError("invalid vector store server port in %q: %v", c.ServerURL, err)
	}
	return host, port, nil
}
