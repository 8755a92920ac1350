package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"resumescore/internal/errors"

	"github.com/hashicorp/vault/api"
)

// VaultConfig holds Vault connection configuration
type VaultConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	Address   string `mapstructure:"address"`
	Token     string `mapstructure:"token"`
	TokenFile string `mapstructure:"tokenFile"`
	Namespace string `mapstructure:"namespace"`

	Secrets VaultSecrets `mapstructure:"secrets"`
}

// VaultSecrets holds KVv2 paths. An empty path skips that secret.
type VaultSecrets struct {
	APIKeys  string `mapstructure:"apiKeys"`  // key "keys", comma-separated
	Database string `mapstructure:"database"` // key "url"
	Redis    string `mapstructure:"redis"`    // key "password"
	Storage  string `mapstructure:"storage"`  // keys "access_key", "secret_key"
	TLSCerts string `mapstructure:"tlsCerts"` // keys "cert", "key", "ca"
}

// VaultSecret represents a secret read from Vault's KVv2 engine.
type VaultSecret struct {
	Data    map[string]any
	Version int64
}

// SecretReader reads KVv2 secrets.
type SecretReader interface {
	GetSecretV2(path string) (*VaultSecret, error)
}

// VaultClient wraps the Vault API client
type VaultClient struct {
	client *api.Client
	logger *errors.Logger
}

// NewVaultClient connects to Vault. It returns nil without error when Vault is disabled.
func NewVaultClient(config VaultConfig, logger *errors.Logger) (*VaultClient, error) {
	if logger == nil {
		logger = errors.Discard()
	}
	if !config.Enabled {
		logger.Debug("Vault integration disabled")
		return nil, nil
	}

	logger.Debug("Initializing Vault client",
		"address", config.Address,
		"namespace", config.Namespace,
		"token_file", config.TokenFile,
		"has_token", config.Token != "")

	apiConfig := api.DefaultConfig()
	if config.Address != "" {
		apiConfig.Address = config.Address
	}
	client, err := api.NewClient(apiConfig)
	if err != nil {
		return nil, errors.NewConfigError(errors.ErrCodeSecretUnavailable, "failed to create vault client", err)
	}
	if config.Namespace != "" {
		client.SetNamespace(config.Namespace)
	}

	token, err := resolveVaultToken(config, logger)
	if err != nil {
		return nil, err
	}
	client.SetToken(token)

	health, err := client.Sys().Health()
	if err != nil {
		logger.LogError(err, "Failed to connect to Vault", "address", config.Address)
		return nil, errors.NewNetworkError(errors.ErrCodeSecretUnavailable, "failed to connect to vault", err)
	}
	logger.Info("Connected to Vault",
		"address", config.Address,
		"version", health.Version,
		"sealed", health.Sealed)

	return &VaultClient{client: client, logger: logger}, nil
}

// resolveVaultToken resolves the Vault token from config or file
func resolveVaultToken(config VaultConfig, logger *errors.Logger) (string, error) {
	token := config.Token
	if token == "" && config.TokenFile != "" {
		logger.Debug("Reading Vault token from file", "file", config.TokenFile)
		tokenBytes, err := os.ReadFile(config.TokenFile)
		if err != nil {
			return "", errors.NewIOError(errors.ErrCodeFileNotReadable, "failed to read vault token file", err).
				WithContext("file", config.TokenFile)
		}
		token = strings.TrimSpace(string(tokenBytes))
	}
	if token == "" {
		return "", errors.NewConfigError(errors.ErrCodeSecretUnavailable, "vault token is required when vault is enabled", nil)
	}
	return token, nil
}

// GetSecretV2 retrieves a secret from a Vault KVv2 store.
func (vc *VaultClient) GetSecretV2(path string) (*VaultSecret, error) {
	if vc == nil {
		return nil, fmt.Errorf("vault client not initialized")
	}
	vc.logger.Debug("Reading secret from Vault", "path", path)

	secret, err := vc.client.Logical().Read(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read secret from %s: %w", path, err)
	}
	if secret == nil || secret.Data == nil {
		return nil, fmt.Errorf("secret not found at path: %s", path)
	}

	data, err := extractSecretData(secret, path)
	if err != nil {
		return nil, err
	}
	version, err := extractSecretVersion(secret, path)
	if err != nil {
		return nil, err
	}
	return &VaultSecret{Data: data, Version: version}, nil
}

func extractSecretData(secret *api.Secret, path string) (map[string]any, error) {
	data, ok := secret.Data["data"].(map[string]any)
	if !ok {
		return nil, fmt.Errorf("secret at %s is not in KVv2 format (missing 'data' field)", path)
	}
	return data, nil
}

func extractSecretVersion(secret *api.Secret, path string) (int64, error) {
	metadata, ok := secret.Data["metadata"].(map[string]any)
	if !ok {
		return 0, fmt.Errorf("secret at %s is not in KVv2 format (missing 'metadata' field)", path)
	}
	versionRaw, ok := metadata["version"]
	if !ok {
		return 0, fmt.Errorf("secret metadata at %s is missing 'version' field", path)
	}
	return parseVersionValue(versionRaw, path)
}

// parseVersionValue accepts the numeric shapes Vault's JSON decoding produces
func parseVersionValue(versionRaw any, path string) (int64, error) {
	switch v := versionRaw.(type) {
	case int64:
		return v, nil
	case float64:
		return int64(v), nil
	case string:
		version, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("could not parse secret version at %s: %w", path, err)
		}
		return version, nil
	default:
		return 0, fmt.Errorf("unexpected type for version at %s: %T", path, versionRaw)
	}
}

// stringField returns a string value from secret data.
func stringField(secret *VaultSecret, path, key string) (string, error) {
	value, ok := secret.Data[key]
	if !ok {
		return "", fmt.Errorf("key '%s' not found in secret %s", key, path)
	}
	s, ok := value.(string)
	if !ok {
		return "", fmt.Errorf("value for key '%s' is not a string in secret %s", key, path)
	}
	return s, nil
}

// maskSecret keeps the first and last four characters of long values.
func maskSecret(s string) string {
	switch {
	case len(s) > 8:
		return s[:4] + "****" + s[len(s)-4:]
	case s != "":
		return "****"
	default:
		return ""
	}
}

// ApplyVaultSecrets loads secrets from Vault and applies them to the config
func ApplyVaultSecrets(config *Config, logger *errors.Logger) error {
	if logger == nil {
		logger = errors.Discard()
	}
	if !config.Vault.Enabled {
		logger.Debug("Vault integration disabled, skipping secret loading")
		return nil
	}

	client, err := NewVaultClient(config.Vault, logger)
	if err != nil {
		logger.LogError(err, "Failed to initialize Vault client")
		return err
	}
	return applySecrets(client, config, logger)
}

type secretLoader struct {
	name  string
	path  func(VaultSecrets) string
	apply func(cfg *Config, secret *VaultSecret, path string) error
}

var secretLoaders = []secretLoader{
	{
		name: "api keys",
		path: func(s VaultSecrets) string { return s.APIKeys },
		apply: func(cfg *Config, secret *VaultSecret, path string) error {
			raw, err := stringField(secret, path, "keys")
			if err != nil {
				return err
			}
			if keys := splitList(raw); len(keys) > 0 {
				cfg.Server.APIKeys = keys
			}
			return nil
		},
	},
	{
		name: "database url",
		path: func(s VaultSecrets) string { return s.Database },
		apply: func(cfg *Config, secret *VaultSecret, path string) error {
			url, err := stringField(secret, path, "url")
			if err != nil {
				return err
			}
			cfg.Database.URL = url
			return nil
		},
	},
	{
		name: "redis password",
		path: func(s VaultSecrets) string { return s.Redis },
		apply: func(cfg *Config, secret *VaultSecret, path string) error {
			password, err := stringField(secret, path, "password")
			if err != nil {
				return err
			}
			cfg.Cache.Redis.Password = password
			return nil
		},
	},
	{
		name: "storage credentials",
		path: func(s VaultSecrets) string { return s.Storage },
		apply: func(cfg *Config, secret *VaultSecret, path string) error {
			access, err := stringField(secret, path, "access_key")
			if err != nil {
				return err
			}
			secretKey, err := stringField(secret, path, "secret_key")
			if err != nil {
				return err
			}
			cfg.Storage.AccessKey = access
			cfg.Storage.SecretKey = secretKey
			return nil
		},
	},
	{
		name: "tls certificates",
		path: func(s VaultSecrets) string { return s.TLSCerts },
		apply: func(cfg *Config, secret *VaultSecret, _ string) error {
			for key, target := range map[string]*string{
				"cert": &cfg.Server.TLS.CertContent,
				"key":  &cfg.Server.TLS.KeyContent,
				"ca":   &cfg.Server.TLS.CAContent,
			} {
				if content, ok := secret.Data[key].(string); ok && content != "" {
					*target = content
				}
			}
			// Content from Vault replaces any configured file paths.
			if cfg.Server.TLS.CertContent != "" {
				cfg.Server.TLS.CertFile = ""
			}
			if cfg.Server.TLS.KeyContent != "" {
				cfg.Server.TLS.KeyFile = ""
			}
			if cfg.Server.TLS.CAContent != "" {
				cfg.Server.TLS.CAFile = ""
			}
			return nil
		},
	},
}

// applySecrets reads every configured secret path and copies values into config.
func applySecrets(reader SecretReader, config *Config, logger *errors.Logger) error {
	applied := 0
	for _, l := range secretLoaders {
		path := l.path(config.Vault.Secrets)
		if path == "" {
			continue
		}

		secret, err := reader.GetSecretV2(path)
		if err == nil {
			err = l.apply(config, secret, path)
		}
		if err != nil {
			wrapped := errors.NewConfigError(errors.ErrCodeSecretUnavailable,
				fmt.Sprintf("failed to load %s from vault", l.name), err).WithContext("path", path)
			logger.LogError(wrapped, "Vault secret unavailable")
			return wrapped
		}

		logger.Debug("Secret applied from Vault", "secret", l.name, "path", path, "version", secret.Version)
		applied++
	}

	logger.Info("Applied secrets from Vault", "count", applied,
		"api_keys", len(config.Server.APIKeys),
		"database_url", maskSecret(config.Database.URL))
	return nil
}
