package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// The uploader persists its connection settings in a per-operator file
// rather than the environment, so one `config` invocation outlives many
// upload sessions.

const (
	configDirName  = ".memoir-uploader"
	configFileName = "config.json"
)

// FileConfig is the operator config file's schema.
type FileConfig struct {
	Endpoint  string `json:"endpoint"`
	AccessKey string `json:"accessKey"`
	SecretKey string `json:"secretKey"`
	Bucket    string `json:"bucket"`
	UseSSL    bool   `json:"useSSL"`
}

// Blob converts the file config into the storage constructor's shape.
func (c *FileConfig) Blob() BlobConfig {
	return BlobConfig{
		Endpoint:  c.Endpoint,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Bucket:    c.Bucket,
		UseSSL:    c.UseSSL,
	}
}

// Path returns the operator config file location,
// ~/.memoir-uploader/config.json.
func Path() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, configDirName, configFileName), nil
}

// LoadFile reads the operator config. A missing or unreadable file
// yields an empty config, not an error: the CLI decides per command
// whether an incomplete config is fatal.
func LoadFile() *FileConfig {
	cfg := &FileConfig{}
	path, err := Path()
	if err != nil {
		return cfg
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return &FileConfig{}
	}
	return cfg
}

// SaveFile writes the operator config with owner-only permissions, since
// it holds storage credentials.
func SaveFile(cfg *FileConfig) error {
	path, err := Path()
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write config: %w", err)
	}
	return nil
}
