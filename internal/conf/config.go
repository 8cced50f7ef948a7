package conf

import (
	"os"
	"path/filepath"

	"gopkg.in/yaml.v2"
)

// Config holds the gateway configuration
type Config struct {
	Hostname       string `yaml:"hostname"`
	SMTPPort       int    `yaml:"smtp_port"`
	IMAPPort       int    `yaml:"imap_port"`
	TLSEnabled     bool   `yaml:"tls_enabled"`
	TLSRequired    bool   `yaml:"tls_required"`
	ArchivePath    string `yaml:"archive_path"`
	MaxMessageSize int64  `yaml:"max_message_size"`
}

// DefaultConfig returns a configuration suitable for a localhost gateway
func DefaultConfig() *Config {
	return &Config{
		Hostname:       "localhost",
		SMTPPort:       2525,
		IMAPPort:       1143,
		TLSEnabled:     true,
		TLSRequired:    false,
		MaxMessageSize: 10 * 1024 * 1024,
	}
}

// LoadConfig loads configuration from the first readable well-known path
func LoadConfig() (*Config, error) {
	configPaths := []string{
		"/etc/mailgate/mailgate.yaml",
		"./config/mailgate.yaml",
		"./mailgate.yaml",
		"config/mailgate.yaml",
	}

	var data []byte
	var err error
	for _, path := range configPaths {
		data, err = os.ReadFile(filepath.Clean(path))
		if err == nil {
			break
		}
	}
	if err != nil {
		return nil, err
	}

	return parseConfig(data)
}

// LoadConfigFile loads configuration from an explicit path
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, err
	}
	return parseConfig(data)
}

func parseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}

	// Re-apply defaults for keys the file left at zero
	if cfg.Hostname == "" {
		cfg.Hostname = "localhost"
	}
	if cfg.SMTPPort == 0 {
		cfg.SMTPPort = 2525
	}
	if cfg.IMAPPort == 0 {
		cfg.IMAPPort = 1143
	}
	if cfg.MaxMessageSize == 0 {
		cfg.MaxMessageSize = 10 * 1024 * 1024
	}

	return cfg, nil
}
