package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the top-level YAML structure of the server config file.
type Config struct {
	RulesPath string     `yaml:"rules_path"`
	AuditDB   string     `yaml:"audit_db"`
	Engine    EngineConf `yaml:"engine"`
}

// EngineConf holds tunable concurrency settings.
type EngineConf struct {
	EventWorkers      int `yaml:"event_workers"`
	QueueDepth        int `yaml:"queue_depth"`
	DispatchTimeoutMs int `yaml:"dispatch_timeout_ms"`
	ActionTimeoutMs   int `yaml:"action_timeout_ms"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	c := &Config{
		RulesPath: "configs/rules.yaml",
		AuditDB:   "orderflow.db",
	}
	applyDefaults(c)
	return c
}

// Load reads and validates a YAML config file, filling in defaults
// for unset engine tunables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	var c Config
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyDefaults(&c)
	if c.RulesPath == "" {
		return nil, fmt.Errorf("config %s: rules_path is required", path)
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.AuditDB == "" {
		c.AuditDB = "orderflow.db"
	}
	if c.Engine.EventWorkers == 0 {
		c.Engine.EventWorkers = 16
	}
	if c.Engine.QueueDepth == 0 {
		c.Engine.QueueDepth = 4096
	}
	if c.Engine.DispatchTimeoutMs == 0 {
		c.Engine.DispatchTimeoutMs = 30000
	}
	if c.Engine.ActionTimeoutMs == 0 {
		c.Engine.ActionTimeoutMs = 10000
	}
}
