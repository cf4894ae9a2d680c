package config

import (
	"fmt"
	"slices"
)

// ValidationIssue describes a problem with a config value.
type ValidationIssue struct {
	Path    string
	Message string
}

func (v ValidationIssue) String() string {
	return fmt.Sprintf("%s: %s", v.Path, v.Message)
}

// Validate checks a Config for issues. Returns nil if valid.
func Validate(cfg *Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Gateway.Port < 0 || cfg.Gateway.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.port",
			Message: fmt.Sprintf("port must be 0-65535, got %d", cfg.Gateway.Port),
		})
	}

	validBinds := []string{"loopback", "lan", "custom"}
	if cfg.Gateway.Bind != "" && !slices.Contains(validBinds, cfg.Gateway.Bind) {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.bind",
			Message: fmt.Sprintf("must be one of %v, got %q", validBinds, cfg.Gateway.Bind),
		})
	}
	if cfg.Gateway.Bind == "custom" && cfg.Gateway.Host == "" {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.host",
			Message: "required when bind: custom",
		})
	}

	validAuthModes := []string{"token", "none"}
	if cfg.Gateway.Auth.Mode != "" && !slices.Contains(validAuthModes, cfg.Gateway.Auth.Mode) {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.auth.mode",
			Message: fmt.Sprintf("must be one of %v, got %q", validAuthModes, cfg.Gateway.Auth.Mode),
		})
	}
	if cfg.Gateway.Auth.Mode == "token" && cfg.Gateway.Auth.Token == "" {
		issues = append(issues, ValidationIssue{
			Path:    "gateway.auth.token",
			Message: "required when auth mode is token",
		})
	}

	validStores := []string{"memory", "sqlite", "redis"}
	if cfg.Checkpoint.Store != "" && !slices.Contains(validStores, cfg.Checkpoint.Store) {
		issues = append(issues, ValidationIssue{
			Path:    "checkpoint.store",
			Message: fmt.Sprintf("must be one of %v, got %q", validStores, cfg.Checkpoint.Store),
		})
	}
	if cfg.Checkpoint.Store == "redis" {
		if cfg.Checkpoint.Redis.Addr == "" {
			issues = append(issues, ValidationIssue{
				Path:    "checkpoint.redis.addr",
				Message: "required when checkpoint store is redis",
			})
		}
		if cfg.Checkpoint.Redis.TTLMinutes < 0 {
			issues = append(issues, ValidationIssue{
				Path:    "checkpoint.redis.ttlMinutes",
				Message: fmt.Sprintf("must not be negative, got %d", cfg.Checkpoint.Redis.TTLMinutes),
			})
		}
	}

	validLogLevels := []string{"silent", "fatal", "error", "warn", "info", "debug", "trace"}
	if cfg.Logging.Level != "" && !slices.Contains(validLogLevels, cfg.Logging.Level) {
		issues = append(issues, ValidationIssue{
			Path:    "logging.level",
			Message: fmt.Sprintf("must be one of %v, got %q", validLogLevels, cfg.Logging.Level),
		})
	}

	if cfg.OpenAI.APIKey == "" {
		issues = append(issues, ValidationIssue{
			Path:    "openai.apiKey",
			Message: "required (set openai.apiKey or TRIPDESK_OPENAI_API_KEY)",
		})
	}

	return issues
}
