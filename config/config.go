// Package config centralises runtime configuration for the engine binaries.
package config

import (
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/quantfabric/meridian/errs"
)

// Environment identifies the runtime environment where the engine operates.
type Environment string

const (
	// EnvDev marks the development environment.
	EnvDev Environment = "dev"
	// EnvStaging marks the staging environment.
	EnvStaging Environment = "staging"
	// EnvProd marks the production environment.
	EnvProd Environment = "prod"
)

// Rule type identifiers accepted in rule-set configuration.
const (
	RuleFieldFilter     = "field_filter"
	RuleFieldNameChange = "field_name_change"
	RuleUnitChange      = "unit_change"
	RuleImpliedVol      = "implied_volatility"
)

// LoggingSettings configures the engine logger.
type LoggingSettings struct {
	Level string `yaml:"level"`
}

// TelemetrySettings configures metric export.
type TelemetrySettings struct {
	OTLPEndpoint string `yaml:"otlp_endpoint"`
	ServiceName  string `yaml:"service_name"`
}

// DefaultsSettings configures the default-property resolver sources.
type DefaultsSettings struct {
	// File points at a flat YAML map of configuration keys to values.
	File string `yaml:"file"`
	// Mode selects identifier-aware or generic resolution.
	Mode string `yaml:"mode"`
	// PostgresDSN, when set, loads the key map from the config store instead.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// FeedSettings configures the upstream tick feed connection.
type FeedSettings struct {
	URL string `yaml:"url"`
	// RatePerSecond caps inbound tick handling; zero disables the throttle.
	RatePerSecond float64 `yaml:"rate_per_second"`
	RateBurst     int     `yaml:"rate_burst"`
}

// RuleSettings describes one normalization rule inside a rule set.
type RuleSettings struct {
	Type       string   `yaml:"type"`
	Fields     []string `yaml:"fields,omitempty"`
	From       string   `yaml:"from,omitempty"`
	To         string   `yaml:"to,omitempty"`
	Multiplier string   `yaml:"multiplier,omitempty"`
}

// RuleSetSettings describes one named rule chain.
type RuleSetSettings struct {
	ID    string         `yaml:"id"`
	Rules []RuleSettings `yaml:"rules"`
}

// ShiftSettings describes one inline scenario curve shift.
type ShiftSettings struct {
	Curve     string  `yaml:"curve"`
	Currency  string  `yaml:"currency"`
	ShiftType string  `yaml:"shift_type"`
	Amount    float64 `yaml:"amount"`
}

// ScenarioSettings describes one scenario, either inline shifts or a script.
type ScenarioSettings struct {
	Name   string          `yaml:"name"`
	Script string          `yaml:"script,omitempty"`
	Shifts []ShiftSettings `yaml:"shifts,omitempty"`
}

// Settings is the engine configuration tree loaded from defaults, file, and
// environment overrides.
type Settings struct {
	Environment Environment        `yaml:"environment"`
	Logging     LoggingSettings    `yaml:"logging"`
	Telemetry   TelemetrySettings  `yaml:"telemetry"`
	Defaults    DefaultsSettings   `yaml:"defaults"`
	Feed        FeedSettings       `yaml:"feed"`
	RuleSets    []RuleSetSettings  `yaml:"rule_sets"`
	Scenarios   []ScenarioSettings `yaml:"scenarios"`
}

// Default returns the default engine configuration.
func Default() Settings {
	return Settings{
		Environment: EnvProd,
		Logging:     LoggingSettings{Level: "info"},
		Telemetry:   TelemetrySettings{OTLPEndpoint: "", ServiceName: "meridian-engine"},
		Defaults:    DefaultsSettings{File: "", Mode: "identified", PostgresDSN: ""},
		Feed:        FeedSettings{URL: "", RatePerSecond: 0, RateBurst: 1},
		RuleSets:    nil,
		Scenarios:   nil,
	}
}

// Load reads a YAML configuration file over the defaults and applies
// environment overrides.
func Load(path string) (Settings, error) {
	cfg := Default()
	if strings.TrimSpace(path) != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Settings{}, errs.New("config", errs.CodeConfig,
				errs.WithMessage("read configuration file"), errs.WithCause(err),
				errs.WithField("path", path))
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Settings{}, errs.New("config", errs.CodeConfig,
				errs.WithMessage("parse configuration file"), errs.WithCause(err),
				errs.WithField("path", path))
		}
	}
	cfg = fromEnv(cfg)
	if err := cfg.Validate(); err != nil {
		return Settings{}, err
	}
	return cfg, nil
}

// fromEnv overrides settings from environment variables.
func fromEnv(cfg Settings) Settings {
	if v := strings.TrimSpace(os.Getenv("MERIDIAN_ENV")); v != "" {
		cfg.Environment = Environment(strings.ToLower(v))
	}
	if v := strings.TrimSpace(os.Getenv("MERIDIAN_LOG_LEVEL")); v != "" {
		cfg.Logging.Level = strings.ToLower(v)
	}
	if v := strings.TrimSpace(os.Getenv("MERIDIAN_OTLP_ENDPOINT")); v != "" {
		cfg.Telemetry.OTLPEndpoint = v
	}
	if v := strings.TrimSpace(os.Getenv("MERIDIAN_FEED_URL")); v != "" {
		cfg.Feed.URL = v
	}
	if v := strings.TrimSpace(os.Getenv("MERIDIAN_PG_DSN")); v != "" {
		cfg.Defaults.PostgresDSN = v
	}
	return cfg
}

// Validate checks the configuration tree for structural errors.
func (s Settings) Validate() error {
	switch s.Environment {
	case EnvDev, EnvStaging, EnvProd:
	default:
		return errs.New("config", errs.CodeConfig,
			errs.WithMessage("unknown environment"),
			errs.WithField("environment", string(s.Environment)))
	}
	switch s.Defaults.Mode {
	case "identified", "generic":
	default:
		return errs.New("config", errs.CodeConfig,
			errs.WithMessage("defaults mode must be identified or generic"),
			errs.WithField("mode", s.Defaults.Mode))
	}
	if s.Feed.RatePerSecond < 0 {
		return errs.New("config", errs.CodeConfig,
			errs.WithMessage("feed rate must not be negative"))
	}

	seen := make(map[string]struct{}, len(s.RuleSets))
	for _, set := range s.RuleSets {
		id := strings.TrimSpace(set.ID)
		if id == "" {
			return errs.New("config", errs.CodeConfig,
				errs.WithMessage("rule set requires an id"))
		}
		if _, dup := seen[id]; dup {
			return errs.New("config", errs.CodeConfig,
				errs.WithMessage("duplicate rule set id"),
				errs.WithField("rule_set", id))
		}
		seen[id] = struct{}{}
		for _, rule := range set.Rules {
			if err := validateRule(id, rule); err != nil {
				return err
			}
		}
	}

	for _, scenario := range s.Scenarios {
		if strings.TrimSpace(scenario.Name) == "" && strings.TrimSpace(scenario.Script) == "" {
			return errs.New("config", errs.CodeConfig,
				errs.WithMessage("scenario requires a name or a script path"))
		}
		if scenario.Script != "" && len(scenario.Shifts) > 0 {
			return errs.New("config", errs.CodeConfig,
				errs.WithMessage("scenario must use either inline shifts or a script, not both"),
				errs.WithField("scenario", scenario.Name))
		}
	}
	return nil
}

func validateRule(setID string, rule RuleSettings) error {
	switch rule.Type {
	case RuleFieldFilter:
		if len(rule.Fields) == 0 {
			return ruleError(setID, rule.Type, "field_filter requires at least one field")
		}
	case RuleFieldNameChange:
		if strings.TrimSpace(rule.From) == "" || strings.TrimSpace(rule.To) == "" {
			return ruleError(setID, rule.Type, "field_name_change requires from and to")
		}
	case RuleUnitChange:
		if strings.TrimSpace(rule.Multiplier) == "" || len(rule.Fields) == 0 {
			return ruleError(setID, rule.Type, "unit_change requires a multiplier and fields")
		}
	case RuleImpliedVol:
	default:
		return ruleError(setID, rule.Type, "unknown rule type")
	}
	return nil
}

func ruleError(setID, ruleType, msg string) error {
	return errs.New("config", errs.CodeConfig,
		errs.WithMessage(msg),
		errs.WithField("rule_set", setID),
		errs.WithField("rule_type", ruleType))
}
