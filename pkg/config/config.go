// Package config loads sampler settings from defaults, an optional config file,
// MEMSAMPLE_* environment variables and command-line flags.
package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/danpilch/memsample/pkg/engine"
	"github.com/danpilch/memsample/pkg/meminfo"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. MEMSAMPLE_INTERVAL.
const EnvPrefix = "MEMSAMPLE"

// Keys understood by Load.
const (
	KeyConfig           = "config"
	KeySource           = "source"
	KeyPattern          = "pattern"
	KeyInterval         = "interval"
	KeyFailureThreshold = "failure_threshold"
	KeyLogLevel         = "log.level"
	KeyLogFormat        = "log.format"
	KeyOutput           = "output"
)

// Config holds the resolved settings.
type Config struct {
	Source           string
	Pattern          string
	Interval         time.Duration
	FailureThreshold int
	Output           string
	Log              LogConfig
}

// LogConfig selects the log level and formatter.
type LogConfig struct {
	Level  string
	Format string
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		Source:           meminfo.DefaultPath,
		Pattern:          "",
		Interval:         engine.DefaultInterval,
		FailureThreshold: engine.DefaultFailureThreshold,
		Output:           "table",
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// NewViper returns a viper instance with defaults and environment binding set up.
func NewViper() *viper.Viper {
	d := Default()

	v := viper.New()
	v.SetDefault(KeySource, d.Source)
	v.SetDefault(KeyPattern, d.Pattern)
	v.SetDefault(KeyInterval, d.Interval.String())
	v.SetDefault(KeyFailureThreshold, d.FailureThreshold)
	v.SetDefault(KeyLogLevel, d.Log.Level)
	v.SetDefault(KeyLogFormat, d.Log.Format)
	v.SetDefault(KeyOutput, d.Output)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()
	return v
}

// FlagKeys maps command-line flag names to configuration keys.
var FlagKeys = map[string]string{
	"config":            KeyConfig,
	"source":            KeySource,
	"pattern":           KeyPattern,
	"interval":          KeyInterval,
	"failure-threshold": KeyFailureThreshold,
	"log-level":         KeyLogLevel,
	"log-format":        KeyLogFormat,
	"output":            KeyOutput,
}

// BindFlags binds every flag of fs named in FlagKeys to its key, so a flag set
// on the command line overrides the environment and the config file.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	for name, key := range FlagKeys {
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if err := v.BindPFlag(key, f); err != nil {
			return fmt.Errorf("bind flag %s: %w", name, err)
		}
	}
	return nil
}

// Load resolves a Config from v, reading the config file named by the "config"
// key first when set.
func Load(v *viper.Viper) (Config, error) {
	if path := v.GetString(KeyConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	interval, err := ParseInterval(v.GetString(KeyInterval))
	if err != nil {
		return Config{}, fmt.Errorf("parse %s: %w", KeyInterval, err)
	}

	cfg := Config{
		Source:           v.GetString(KeySource),
		Pattern:          v.GetString(KeyPattern),
		Interval:         interval,
		FailureThreshold: v.GetInt(KeyFailureThreshold),
		Output:           v.GetString(KeyOutput),
		Log: LogConfig{
			Level:  strings.ToLower(v.GetString(KeyLogLevel)),
			Format: strings.ToLower(v.GetString(KeyLogFormat)),
		},
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("validate config: %w", err)
	}
	return cfg, nil
}

// Validate checks the settings for consistency.
func (c Config) Validate() error {
	if c.Source == "" {
		return fmt.Errorf("source must not be empty")
	}
	if c.Interval <= 0 {
		return fmt.Errorf("interval must be > 0, got %s", c.Interval)
	}
	if c.FailureThreshold < 0 {
		return fmt.Errorf("failure_threshold cannot be negative, got %d", c.FailureThreshold)
	}
	if _, err := meminfo.CompilePattern(c.Pattern); err != nil {
		return err
	}

	validLevels := map[string]bool{"trace": true, "debug": true, "info": true, "warn": true, "warning": true, "error": true}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s (valid: debug, info, warn, error)", c.Log.Level)
	}

	validFormats := map[string]bool{"json": true, "text": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s (valid: json, text)", c.Log.Format)
	}

	validOutputs := map[string]bool{"table": true, "json": true, "tsv": true}
	if !validOutputs[c.Output] {
		return fmt.Errorf("invalid output format: %s (valid: table, json, tsv)", c.Output)
	}
	return nil
}

var intervalRe = regexp.MustCompile(`^([0-9]+)([mun]?s)$`)

// ParseInterval parses a sampling interval such as "10ms", "250us" or "1s".
// Anything time.ParseDuration accepts is also allowed.
func ParseInterval(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)

	var d time.Duration
	if m := intervalRe.FindStringSubmatch(s); m != nil {
		n, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid interval %q: %w", s, err)
		}
		unit := map[string]time.Duration{
			"s":  time.Second,
			"ms": time.Millisecond,
			"us": time.Microsecond,
			"ns": time.Nanosecond,
		}[m[2]]
		d = time.Duration(n) * unit
	} else {
		var err error
		d, err = time.ParseDuration(s)
		if err != nil {
			return 0, fmt.Errorf("invalid interval %q: %w", s, err)
		}
	}

	if d <= 0 {
		return 0, fmt.Errorf("interval must be > 0, got %q", s)
	}
	return d, nil
}
