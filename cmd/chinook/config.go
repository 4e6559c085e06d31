package main

import (
	"fmt"
	"time"

	"github.com/franz/chinook-insights/internal/analytics"
	"github.com/franz/chinook-insights/internal/model"
	"github.com/franz/chinook-insights/internal/util"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// GetConfigString retrieves a string config value with proper precedence:
// 1. Command-line flag (if set)
// 2. Environment variable (CHINOOK_*)
// 3. Config file
// 4. Default value
func GetConfigString(key string, defaultValue string) string {
	val := viper.GetString(key)
	if val == "" {
		return defaultValue
	}
	return val
}

// GetConfigInt retrieves an int config value with proper precedence
func GetConfigInt(key string, defaultValue int) int {
	val := viper.GetInt(key)
	if val == 0 {
		return defaultValue
	}
	return val
}

// joinPolicy resolves --strict and the "policy" config key
func joinPolicy() (model.Policy, error) {
	if viper.GetBool("strict") {
		return model.PolicyStrict, nil
	}
	p, err := model.ParsePolicy(viper.GetString("policy"))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", util.ErrInvalidConfig, err)
	}
	return p, nil
}

// segmentRules decodes rfm.segments from the config file. Nil means the
// built-in rules.
func segmentRules() ([]analytics.SegmentRule, error) {
	if !viper.IsSet("rfm.segments") {
		return nil, nil
	}

	var rules []analytics.SegmentRule
	if err := viper.UnmarshalKey("rfm.segments", &rules); err != nil {
		return nil, fmt.Errorf("%w: rfm.segments: %v", util.ErrInvalidConfig, err)
	}
	if err := analytics.ValidateSegmentRules(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// parseAsOf parses a YYYY-MM-DD reference date; empty means zero
func parseAsOf(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: as-of date %q must be YYYY-MM-DD", util.ErrInvalidConfig, s)
	}
	return t, nil
}

// asOfDate reads --as-of, falling back to rfm.as_of from the config
func asOfDate(cmd *cobra.Command) (time.Time, error) {
	if f := cmd.Flags().Lookup("as-of"); f != nil && f.Changed {
		return parseAsOf(f.Value.String())
	}
	return parseAsOf(viper.GetString("rfm.as_of"))
}
