package config

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"phpmdlens/internal/types"
)

// ValidateOn selects which document events trigger an analysis.
type ValidateOn string

const (
	OnSave ValidateOn = "save"
	OnType ValidateOn = "type"
)

// DefaultRulesets are the built-in phpmd rulesets.
var DefaultRulesets = []string{"cleancode", "codesize", "controversial", "design", "naming", "unusedcode"}

// ConfigFiles lists the file names searched in the workspace, in order.
var ConfigFiles = []string{
	".phpmdlens.rc",
	".phpmdlens.config",
	"phpmdlens.config",
}

// ToolConfig is an immutable snapshot of the phpmd settings. A new snapshot
// replaces the old one wholesale; never mutate a snapshot after publishing it.
type ToolConfig struct {
	Enabled             bool
	ValidateOn          ValidateOn
	Rulesets            []string
	MinSeverity         types.Severity
	CustomConfigPath    string
	ValidateEnvironment bool
	Debounce            time.Duration
	RecoveryInterval    time.Duration
	Timeout             time.Duration
	LogLevel            string
	CustomSettings      map[string]string

	// Source is the file the snapshot was loaded from, empty for defaults.
	Source string
	// Warnings collects non-fatal problems found while parsing.
	Warnings []string
}

func NewConfig() *ToolConfig {
	return &ToolConfig{
		Enabled:             true,
		ValidateOn:          OnSave,
		Rulesets:            append([]string(nil), DefaultRulesets...),
		MinSeverity:         types.SeverityWarning,
		ValidateEnvironment: true,
		Debounce:            500 * time.Millisecond,
		RecoveryInterval:    30 * time.Second,
		Timeout:             60 * time.Second,
		LogLevel:            "info",
		CustomSettings:      make(map[string]string),
	}
}

// Clone returns a deep copy suitable for building the next snapshot.
func (c *ToolConfig) Clone() *ToolConfig {
	out := *c
	out.Rulesets = append([]string(nil), c.Rulesets...)
	out.Warnings = append([]string(nil), c.Warnings...)
	out.CustomSettings = make(map[string]string, len(c.CustomSettings))
	for k, v := range c.CustomSettings {
		out.CustomSettings[k] = v
	}
	return &out
}

// FindConfigFile returns the first config file present in dir, or "".
func FindConfigFile(dir string) string {
	for _, name := range ConfigFiles {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// LoadConfig loads the first config file found in dir. Defaults are returned
// when the workspace has none.
func LoadConfig(dir string) (*ToolConfig, error) {
	path := FindConfigFile(dir)
	if path == "" {
		return NewConfig(), nil
	}
	return LoadConfigFromFile(path)
}

func LoadConfigFromFile(filename string) (*ToolConfig, error) {
	config := NewConfig()
	if _, err := os.Stat(filename); err != nil {
		return nil, fmt.Errorf("config file not found: %s", filename)
	}
	config.Source = filename
	return parseConfigFile(filename, config)
}

func parseConfigFile(filename string, config *ToolConfig) (*ToolConfig, error) {
	file, err := os.Open(filename)
	if err != nil {
		return config, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	lineNum := 0
	rulesetsSeen := false

	for scanner.Scan() {
		lineNum++
		key, value, ok := splitLine(scanner.Text())
		if !ok {
			continue
		}

		// The first rulesets line replaces the defaults, later ones append.
		if key == "rulesets" && !rulesetsSeen {
			config.Rulesets = nil
			rulesetsSeen = true
		}

		if err := config.parseKeyValue(key, value); err != nil {
			config.Warnings = append(config.Warnings, fmt.Sprintf("line %d: %v", lineNum, err))
		}
	}

	if err := scanner.Err(); err != nil {
		return config, fmt.Errorf("failed to read config file %s: %w", filename, err)
	}

	if len(config.Rulesets) == 0 {
		config.Rulesets = append([]string(nil), DefaultRulesets...)
	}

	return config, nil
}

// splitLine extracts a key/value pair, skipping blanks and comments.
func splitLine(raw string) (string, string, bool) {
	line := strings.TrimSpace(raw)
	if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
		return "", "", false
	}

	parts := strings.SplitN(line, "=", 2)
	if len(parts) != 2 {
		return "", "", false
	}

	key := strings.TrimSpace(parts[0])
	value := strings.Trim(strings.TrimSpace(parts[1]), `"'`)
	return key, value, true
}

func (c *ToolConfig) parseKeyValue(key, value string) error {
	switch key {
	case "enabled":
		return parseBool(value, &c.Enabled, key)
	case "validate-on":
		switch ValidateOn(strings.ToLower(value)) {
		case OnSave:
			c.ValidateOn = OnSave
		case OnType:
			c.ValidateOn = OnType
		default:
			return fmt.Errorf("invalid validate-on value: %s (want save or type)", value)
		}
	case "rulesets":
		c.Rulesets = appendUnique(c.Rulesets, parseList(value)...)
	case "min-severity":
		sev, err := types.ParseSeverity(value)
		if err != nil {
			return err
		}
		c.MinSeverity = sev
	case "custom-config":
		c.CustomConfigPath = value
	case "validate-environment":
		return parseBool(value, &c.ValidateEnvironment, key)
	case "debounce":
		return parseDuration(value, &c.Debounce, key)
	case "recovery-interval":
		return parseDuration(value, &c.RecoveryInterval, key)
	case "timeout":
		return parseDuration(value, &c.Timeout, key)
	case "log-level":
		c.LogLevel = strings.ToLower(value)
	default:
		c.CustomSettings[key] = value
	}
	return nil
}

func parseBool(value string, dst *bool, key string) error {
	b, err := strconv.ParseBool(strings.ToLower(value))
	if err != nil {
		return fmt.Errorf("invalid %s value: %s", key, value)
	}
	*dst = b
	return nil
}

func parseDuration(value string, dst *time.Duration, key string) error {
	d, err := time.ParseDuration(value)
	if err != nil {
		// Bare numbers are milliseconds.
		ms, convErr := strconv.Atoi(value)
		if convErr != nil {
			return fmt.Errorf("invalid %s value: %s", key, value)
		}
		d = time.Duration(ms) * time.Millisecond
	}
	if d < 0 {
		return fmt.Errorf("invalid %s value: %s (must not be negative)", key, value)
	}
	*dst = d
	return nil
}

func parseList(value string) []string {
	items := strings.Split(value, ",")
	var result []string

	for _, item := range items {
		cleaned := strings.TrimSpace(item)
		if cleaned != "" {
			result = append(result, cleaned)
		}
	}

	return result
}

// appendUnique keeps the ruleset list an ordered set.
func appendUnique(list []string, items ...string) []string {
	seen := make(map[string]bool, len(list))
	for _, s := range list {
		seen[s] = true
	}
	for _, s := range items {
		if !seen[s] {
			seen[s] = true
			list = append(list, s)
		}
	}
	return list
}

// Summary describes the snapshot in a few lines for `phpmdlens status`.
func (c *ToolConfig) Summary() []string {
	source := c.Source
	if source == "" {
		source = "defaults"
	}
	lines := []string{
		fmt.Sprintf("Config source: %s", source),
		fmt.Sprintf("Enabled: %t", c.Enabled),
		fmt.Sprintf("Validate on: %s", c.ValidateOn),
		fmt.Sprintf("Minimum severity: %s", c.MinSeverity),
	}
	if c.CustomConfigPath != "" {
		lines = append(lines, fmt.Sprintf("Custom ruleset file: %s", c.CustomConfigPath))
	} else {
		lines = append(lines, fmt.Sprintf("Rulesets: %s", strings.Join(c.Rulesets, ",")))
	}
	if c.ValidateOn == OnType {
		lines = append(lines, fmt.Sprintf("Debounce: %v", c.Debounce))
	}
	return lines
}

func GenerateConfigFile(filename string) error {
	if filename == "" {
		filename = ConfigFiles[0]
	}

	content := `# phpmdlens configuration
# Lines starting with # are comments

# Run phpmd at all
enabled = true

# When to analyze: "save" or "type" (debounced while editing)
validate-on = save

# Debounce interval for validate-on = type
debounce = 500ms

# Built-in phpmd rulesets, comma separated
rulesets = "cleancode,codesize,controversial,design,naming,unusedcode"

# Path to a custom ruleset XML inside the project; overrides rulesets
# custom-config = "phpmd.xml"

# Minimum severity to report: error, warning or info
min-severity = warning

# Check that DDEV is running and phpmd is installed before each run
validate-environment = true

# How often to re-check an unavailable environment
recovery-interval = 30s

# Maximum time for a single phpmd run
timeout = 60s

# trace, debug, info, warn or error
log-level = info
`

	return os.WriteFile(filename, []byte(content), 0644)
}
