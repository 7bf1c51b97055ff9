package config

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap/zapcore"

	"github.com/TFMV/coordgeom/pkg/geom"
)

// ValidationIssue represents a configuration validation issue
type ValidationIssue struct {
	Field      string             // The field with the issue
	Value      interface{}        // The current value
	Message    string             // Description of the issue
	Severity   ValidationSeverity // How severe the issue is
	Suggestion string             // Suggested fix
}

// ValidationSeverity indicates how severe a validation issue is
type ValidationSeverity int

const (
	// Error indicates a configuration that will not work
	Error ValidationSeverity = iota
	// Warning indicates a configuration that may cause problems
	Warning
	// Info indicates a configuration that could be improved
	Info
)

// String returns a string representation of the severity
func (s ValidationSeverity) String() string {
	switch s {
	case Error:
		return "ERROR"
	case Warning:
		return "WARNING"
	case Info:
		return "INFO"
	default:
		return "UNKNOWN"
	}
}

// Validate checks cfg and returns every issue found.
func Validate(cfg Config) []ValidationIssue {
	var issues []ValidationIssue

	if cfg.Server.Port <= 0 || cfg.Server.Port > 65535 {
		issues = append(issues, ValidationIssue{
			Field:      "server.port",
			Value:      cfg.Server.Port,
			Message:    "Port must be between 1 and 65535",
			Severity:   Error,
			Suggestion: "Set server.port to a free TCP port (8080 is the default)",
		})
	} else if cfg.Server.Port < 1024 {
		issues = append(issues, ValidationIssue{
			Field:      "server.port",
			Value:      cfg.Server.Port,
			Message:    "Port is privileged",
			Severity:   Warning,
			Suggestion: "Ports below 1024 usually require elevated privileges",
		})
	}

	if cfg.Server.Host == "" {
		issues = append(issues, ValidationIssue{
			Field:      "server.host",
			Value:      cfg.Server.Host,
			Message:    "Host is empty; the server will listen on all interfaces",
			Severity:   Info,
			Suggestion: "Set server.host to localhost to restrict access",
		})
	}

	timeouts := []struct {
		field string
		value time.Duration
	}{
		{"server.read_timeout", cfg.Server.ReadTimeout},
		{"server.write_timeout", cfg.Server.WriteTimeout},
		{"server.shutdown_timeout", cfg.Server.ShutdownTimeout},
	}
	for _, to := range timeouts {
		if to.value <= 0 {
			issues = append(issues, ValidationIssue{
				Field:      to.field,
				Value:      to.value,
				Message:    "Timeout must be positive",
				Severity:   Warning,
				Suggestion: "Use a duration such as 10s",
			})
		}
	}

	if cfg.Server.Prefork && cfg.Server.EnableMetrics {
		issues = append(issues, ValidationIssue{
			Field:      "server.prefork",
			Value:      cfg.Server.Prefork,
			Message:    "Metrics are collected per process when prefork is enabled",
			Severity:   Info,
			Suggestion: "Disable prefork if you need aggregated metrics from /metrics",
		})
	}

	if _, err := zapcore.ParseLevel(cfg.Log.Level); err != nil {
		issues = append(issues, ValidationIssue{
			Field:      "log.level",
			Value:      cfg.Log.Level,
			Message:    "Unknown log level",
			Severity:   Error,
			Suggestion: "Use one of debug, info, warn, error",
		})
	}

	if _, err := geom.ParseMetric(cfg.Geometry.DefaultMetric); err != nil {
		names := make([]string, 0, len(geom.Metrics()))
		for _, m := range geom.Metrics() {
			names = append(names, string(m))
		}
		issues = append(issues, ValidationIssue{
			Field:      "geometry.default_metric",
			Value:      cfg.Geometry.DefaultMetric,
			Message:    "Invalid distance metric",
			Severity:   Error,
			Suggestion: "Use one of " + strings.Join(names, ", "),
		})
	}

	if cfg.Geometry.Concurrency <= 0 {
		issues = append(issues, ValidationIssue{
			Field:      "geometry.concurrency",
			Value:      cfg.Geometry.Concurrency,
			Message:    "Concurrency must be greater than 0",
			Severity:   Warning,
			Suggestion: "Set geometry.concurrency to the number of CPUs (4 is the default)",
		})
	}

	return issues
}

// HasErrors reports whether any issue has Error severity.
func HasErrors(issues []ValidationIssue) bool {
	for _, issue := range issues {
		if issue.Severity == Error {
			return true
		}
	}
	return false
}

// FormatValidationIssues formats validation issues as a human-readable string
func FormatValidationIssues(issues []ValidationIssue) string {
	if len(issues) == 0 {
		return "Configuration is valid."
	}

	var errorCount, warningCount, infoCount int
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Found %d configuration issues:\n\n", len(issues)))

	for i, issue := range issues {
		switch issue.Severity {
		case Error:
			errorCount++
		case Warning:
			warningCount++
		case Info:
			infoCount++
		}

		sb.WriteString(fmt.Sprintf("%d. [%s] %s: %v\n", i+1, issue.Severity, issue.Field, issue.Message))
		sb.WriteString(fmt.Sprintf("   Current value: %v\n", issue.Value))
		sb.WriteString(fmt.Sprintf("   Suggestion: %s\n\n", issue.Suggestion))
	}

	sb.WriteString(fmt.Sprintf("Summary: %d errors, %d warnings, %d informational\n",
		errorCount, warningCount, infoCount))

	return sb.String()
}
