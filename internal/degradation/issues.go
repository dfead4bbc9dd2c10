package degradation

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/relayline/relayline/internal/config"
)

// Issue types produced by startup validation. Severity is fixed per type.
const (
	IssueMissingRequiredConfig = "missing_required_config"
	IssueWeakSecret            = "weak_secret"
	IssueInsecureDefault       = "insecure_default"
	IssueSchemaUnsupported     = "schema_unsupported"
	IssueMissingDependency     = "missing_dependency"
	IssueUnwritableDirectory   = "unwritable_directory"
)

// minSecretLength is the minimum acceptable secret length in bytes.
const minSecretLength = 32

// insecureDefaults are placeholder secrets that must never reach production.
var insecureDefaults = map[string]struct{}{
	"secret":               {},
	"password":             {},
	"change-me":            {},
	"changeme":             {},
	"dev-secret":           {},
	"dev-secret-change-me": {},
}

// Issue is one configuration problem found at startup. Issues accumulate;
// they are not re-derived on later assessments.
type Issue struct {
	Type                 string    `json:"issue_type"`
	Severity             Severity  `json:"severity"`
	Message              string    `json:"message"`
	ServiceAffected      string    `json:"service_affected,omitempty"`
	ResolutionSteps      []string  `json:"resolution_steps,omitempty"`
	EnvironmentVariables []string  `json:"environment_variables,omitempty"`
	Timestamp            time.Time `json:"timestamp"`
}

// ValidateConfiguration inspects the configuration once at startup and
// returns every detected issue. Critical issues should halt startup in
// production; everything else is advisory.
func ValidateConfiguration(cfg config.Config) []Issue {
	now := time.Now()
	var issues []Issue

	issues = append(issues, validateSecret(cfg, "SECRET_KEY", cfg.SecretKey, now)...)
	issues = append(issues, validateSecret(cfg, "JWT_SECRET_KEY", cfg.JWTSecretKey, now)...)

	if cfg.DBSchema != "" && cfg.ForceSQLite {
		issues = append(issues, Issue{
			Type:            IssueSchemaUnsupported,
			Severity:        SeverityMedium,
			Message:         "DB_SCHEMA is set but SQLite is forced; SQLite does not support schemas",
			ServiceAffected: "database",
			ResolutionSteps: []string{
				"Unset DB_SCHEMA when using SQLite",
				"Or unset FORCE_SQLITE to use PostgreSQL",
			},
			EnvironmentVariables: []string{"DB_SCHEMA", "FORCE_SQLITE"},
			Timestamp:            now,
		})
	}

	if cfg.RedisURL == "" {
		var dependents []string
		if cfg.RateLimitEnabled {
			dependents = append(dependents, "RATE_LIMIT_ENABLED")
		}
		if cfg.TaskQueueEnabled {
			dependents = append(dependents, "TASK_QUEUE_ENABLED")
		}
		if len(dependents) > 0 {
			issues = append(issues, Issue{
				Type:            IssueMissingDependency,
				Severity:        SeverityMedium,
				Message:         "Redis-dependent features are enabled but REDIS_URL is not set",
				ServiceAffected: "redis",
				ResolutionSteps: []string{
					"Set REDIS_URL to a reachable Redis instance",
					"Or disable the dependent features",
				},
				EnvironmentVariables: append([]string{"REDIS_URL"}, dependents...),
				Timestamp:            now,
			})
		}
	}

	if cfg.SQLitePath != ":memory:" {
		if err := checkWritableDir(filepath.Dir(cfg.SQLitePath)); err != nil {
			issues = append(issues, Issue{
				Type:            IssueUnwritableDirectory,
				Severity:        SeverityHigh,
				Message:         fmt.Sprintf("SQLite data directory is not writable: %v", err),
				ServiceAffected: "sqlite",
				ResolutionSteps: []string{
					"Create the directory and grant write permission to the service user",
					"Or point SQLITE_DATABASE_URL at a writable location",
				},
				EnvironmentVariables: []string{"SQLITE_DATABASE_URL"},
				Timestamp:            now,
			})
		}
	}

	return issues
}

// validateSecret checks one secret variable for presence, length and known
// insecure placeholder values.
func validateSecret(cfg config.Config, name, value string, now time.Time) []Issue {
	if value == "" {
		return []Issue{{
			Type:     IssueMissingRequiredConfig,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("%s is not set", name),
			ResolutionSteps: []string{
				fmt.Sprintf("Generate a random value at least %d characters long", minSecretLength),
				fmt.Sprintf("Set %s in the environment and restart", name),
			},
			EnvironmentVariables: []string{name},
			Timestamp:            now,
		}}
	}

	var issues []Issue
	if _, insecure := insecureDefaults[value]; insecure && cfg.IsProduction() {
		issues = append(issues, Issue{
			Type:     IssueInsecureDefault,
			Severity: SeverityCritical,
			Message:  fmt.Sprintf("%s is set to a well-known placeholder value in production", name),
			ResolutionSteps: []string{
				fmt.Sprintf("Replace %s with a randomly generated secret", name),
			},
			EnvironmentVariables: []string{name},
			Timestamp:            now,
		})
	}
	if len(value) < minSecretLength {
		issues = append(issues, Issue{
			Type:     IssueWeakSecret,
			Severity: SeverityHigh,
			Message:  fmt.Sprintf("%s is shorter than %d characters", name, minSecretLength),
			ResolutionSteps: []string{
				fmt.Sprintf("Generate a longer random value for %s", name),
			},
			EnvironmentVariables: []string{name},
			Timestamp:            now,
		})
	}
	return issues
}

// checkWritableDir verifies the directory exists (creating it if needed)
// and accepts a temp file.
func checkWritableDir(dir string) error {
	if dir == "" || dir == "." {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".writecheck-*")
	if err != nil {
		return err
	}
	name := f.Name()
	_ = f.Close()
	return os.Remove(name)
}

// HasCritical reports whether any issue is critical severity.
func HasCritical(issues []Issue) bool {
	for _, issue := range issues {
		if issue.Severity == SeverityCritical {
			return true
		}
	}
	return false
}

// CountCritical returns the number of critical issues.
func CountCritical(issues []Issue) int {
	n := 0
	for _, issue := range issues {
		if issue.Severity == SeverityCritical {
			n++
		}
	}
	return n
}
