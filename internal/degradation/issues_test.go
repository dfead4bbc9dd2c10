package degradation_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relayline/relayline/internal/config"
	"github.com/relayline/relayline/internal/degradation"
)

const strongSecret = "0123456789abcdef0123456789abcdef" // 32 chars

func validConfig(t *testing.T) config.Config {
	t.Helper()
	return config.Config{
		Environment:  "development",
		SecretKey:    strongSecret,
		JWTSecretKey: strongSecret,
		SQLitePath:   filepath.Join(t.TempDir(), "app.db"),
	}
}

func issueTypes(issues []degradation.Issue) []string {
	types := make([]string, 0, len(issues))
	for _, issue := range issues {
		types = append(types, issue.Type)
	}
	return types
}

func TestValidateConfiguration_CleanConfig(t *testing.T) {
	issues := degradation.ValidateConfiguration(validConfig(t))
	assert.Empty(t, issues)
}

func TestValidateConfiguration_MissingSecretsAreCritical(t *testing.T) {
	cfg := validConfig(t)
	cfg.SecretKey = ""
	cfg.JWTSecretKey = ""

	issues := degradation.ValidateConfiguration(cfg)
	require.Len(t, issues, 2)
	for _, issue := range issues {
		assert.Equal(t, degradation.IssueMissingRequiredConfig, issue.Type)
		assert.Equal(t, degradation.SeverityCritical, issue.Severity)
		assert.NotEmpty(t, issue.ResolutionSteps)
	}
	assert.True(t, degradation.HasCritical(issues))
	assert.Equal(t, 2, degradation.CountCritical(issues))
}

func TestValidateConfiguration_ShortSecretIsHigh(t *testing.T) {
	cfg := validConfig(t)
	cfg.SecretKey = "tooshort"

	issues := degradation.ValidateConfiguration(cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, degradation.IssueWeakSecret, issues[0].Type)
	assert.Equal(t, degradation.SeverityHigh, issues[0].Severity)
	assert.False(t, degradation.HasCritical(issues))
}

func TestValidateConfiguration_InsecureDefaultInProduction(t *testing.T) {
	cfg := validConfig(t)
	cfg.Environment = "production"
	cfg.SecretKey = "change-me"

	issues := degradation.ValidateConfiguration(cfg)
	assert.Contains(t, issueTypes(issues), degradation.IssueInsecureDefault)
	assert.True(t, degradation.HasCritical(issues))
}

func TestValidateConfiguration_InsecureDefaultToleratedInDevelopment(t *testing.T) {
	cfg := validConfig(t)
	cfg.SecretKey = "change-me"

	issues := degradation.ValidateConfiguration(cfg)
	assert.NotContains(t, issueTypes(issues), degradation.IssueInsecureDefault)
	// It is still flagged as too short.
	assert.Contains(t, issueTypes(issues), degradation.IssueWeakSecret)
}

func TestValidateConfiguration_SchemaWithForcedSQLite(t *testing.T) {
	cfg := validConfig(t)
	cfg.DBSchema = "tenant_7"
	cfg.ForceSQLite = true

	issues := degradation.ValidateConfiguration(cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, degradation.IssueSchemaUnsupported, issues[0].Type)
	assert.Equal(t, degradation.SeverityMedium, issues[0].Severity)
	assert.ElementsMatch(t, []string{"DB_SCHEMA", "FORCE_SQLITE"}, issues[0].EnvironmentVariables)
}

func TestValidateConfiguration_RedisDependentsWithoutRedis(t *testing.T) {
	cfg := validConfig(t)
	cfg.RateLimitEnabled = true
	cfg.TaskQueueEnabled = true

	issues := degradation.ValidateConfiguration(cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, degradation.IssueMissingDependency, issues[0].Type)
	assert.Contains(t, issues[0].EnvironmentVariables, "REDIS_URL")
	assert.Contains(t, issues[0].EnvironmentVariables, "RATE_LIMIT_ENABLED")
	assert.Contains(t, issues[0].EnvironmentVariables, "TASK_QUEUE_ENABLED")
}

func TestValidateConfiguration_RedisDependentsWithRedis(t *testing.T) {
	cfg := validConfig(t)
	cfg.RateLimitEnabled = true
	cfg.RedisURL = "redis://localhost:6379/0"

	issues := degradation.ValidateConfiguration(cfg)
	assert.Empty(t, issues)
}

func TestValidateConfiguration_UnwritableSQLiteDirectory(t *testing.T) {
	// A regular file in the directory position makes MkdirAll fail on every
	// platform, root or not.
	blocker := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	cfg := validConfig(t)
	cfg.SQLitePath = filepath.Join(blocker, "app.db")

	issues := degradation.ValidateConfiguration(cfg)
	require.Len(t, issues, 1)
	assert.Equal(t, degradation.IssueUnwritableDirectory, issues[0].Type)
	assert.Equal(t, degradation.SeverityHigh, issues[0].Severity)
	assert.True(t, strings.Contains(issues[0].Message, "not writable"))
}

func TestValidateConfiguration_InMemorySQLiteSkipsDirCheck(t *testing.T) {
	cfg := validConfig(t)
	cfg.SQLitePath = ":memory:"

	issues := degradation.ValidateConfiguration(cfg)
	assert.Empty(t, issues)
}
