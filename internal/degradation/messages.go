package degradation

import "time"

// MessageKey identifies a notification scenario. End users only ever see
// the pre-approved catalog text for a key, never raw error detail.
type MessageKey string

// Notification scenarios.
const (
	MsgDatabaseFallback    MessageKey = "database_fallback"
	MsgDatabaseUnavailable MessageKey = "database_unavailable"
	MsgCacheFallback       MessageKey = "cache_fallback"
	MsgServiceRecovered    MessageKey = "service_recovered"
	MsgConfigurationIssue  MessageKey = "configuration_issue"
)

// Language selects a catalog translation.
type Language string

// Supported catalog languages.
const (
	LangEnglish Language = "en"
	LangDutch   Language = "nl"
)

// Template is the renderable content for one (key, language) pair.
type Template struct {
	Title            string
	Body             string
	Priority         Priority
	Dismissible      bool
	AutoDismissAfter time.Duration
	ResolutionSteps  []string
}

// catalog maps every scenario to its per-language templates. Lookups fall
// back to English for unknown languages.
var catalog = map[MessageKey]map[Language]Template{
	MsgDatabaseFallback: {
		LangEnglish: {
			Title:       "Running on local database",
			Body:        "The primary database is unreachable. Your data is being stored locally and will need to be migrated once the primary database is restored.",
			Priority:    PriorityHigh,
			Dismissible: true,
			ResolutionSteps: []string{
				"Check that the PostgreSQL server is running",
				"Verify DATABASE_URL or the DB_* connection settings",
				"Restart the application once the database is reachable",
			},
		},
		LangDutch: {
			Title:       "Draait op lokale database",
			Body:        "De primaire database is niet bereikbaar. Uw gegevens worden lokaal opgeslagen en moeten worden gemigreerd zodra de primaire database hersteld is.",
			Priority:    PriorityHigh,
			Dismissible: true,
			ResolutionSteps: []string{
				"Controleer of de PostgreSQL-server draait",
				"Controleer DATABASE_URL of de DB_* instellingen",
				"Herstart de applicatie zodra de database bereikbaar is",
			},
		},
	},
	MsgDatabaseUnavailable: {
		LangEnglish: {
			Title:       "Database unavailable",
			Body:        "No database backend is reachable. Data cannot be saved right now. Please try again later.",
			Priority:    PriorityUrgent,
			Dismissible: false,
			ResolutionSteps: []string{
				"Check database server connectivity",
				"Verify the data directory is writable for the SQLite fallback",
				"Contact support if the problem persists",
			},
		},
		LangDutch: {
			Title:       "Database niet beschikbaar",
			Body:        "Geen enkele database-backend is bereikbaar. Gegevens kunnen op dit moment niet worden opgeslagen. Probeer het later opnieuw.",
			Priority:    PriorityUrgent,
			Dismissible: false,
			ResolutionSteps: []string{
				"Controleer de verbinding met de databaseserver",
				"Controleer of de datamap schrijfbaar is voor de SQLite-fallback",
				"Neem contact op met support als het probleem aanhoudt",
			},
		},
	},
	MsgCacheFallback: {
		LangEnglish: {
			Title:            "Caching runs in memory",
			Body:             "Redis is unreachable, so caching and related features run in-process. Rate limiting, background jobs and shared sessions are disabled.",
			Priority:         PriorityMedium,
			Dismissible:      true,
			AutoDismissAfter: 30 * time.Second,
			ResolutionSteps: []string{
				"Check that the Redis server is running",
				"Verify REDIS_URL",
			},
		},
		LangDutch: {
			Title:            "Caching draait in het geheugen",
			Body:             "Redis is niet bereikbaar; caching en gerelateerde functies draaien in-process. Rate limiting, achtergrondtaken en gedeelde sessies zijn uitgeschakeld.",
			Priority:         PriorityMedium,
			Dismissible:      true,
			AutoDismissAfter: 30 * time.Second,
			ResolutionSteps: []string{
				"Controleer of de Redis-server draait",
				"Controleer REDIS_URL",
			},
		},
	},
	MsgServiceRecovered: {
		LangEnglish: {
			Title:            "Service recovered",
			Body:             "A previously degraded service is available again. Full functionality has been restored.",
			Priority:         PriorityLow,
			Dismissible:      true,
			AutoDismissAfter: 15 * time.Second,
		},
		LangDutch: {
			Title:            "Service hersteld",
			Body:             "Een eerder gedegradeerde service is weer beschikbaar. Volledige functionaliteit is hersteld.",
			Priority:         PriorityLow,
			Dismissible:      true,
			AutoDismissAfter: 15 * time.Second,
		},
	},
	MsgConfigurationIssue: {
		LangEnglish: {
			Title:       "Configuration needs attention",
			Body:        "One or more configuration problems were detected at startup. An administrator should review the status page.",
			Priority:    PriorityHigh,
			Dismissible: true,
			ResolutionSteps: []string{
				"Review the configuration issues on the admin status page",
				"Fix the listed environment variables and restart",
			},
		},
		LangDutch: {
			Title:       "Configuratie vereist aandacht",
			Body:        "Bij het opstarten zijn een of meer configuratieproblemen gedetecteerd. Een beheerder moet de statuspagina controleren.",
			Priority:    PriorityHigh,
			Dismissible: true,
			ResolutionSteps: []string{
				"Bekijk de configuratieproblemen op de beheerstatuspagina",
				"Corrigeer de genoemde omgevingsvariabelen en herstart",
			},
		},
	},
}

// Lookup returns the template for a scenario in the requested language,
// falling back to English when the language has no translation.
func Lookup(key MessageKey, lang Language) (Template, bool) {
	translations, ok := catalog[key]
	if !ok {
		return Template{}, false
	}
	if tmpl, ok := translations[lang]; ok {
		return tmpl, true
	}
	tmpl, ok := translations[LangEnglish]
	return tmpl, ok
}
