package degradation

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultNotificationCap bounds how many notifications are kept per process.
const DefaultNotificationCap = 50

// Notification is one user-visible advisory. Title and Message are rendered
// from the catalog at read time so each caller gets its own language.
type Notification struct {
	ID               string        `json:"id"`
	Key              MessageKey    `json:"type"`
	Priority         Priority      `json:"priority"`
	Title            string        `json:"title"`
	Message          string        `json:"message"`
	Dismissible      bool          `json:"dismissible"`
	AutoDismiss      bool          `json:"auto_dismiss"`
	AutoDismissAfter time.Duration `json:"auto_dismiss_after,omitempty"`
	ResolutionSteps  []string      `json:"resolution_steps,omitempty"`
	CreatedAt        time.Time     `json:"created_at"`
	ExpiresAt        time.Time     `json:"expires_at,omitzero"`
}

type storedNotification struct {
	id        string
	key       MessageKey
	createdAt time.Time
	expiresAt time.Time
	dismissed bool
}

// Center holds the capped, process-scoped notification list.
type Center struct {
	mu    sync.Mutex
	cap   int
	items []storedNotification
	now   func() time.Time
}

// NewCenter creates a notification center retaining at most cap entries.
// A non-positive cap uses DefaultNotificationCap.
func NewCenter(capacity int) *Center {
	if capacity <= 0 {
		capacity = DefaultNotificationCap
	}
	return &Center{
		cap: capacity,
		now: time.Now,
	}
}

// Push creates a notification for the scenario and returns its id. When the
// list is full the oldest entry is evicted.
func (c *Center) Push(key MessageKey) string {
	tmpl, ok := Lookup(key, LangEnglish)
	if !ok {
		return ""
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	item := storedNotification{
		id:        uuid.New().String(),
		key:       key,
		createdAt: now,
	}
	if tmpl.AutoDismissAfter > 0 {
		item.expiresAt = now.Add(tmpl.AutoDismissAfter)
	}

	c.items = append(c.items, item)
	if len(c.items) > c.cap {
		c.items = c.items[len(c.items)-c.cap:]
	}
	return item.id
}

// Dismiss marks the notification with the given id dismissed. It reports
// whether the id was found among non-dismissed, dismissible entries.
func (c *Center) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].id != id || c.items[i].dismissed {
			continue
		}
		if tmpl, ok := Lookup(c.items[i].key, LangEnglish); ok && !tmpl.Dismissible {
			return false
		}
		c.items[i].dismissed = true
		return true
	}
	return false
}

// Active renders the non-dismissed, non-expired notifications in the given
// language, sorted by priority (urgent first) then creation time.
func (c *Center) Active(lang Language) []Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	out := make([]Notification, 0, len(c.items))
	for _, item := range c.items {
		if item.dismissed {
			continue
		}
		if !item.expiresAt.IsZero() && now.After(item.expiresAt) {
			continue
		}
		tmpl, ok := Lookup(item.key, lang)
		if !ok {
			continue
		}
		out = append(out, Notification{
			ID:               item.id,
			Key:              item.key,
			Priority:         tmpl.Priority,
			Title:            tmpl.Title,
			Message:          tmpl.Body,
			Dismissible:      tmpl.Dismissible,
			AutoDismiss:      tmpl.AutoDismissAfter > 0,
			AutoDismissAfter: tmpl.AutoDismissAfter,
			ResolutionSteps:  tmpl.ResolutionSteps,
			CreatedAt:        item.createdAt,
			ExpiresAt:        item.expiresAt,
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Priority.rank() != out[j].Priority.rank() {
			return out[i].Priority.rank() > out[j].Priority.rank()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Len returns the number of retained (including dismissed) notifications.
func (c *Center) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}
