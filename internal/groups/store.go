// Package groups tracks which group chats the bot belongs to, backed
// by a JSON file that survives restarts.
package groups

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"sync"
	"time"
)

// Event types recorded on group entries.
const (
	EventBotAdded        = "bot_added"
	EventMessageReceived = "message_received"
	EventStartupScan     = "startup_scan"
)

// Group statuses.
const (
	StatusActive  = "active"
	StatusRemoved = "removed"
)

// UntitledGroup is substituted when Telegram reports no chat title.
const UntitledGroup = "Без названия"

// Group is one tracked group chat.
type Group struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Type          string `json:"type"`
	FirstDetected string `json:"first_detected"`
	LastActivity  string `json:"last_activity"`
	EventType     string `json:"event_type"`
	Status        string `json:"status"`
	RemovedAt     string `json:"removed_at,omitempty"`
}

type fileFormat struct {
	Groups      map[string]Group `json:"groups"`
	LastUpdated string           `json:"last_updated"`
}

// Store keeps the known groups in memory and persists the whole set to
// a JSON file on every mutation.
type Store struct {
	mu     sync.Mutex
	path   string
	groups map[string]Group
	log    *slog.Logger
	now    func() time.Time
}

// NewStore loads the groups file if it exists and returns a ready
// store. A missing file starts an empty set.
func NewStore(path string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	s := &Store{
		path:   path,
		groups: map[string]Group{},
		log:    log.With("component", "groups_store"),
		now:    time.Now,
	}

	raw, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		s.log.Info("Groups file not found, starting empty", "path", path)
		return s, nil
	case err != nil:
		return nil, fmt.Errorf("failed to read groups file %s: %w", path, err)
	}

	var data fileFormat
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("failed to parse groups file %s: %w", path, err)
	}
	if data.Groups != nil {
		s.groups = data.Groups
	}

	s.log.Info("Loaded groups file", "path", path, "groups", len(s.groups))
	return s, nil
}

// Record registers activity in a group. First sightings get a
// first_detected timestamp; repeated sightings refresh last_activity
// and reactivate removed groups. It returns true when the group is new.
func (s *Store) Record(id int64, title, chatType, eventType string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if title == "" {
		title = UntitledGroup
	}

	key := fmt.Sprintf("%d", id)
	now := s.now().UTC().Format(time.RFC3339)

	existing, known := s.groups[key]
	group := Group{
		ID:            id,
		Title:         title,
		Type:          chatType,
		FirstDetected: now,
		LastActivity:  now,
		EventType:     eventType,
		Status:        StatusActive,
	}
	if known {
		group.FirstDetected = existing.FirstDetected
	}
	s.groups[key] = group

	if err := s.persist(); err != nil {
		return false, err
	}

	if !known {
		s.log.Info("New group detected", "chat_id", id, "title", title, "event", eventType)
	}
	return !known, nil
}

// MarkRemoved flags a group as left or kicked. Unknown groups are
// recorded directly in the removed state.
func (s *Store) MarkRemoved(id int64, title, chatType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if title == "" {
		title = UntitledGroup
	}

	key := fmt.Sprintf("%d", id)
	now := s.now().UTC().Format(time.RFC3339)

	group, known := s.groups[key]
	if !known {
		group = Group{
			ID:            id,
			Title:         title,
			Type:          chatType,
			FirstDetected: now,
		}
	}
	group.Title = title
	group.LastActivity = now
	group.Status = StatusRemoved
	group.RemovedAt = now
	s.groups[key] = group

	if err := s.persist(); err != nil {
		return err
	}

	s.log.Info("Group removed", "chat_id", id, "title", title)
	return nil
}

// Active returns the active groups sorted by chat ID.
func (s *Store) Active() []Group {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []Group
	for _, g := range s.groups {
		if g.Status == StatusActive {
			out = append(out, g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Get returns a tracked group by chat ID.
func (s *Store) Get(id int64) (Group, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	g, ok := s.groups[fmt.Sprintf("%d", id)]
	return g, ok
}

// persist writes the whole set to disk. Callers hold the mutex.
func (s *Store) persist() error {
	data := fileFormat{
		Groups:      s.groups,
		LastUpdated: s.now().UTC().Format(time.RFC3339),
	}
	raw, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode groups: %w", err)
	}
	if err := os.WriteFile(s.path, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write groups file %s: %w", s.path, err)
	}
	return nil
}
