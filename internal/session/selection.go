package session

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/stepwork/stepbot/internal/category"
)

const (
	chatCategoryMapKey = "chat_category_map"
	userCategoryMapKey = "user_category_map"
	defaultCategoryKey = "default_category_id"

	maxSelectionEntries = 1000

	// Chat-scoped selections only accept category ids in this range;
	// anything else is dropped on insert.
	minChatCategoryID = 1
	maxChatCategoryID = 1_000_000
)

type selectionEntry struct {
	Key   int64 `json:"k"`
	Value int64 `json:"v"`
}

// selectionMap is an ordered, bounded key-value list persisted as JSON in
// the settings store. Insertion order doubles as age: when the map is full
// the oldest entry is evicted.
type selectionMap []selectionEntry

func (sm selectionMap) get(key int64) (int64, bool) {
	for _, e := range sm {
		if e.Key == key {
			return e.Value, true
		}
	}
	return 0, false
}

func (sm selectionMap) put(key, value int64) selectionMap {
	for i, e := range sm {
		if e.Key == key {
			sm[i].Value = value
			return sm
		}
	}
	sm = append(sm, selectionEntry{Key: key, Value: value})
	if len(sm) > maxSelectionEntries {
		sm = sm[len(sm)-maxSelectionEntries:]
	}
	return sm
}

func (m *Manager) loadSelectionMap(ctx context.Context, key string) (selectionMap, error) {
	raw, err := m.store.GetSetting(ctx, key)
	if err != nil {
		return nil, err
	}
	if raw == "" {
		return nil, nil
	}

	var sm selectionMap
	if err := json.Unmarshal([]byte(raw), &sm); err != nil {
		m.logger.Warn("Corrupted selection map, resetting", "key", key, "error", err)
		return nil, nil
	}
	return sm, nil
}

func (m *Manager) saveSelectionMap(ctx context.Context, key string, sm selectionMap) error {
	data, err := json.Marshal(sm)
	if err != nil {
		return fmt.Errorf("failed to encode selection map %q: %w", key, err)
	}
	return m.store.SetSetting(ctx, key, string(data))
}

// SelectCategory persists a leaf selection into both the user-scoped and
// chat-scoped maps. Stale out-of-range chat entries are filtered out before
// the new entry is inserted.
func (m *Manager) SelectCategory(ctx context.Context, chatID, tgUserID, categoryID int64) error {
	userMap, err := m.loadSelectionMap(ctx, userCategoryMapKey)
	if err != nil {
		return err
	}
	userMap = userMap.put(tgUserID, categoryID)
	if err := m.saveSelectionMap(ctx, userCategoryMapKey, userMap); err != nil {
		return err
	}

	chatMap, err := m.loadSelectionMap(ctx, chatCategoryMapKey)
	if err != nil {
		return err
	}
	filtered := chatMap[:0]
	for _, e := range chatMap {
		if e.Value >= minChatCategoryID && e.Value < maxChatCategoryID {
			filtered = append(filtered, e)
		}
	}
	filtered = filtered.put(chatID, categoryID)
	return m.saveSelectionMap(ctx, chatCategoryMapKey, filtered)
}

// ResolveCategory returns the active category for (chat, user): the
// user-scoped selection wins over the chat-scoped one, then the process-wide
// default. A selection that no longer resolves in the tree is treated as
// absent. Returns 0 when nothing resolves.
func (m *Manager) ResolveCategory(ctx context.Context, tree *category.Tree, chatID, tgUserID, configuredDefault int64) (int64, error) {
	userMap, err := m.loadSelectionMap(ctx, userCategoryMapKey)
	if err != nil {
		return 0, err
	}
	if id, ok := userMap.get(tgUserID); ok && tree.Get(id) != nil {
		return id, nil
	}

	chatMap, err := m.loadSelectionMap(ctx, chatCategoryMapKey)
	if err != nil {
		return 0, err
	}
	if id, ok := chatMap.get(chatID); ok && tree.Get(id) != nil {
		return id, nil
	}

	if raw, err := m.store.GetSetting(ctx, defaultCategoryKey); err != nil {
		return 0, err
	} else if raw != "" {
		if id, parseErr := strconv.ParseInt(raw, 10, 64); parseErr == nil && tree.Get(id) != nil {
			return id, nil
		}
	}

	if configuredDefault != 0 && tree.Get(configuredDefault) != nil {
		return configuredDefault, nil
	}
	return 0, nil
}
