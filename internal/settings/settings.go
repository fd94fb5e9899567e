// Package settings implements the agent's durable configuration: a [Store] over any key/value backend,
// filling unset fields from [models.DefaultSettings] and merging partial saves over what is stored.
//
// No validation happens here. A malformed backend URL or playlist ID surfaces when a consumer uses it.
package settings

import (
	"context"
	"fmt"
	"sync"

	"github.com/desertthunder/tracklift/internal/models"
)

const (
	keyBackendBaseURL = "backendBaseUrl"
	keyPlaylistID     = "playlistId"
)

// KV is a durable key/value backend with asynchronous-looking get/set semantics.
type KV interface {
	Get(ctx context.Context, keys ...string) (map[string]string, error)
	Set(ctx context.Context, values map[string]string) error
}

// Store reads and writes [models.Settings].
type Store struct {
	kv KV
}

// NewStore creates a [Store] backed by kv.
func NewStore(kv KV) *Store {
	return &Store{kv: kv}
}

// Load returns the stored settings, falling back field-by-field to defaults.
func (s *Store) Load(ctx context.Context) (models.Settings, error) {
	settings := models.DefaultSettings()

	values, err := s.kv.Get(ctx, keyBackendBaseURL, keyPlaylistID)
	if err != nil {
		return settings, fmt.Errorf("failed to load settings: %w", err)
	}

	if v, ok := values[keyBackendBaseURL]; ok {
		settings.BackendBaseURL = v
	}
	if v, ok := values[keyPlaylistID]; ok {
		settings.PlaylistID = v
	}

	return settings, nil
}

// Save merges patch over the stored settings and returns the freshly loaded result.
func (s *Store) Save(ctx context.Context, patch models.SettingsPatch) (models.Settings, error) {
	values := map[string]string{}
	if patch.BackendBaseURL != nil {
		values[keyBackendBaseURL] = *patch.BackendBaseURL
	}
	if patch.PlaylistID != nil {
		values[keyPlaylistID] = *patch.PlaylistID
	}

	if len(values) > 0 {
		if err := s.kv.Set(ctx, values); err != nil {
			return models.Settings{}, fmt.Errorf("failed to save settings: %w", err)
		}
	}

	return s.Load(ctx)
}

// MemoryKV is a process-local [KV].
type MemoryKV struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryKV creates an empty [MemoryKV].
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{values: map[string]string{}}
}

func (m *MemoryKV) Get(_ context.Context, keys ...string) (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := m.values[k]; ok {
			out[k] = v
		}
	}
	return out, nil
}

func (m *MemoryKV) Set(_ context.Context, values map[string]string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for k, v := range values {
		m.values[k] = v
	}
	return nil
}
