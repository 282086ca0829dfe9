// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/morganforge/ripple/internal/model"
)

// Persistence keys: one per session body, one for the index.
const (
	sessionKeyPrefix = "ripple:session:"
	indexKey         = "ripple:sessions"
)

// ErrSessionNotFound is returned when a session does not exist, or exists
// but cannot be decoded. A malformed record is deliberately treated as
// absence so callers fall back to a fresh session instead of failing.
var ErrSessionNotFound = errors.New("session not found")

// =============================================================================
// CONVERSATION STORE
// =============================================================================

// ConversationStore persists sessions in a KV: the full record under a key
// derived from the session id, and a denormalized recency index under a
// single index key. Record and index are written in sequence; each write
// is one atomic put, so a failure partway never corrupts what was already
// stored. The index never lists a session whose body was not at least
// attempted first.
type ConversationStore struct {
	kv KV

	// MaxSessions bounds the index; oldest entries (and their bodies)
	// are evicted on Save when the bound is exceeded. Zero means
	// unlimited.
	MaxSessions int
}

// NewConversationStore creates a store over the given KV.
func NewConversationStore(kv KV) *ConversationStore {
	return &ConversationStore{kv: kv}
}

// =============================================================================
// SAVE
// =============================================================================

// Save persists the session body, then upserts its index entry. The
// returned error is advisory: prior persisted state is intact whenever it
// is non-nil, and callers are expected to log it and carry on in memory.
func (s *ConversationStore) Save(sess *model.Session) error {
	record := model.Session{
		ID:          sess.ID,
		Messages:    sess.Messages,
		LastUpdated: time.Now(),
	}

	data, err := json.Marshal(&record)
	if err != nil {
		return fmt.Errorf("failed to marshal session %d: %w", sess.ID, err)
	}
	if err := s.kv.Set(sessionKey(sess.ID), string(data)); err != nil {
		return fmt.Errorf("failed to persist session %d: %w", sess.ID, err)
	}

	index := s.loadIndex()
	index = upsert(index, model.SessionMeta{
		ID:        sess.ID,
		Preview:   sess.Preview(),
		UpdatedAt: record.LastUpdated,
	})

	if s.MaxSessions > 0 && len(index) > s.MaxSessions {
		for _, evicted := range index[s.MaxSessions:] {
			s.kv.Delete(sessionKey(evicted.ID))
		}
		index = index[:s.MaxSessions]
	}

	if err := s.saveIndex(index); err != nil {
		return fmt.Errorf("failed to update session index: %w", err)
	}
	return nil
}

// =============================================================================
// LOAD
// =============================================================================

// Load retrieves a session by id. Missing and malformed records both
// yield ErrSessionNotFound.
func (s *ConversationStore) Load(id int64) (*model.Session, error) {
	raw, ok, err := s.kv.Get(sessionKey(id))
	if err != nil {
		return nil, fmt.Errorf("failed to read session %d: %w", id, err)
	}
	if !ok {
		return nil, ErrSessionNotFound
	}

	var sess model.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("%w: malformed record for %d", ErrSessionNotFound, id)
	}
	return &sess, nil
}

// MostRecent returns the index entry with the newest timestamp, or
// ErrSessionNotFound when the index is empty or absent.
func (s *ConversationStore) MostRecent() (model.SessionMeta, error) {
	index := s.loadIndex()
	if len(index) == 0 {
		return model.SessionMeta{}, ErrSessionNotFound
	}
	return index[0], nil
}

// List returns all index entries, most recent first.
func (s *ConversationStore) List() []model.SessionMeta {
	return s.loadIndex()
}

// =============================================================================
// DELETE
// =============================================================================

// Delete removes a session body and its index entry.
func (s *ConversationStore) Delete(id int64) error {
	if err := s.kv.Delete(sessionKey(id)); err != nil {
		return fmt.Errorf("failed to delete session %d: %w", id, err)
	}

	index := s.loadIndex()
	kept := index[:0]
	for _, meta := range index {
		if meta.ID != id {
			kept = append(kept, meta)
		}
	}
	return s.saveIndex(kept)
}

// =============================================================================
// INDEX HELPERS
// =============================================================================

// loadIndex reads the index, tolerating absence and corruption: either
// yields an empty index, which the next Save rebuilds from scratch.
func (s *ConversationStore) loadIndex() []model.SessionMeta {
	raw, ok, err := s.kv.Get(indexKey)
	if err != nil || !ok {
		return nil
	}

	var index []model.SessionMeta
	if err := json.Unmarshal([]byte(raw), &index); err != nil {
		return nil
	}

	sort.Slice(index, func(i, j int) bool {
		return index[i].UpdatedAt.After(index[j].UpdatedAt)
	})
	return index
}

func (s *ConversationStore) saveIndex(index []model.SessionMeta) error {
	data, err := json.Marshal(index)
	if err != nil {
		return err
	}
	return s.kv.Set(indexKey, string(data))
}

// upsert replaces the entry for meta.ID or inserts it, keeping the index
// sorted most recent first.
func upsert(index []model.SessionMeta, meta model.SessionMeta) []model.SessionMeta {
	kept := index[:0]
	for _, m := range index {
		if m.ID != meta.ID {
			kept = append(kept, m)
		}
	}
	kept = append(kept, meta)
	sort.Slice(kept, func(i, j int) bool {
		return kept[i].UpdatedAt.After(kept[j].UpdatedAt)
	})
	return kept
}

func sessionKey(id int64) string {
	return sessionKeyPrefix + strconv.FormatInt(id, 10)
}
