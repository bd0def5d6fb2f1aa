// Package tag persists Tag rows and the explicit contact-tag join
// rows. Attachment order is part of the contract: ListByContact
// returns tags in the order they were attached.
package tag

import (
	"context"
	"sort"
	"strings"
	"sync"

	"switchboard/internal/directory/models"
	id "switchboard/pkg/domain"
	"switchboard/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded map store with ordered join rows.
type InMemory struct {
	mu        sync.RWMutex
	byID      map[id.TagID]models.Tag
	byContact map[id.ContactID][]id.TagID
}

// NewInMemory creates an empty in-memory tag store.
func NewInMemory() *InMemory {
	return &InMemory{
		byID:      make(map[id.TagID]models.Tag),
		byContact: make(map[id.ContactID][]id.TagID),
	}
}

// Create inserts a tag, enforcing name uniqueness.
func (s *InMemory) Create(_ context.Context, tag *models.Tag) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Name == tag.Name {
			return sentinel.ErrDuplicateName
		}
	}
	s.byID[tag.ID] = *tag
	return nil
}

// FindByID returns the tag or sentinel.ErrNotFound.
func (s *InMemory) FindByID(_ context.Context, tagID id.TagID) (*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tag, ok := s.byID[tagID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &tag, nil
}

// FindByName returns the tag with exactly that name, or sentinel.ErrNotFound.
func (s *InMemory) FindByName(_ context.Context, name string) (*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, tag := range s.byID {
		if tag.Name == name {
			return &tag, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// Delete removes the tag and any join rows still pointing at it.
func (s *InMemory) Delete(_ context.Context, tagID id.TagID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, tagID)
	for contactID, tagIDs := range s.byContact {
		s.byContact[contactID] = removeID(tagIDs, tagID)
	}
	return nil
}

// Attach appends a join row for (contactID, tagID). Attaching an
// already-attached tag is a no-op so reconciliation stays idempotent.
func (s *InMemory) Attach(_ context.Context, contactID id.ContactID, tagID id.TagID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[tagID]; !ok {
		return sentinel.ErrNotFound
	}
	for _, attached := range s.byContact[contactID] {
		if attached == tagID {
			return nil
		}
	}
	s.byContact[contactID] = append(s.byContact[contactID], tagID)
	return nil
}

// Detach removes the join row for (contactID, tagID) if present.
func (s *InMemory) Detach(_ context.Context, contactID id.ContactID, tagID id.TagID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byContact[contactID] = removeID(s.byContact[contactID], tagID)
	return nil
}

// ListByContact returns the contact's tags in attachment order.
func (s *InMemory) ListByContact(_ context.Context, contactID id.ContactID) ([]*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Tag
	for _, tagID := range s.byContact[contactID] {
		if tag, ok := s.byID[tagID]; ok {
			t := tag
			out = append(out, &t)
		}
	}
	return out, nil
}

// ContactCount returns how many contacts reference the tag. Zero means
// the tag is an orphan.
func (s *InMemory) ContactCount(_ context.Context, tagID id.TagID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, tagIDs := range s.byContact {
		for _, attached := range tagIDs {
			if attached == tagID {
				count++
			}
		}
	}
	return count, nil
}

// SearchByPrefix returns tags whose name starts with prefix,
// case-insensitively, sorted by name.
func (s *InMemory) SearchByPrefix(_ context.Context, prefix string) ([]*models.Tag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lowered := strings.ToLower(prefix)
	var out []*models.Tag
	for _, tag := range s.byID {
		if strings.HasPrefix(strings.ToLower(tag.Name), lowered) {
			t := tag
			out = append(out, &t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func removeID(tagIDs []id.TagID, tagID id.TagID) []id.TagID {
	out := tagIDs[:0]
	for _, existing := range tagIDs {
		if existing != tagID {
			out = append(out, existing)
		}
	}
	return out
}
