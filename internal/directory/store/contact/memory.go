// Package contact persists the Contact aggregate: the contact row and
// the phone/skype rows it owns. Owned rows live and die with their
// contact; saving a contact replaces its owned rows wholesale.
package contact

import (
	"context"
	"sort"
	"strings"
	"sync"

	"switchboard/internal/directory/models"
	id "switchboard/pkg/domain"
	"switchboard/pkg/platform/sentinel"
)

// InMemory is a mutex-guarded map store.
type InMemory struct {
	mu   sync.RWMutex
	byID map[id.ContactID]models.Contact
}

// NewInMemory creates an empty in-memory contact store.
func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[id.ContactID]models.Contact)}
}

// Create inserts a contact with its owned rows.
func (s *InMemory) Create(_ context.Context, contact *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[contact.ID] = cloneContact(contact)
	return nil
}

// Update replaces the contact row and its owned rows.
func (s *InMemory) Update(_ context.Context, contact *models.Contact) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[contact.ID]; !ok {
		return sentinel.ErrNotFound
	}
	s.byID[contact.ID] = cloneContact(contact)
	return nil
}

// FindByID returns the contact or sentinel.ErrNotFound.
func (s *InMemory) FindByID(_ context.Context, contactID id.ContactID) (*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	contact, ok := s.byID[contactID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	c := cloneContact(&contact)
	return &c, nil
}

// Delete removes the contact and, with it, its owned rows.
func (s *InMemory) Delete(_ context.Context, contactID id.ContactID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[contactID]; !ok {
		return sentinel.ErrNotFound
	}
	delete(s.byID, contactID)
	return nil
}

// FindByRawNumber returns the distinct contacts owning a phone number
// whose canonical value equals raw, sorted by creation time so lookup
// aggregation is deterministic.
func (s *InMemory) FindByRawNumber(_ context.Context, raw string) ([]*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Contact
	for _, contact := range s.byID {
		for _, phone := range contact.PhoneNumbers {
			if phone.RawNumber == raw {
				c := cloneContact(&contact)
				out = append(out, &c)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// FindPhoneNumber resolves a phone number row by its own id.
func (s *InMemory) FindPhoneNumber(_ context.Context, phoneID id.PhoneNumberID) (*models.PhoneNumber, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, contact := range s.byID {
		for _, phone := range contact.PhoneNumbers {
			if phone.ID == phoneID {
				p := phone
				return &p, nil
			}
		}
	}
	return nil, sentinel.ErrNotFound
}

// SearchByName returns contacts whose name contains text,
// case-insensitively, sorted by name.
func (s *InMemory) SearchByName(_ context.Context, text string) ([]*models.Contact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lowered := strings.ToLower(text)
	var out []*models.Contact
	for _, contact := range s.byID {
		if strings.Contains(strings.ToLower(contact.Name), lowered) {
			c := cloneContact(&contact)
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// CountByCompany returns how many contacts reference the company.
// Zero means the company is an orphan.
func (s *InMemory) CountByCompany(_ context.Context, companyID id.CompanyID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, contact := range s.byID {
		if contact.CompanyID != nil && *contact.CompanyID == companyID {
			count++
		}
	}
	return count, nil
}

func cloneContact(contact *models.Contact) models.Contact {
	c := *contact
	c.PhoneNumbers = append([]models.PhoneNumber{}, contact.PhoneNumbers...)
	c.SkypeContacts = append([]models.SkypeContact{}, contact.SkypeContacts...)
	if contact.CompanyID != nil {
		companyID := *contact.CompanyID
		c.CompanyID = &companyID
	}
	return c
}
