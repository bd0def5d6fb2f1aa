// Package company persists Company rows. The in-memory store backs
// unit tests and development; the Postgres store is the production
// implementation.
package company

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
	byID map[id.CompanyID]models.Company
}

// NewInMemory creates an empty in-memory company store.
func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[id.CompanyID]models.Company)}
}

// Create inserts a company, enforcing name uniqueness. Name matching
// is exact and case-sensitive.
func (s *InMemory) Create(_ context.Context, company *models.Company) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.byID {
		if existing.Name == company.Name {
			return sentinel.ErrDuplicateName
		}
	}
	s.byID[company.ID] = *company
	return nil
}

// FindByID returns the company or sentinel.ErrNotFound.
func (s *InMemory) FindByID(_ context.Context, companyID id.CompanyID) (*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	company, ok := s.byID[companyID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &company, nil
}

// FindByName returns the company whose name matches text exactly
// (case-sensitive), or sentinel.ErrNotFound.
func (s *InMemory) FindByName(_ context.Context, name string) (*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, company := range s.byID {
		if company.Name == name {
			return &company, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

// Delete removes the company. Deleting an absent row is not an error:
// orphan cleanup may race with another save that already removed it.
func (s *InMemory) Delete(_ context.Context, companyID id.CompanyID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, companyID)
	return nil
}

// SearchByPrefix returns companies whose name starts with prefix,
// case-insensitively, sorted by name. Feeds the autocomplete field.
func (s *InMemory) SearchByPrefix(_ context.Context, prefix string) ([]*models.Company, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	lowered := strings.ToLower(prefix)
	var out []*models.Company
	for _, company := range s.byID {
		if strings.HasPrefix(strings.ToLower(company.Name), lowered) {
			c := company
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
