// Package service orchestrates the contact directory: saving contacts
// with company and tag reconciliation, caller-ID lookups for the PBX
// and the searches behind the edit form's typeahead fields.
package service

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"switchboard/internal/directory/cache"
	"switchboard/internal/directory/metrics"
	"switchboard/internal/directory/models"
	id "switchboard/pkg/domain"
	dErrors "switchboard/pkg/domainerrors"
	"switchboard/pkg/platform/audit"
	"switchboard/pkg/platform/sentinel"
)

// ContactStore persists the contact aggregate with its owned phone and
// skype rows.
type ContactStore interface {
	Create(ctx context.Context, contact *models.Contact) error
	Update(ctx context.Context, contact *models.Contact) error
	FindByID(ctx context.Context, contactID id.ContactID) (*models.Contact, error)
	Delete(ctx context.Context, contactID id.ContactID) error
	FindByRawNumber(ctx context.Context, raw string) ([]*models.Contact, error)
	FindPhoneNumber(ctx context.Context, phoneID id.PhoneNumberID) (*models.PhoneNumber, error)
	SearchByName(ctx context.Context, text string) ([]*models.Contact, error)
	CountByCompany(ctx context.Context, companyID id.CompanyID) (int, error)
}

// CompanyStore persists companies shared by reference.
type CompanyStore interface {
	Create(ctx context.Context, company *models.Company) error
	FindByID(ctx context.Context, companyID id.CompanyID) (*models.Company, error)
	FindByName(ctx context.Context, name string) (*models.Company, error)
	Delete(ctx context.Context, companyID id.CompanyID) error
	SearchByPrefix(ctx context.Context, prefix string) ([]*models.Company, error)
}

// TagStore persists tags and their contact attachments.
type TagStore interface {
	Create(ctx context.Context, tag *models.Tag) error
	FindByID(ctx context.Context, tagID id.TagID) (*models.Tag, error)
	FindByName(ctx context.Context, name string) (*models.Tag, error)
	Delete(ctx context.Context, tagID id.TagID) error
	Attach(ctx context.Context, contactID id.ContactID, tagID id.TagID) error
	Detach(ctx context.Context, contactID id.ContactID, tagID id.TagID) error
	ListByContact(ctx context.Context, contactID id.ContactID) ([]*models.Tag, error)
	ContactCount(ctx context.Context, tagID id.TagID) (int, error)
	SearchByPrefix(ctx context.Context, prefix string) ([]*models.Tag, error)
}

// ContactView is a contact with its shared references resolved for
// display. Tags keep attachment order.
type ContactView struct {
	Contact *models.Contact
	Company *models.Company
	Tags    []*models.Tag
}

// Service orchestrates directory operations.
type Service struct {
	contacts  ContactStore
	companies CompanyStore
	tags      TagStore
	tx        StoreTx

	logger  *slog.Logger
	metrics *metrics.Metrics
	auditor audit.Publisher
	lookups *cache.Lookup
	tracer  trace.Tracer
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) {
		s.auditor = publisher
	}
}

// WithLookupCache installs the Redis read-through cache for caller-ID
// lookups.
func WithLookupCache(c *cache.Lookup) Option {
	return func(s *Service) {
		s.lookups = c
	}
}

// New constructs a Service. The zero options give a silent service on
// the provided stores with an in-memory transaction boundary.
func New(contacts ContactStore, companies CompanyStore, tags TagStore, tx StoreTx, opts ...Option) *Service {
	s := &Service{
		contacts:  contacts,
		companies: companies,
		tags:      tags,
		tx:        tx,
		logger:    slog.Default(),
		tracer:    otel.Tracer("switchboard/internal/directory"),
	}
	if s.tx == nil {
		s.tx = NewMemoryTx()
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetContact loads a contact with its company and tags resolved.
func (s *Service) GetContact(ctx context.Context, contactID id.ContactID) (*ContactView, error) {
	contact, err := s.contacts.FindByID(ctx, contactID)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.New(dErrors.CodeNotFound, "contact not found")
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contact")
	}
	return s.buildView(ctx, contact)
}

// SearchContacts returns contacts whose name contains the text, with
// references resolved for list rendering.
func (s *Service) SearchContacts(ctx context.Context, text string) ([]*ContactView, error) {
	contacts, err := s.contacts.SearchByName(ctx, text)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search contacts")
	}
	views := make([]*ContactView, 0, len(contacts))
	for _, contact := range contacts {
		view, err := s.buildView(ctx, contact)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// CompanySearch returns companies whose name starts with the prefix,
// for the company field's typeahead.
func (s *Service) CompanySearch(ctx context.Context, prefix string) ([]*models.Company, error) {
	companies, err := s.companies.SearchByPrefix(ctx, prefix)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search companies")
	}
	return companies, nil
}

// TagSearch returns tags whose name starts with the prefix.
func (s *Service) TagSearch(ctx context.Context, prefix string) ([]*models.Tag, error) {
	tags, err := s.tags.SearchByPrefix(ctx, prefix)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to search tags")
	}
	return tags, nil
}

func (s *Service) buildView(ctx context.Context, contact *models.Contact) (*ContactView, error) {
	view := &ContactView{Contact: contact}

	if contact.CompanyID != nil {
		company, err := s.companies.FindByID(ctx, *contact.CompanyID)
		if err != nil && !errors.Is(err, sentinel.ErrNotFound) {
			return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load company")
		}
		view.Company = company
	}

	tags, err := s.tags.ListByContact(ctx, contact.ID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tags")
	}
	view.Tags = tags
	return view, nil
}

func (s *Service) emitAudit(ctx context.Context, event audit.Event) {
	if s.auditor == nil {
		return
	}
	if err := s.auditor.Emit(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "audit emit failed", "action", string(event.Action), "error", err)
	}
}
