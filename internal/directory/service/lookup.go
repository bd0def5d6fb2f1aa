package service

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"switchboard/internal/directory/models"
	id "switchboard/pkg/domain"
	dErrors "switchboard/pkg/domainerrors"
	"switchboard/pkg/phonenumber"
	"switchboard/pkg/platform/audit"
	"switchboard/pkg/requestcontext"
)

// Lookup result strings are part of the PBX contract. The dialplan
// splices them into the caller display verbatim, so they never change
// shape.
const (
	lookupUnknown          = "Unknown"
	lookupDuplicatedNumber = "ERROR: duplicated number"
)

// CallerIDLookup resolves a phone number to a display string for the
// PBX. The number is canonicalized before matching; a missing or blank
// number resolves to "Unknown" without touching the store.
//
// One match yields "Name" or "Name - Company". Several matches yield
// the shared company's name when all of them belong to it, otherwise
// the duplicated-number sentinel.
func (s *Service) CallerIDLookup(ctx context.Context, number *string) (string, error) {
	ctx, span := s.tracer.Start(ctx, "directory.CallerIDLookup")
	defer span.End()
	start := time.Now()

	canonical := phonenumber.Canonicalize(number)
	if canonical == nil || *canonical == "" {
		s.countLookup(lookupUnknown, start)
		return lookupUnknown, nil
	}
	span.SetAttributes(attribute.String("lookup.number", *canonical))

	result, err := s.lookups.Resolve(ctx, *canonical, func(ctx context.Context) (string, error) {
		return s.resolveCallerID(ctx, *canonical)
	})
	if err != nil {
		return "", err
	}

	s.countLookup(result, start)
	user, _ := requestcontext.CurrentUser(ctx)
	s.emitAudit(ctx, audit.Event{
		Action:    audit.ActionCallerIDLookup,
		Timestamp: requestcontext.Now(ctx),
		UserID:    user.ID,
		Subject:   *canonical,
		Outcome:   "ok",
		RequestID: requestcontext.RequestID(ctx),
		Detail:    result,
	})
	return result, nil
}

func (s *Service) resolveCallerID(ctx context.Context, canonical string) (string, error) {
	contacts, err := s.contacts.FindByRawNumber(ctx, canonical)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to match phone number")
	}

	switch len(contacts) {
	case 0:
		return lookupUnknown, nil
	case 1:
		return s.displayName(ctx, contacts[0])
	}

	company, shared := sharedCompanyID(contacts)
	if !shared {
		return lookupDuplicatedNumber, nil
	}
	row, err := s.companies.FindByID(ctx, company)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load company")
	}
	return row.Name, nil
}

func (s *Service) displayName(ctx context.Context, contact *models.Contact) (string, error) {
	if contact.CompanyID == nil {
		return contact.Name, nil
	}
	company, err := s.companies.FindByID(ctx, *contact.CompanyID)
	if err != nil {
		return "", dErrors.Wrap(err, dErrors.CodeInternal, "failed to load company")
	}
	return contact.Name + " - " + company.Name, nil
}

// sharedCompanyID reports the single company every contact belongs to,
// if there is one. Contacts without a company never share.
func sharedCompanyID(contacts []*models.Contact) (id.CompanyID, bool) {
	first := contacts[0].CompanyID
	if first == nil {
		return id.CompanyID{}, false
	}
	for _, contact := range contacts[1:] {
		if contact.CompanyID == nil || *contact.CompanyID != *first {
			return id.CompanyID{}, false
		}
	}
	return *first, true
}

func (s *Service) countLookup(result string, start time.Time) {
	if s.metrics == nil {
		return
	}
	s.metrics.ObserveLookup(start)
	switch result {
	case lookupUnknown:
		s.metrics.LookupUnknown.Inc()
	case lookupDuplicatedNumber:
		s.metrics.LookupAmbiguous.Inc()
	default:
		s.metrics.LookupMatched.Inc()
	}
}
