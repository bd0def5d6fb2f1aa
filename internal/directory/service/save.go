package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"switchboard/internal/directory/metrics"
	"switchboard/internal/directory/models"
	id "switchboard/pkg/domain"
	dErrors "switchboard/pkg/domainerrors"
	"switchboard/pkg/platform/audit"
	"switchboard/pkg/platform/sentinel"
	"switchboard/pkg/requestcontext"
)

// reconcileStats counts the shared-reference churn of one save so
// metrics can be bumped only after the transaction commits.
type reconcileStats struct {
	companiesCreated  int
	orphanedCompanies int
	tagsCreated       int
	orphanedTags      int
}

// SaveContact creates or updates a contact and reconciles its company
// and tags in one transactional pass. Companies and tags are found or
// created by exact name; references dropped by the save are deleted
// when no other contact holds them.
//
// A rejected save performs no store writes. The returned view still
// carries the contact as the caller shaped it, with tag and company
// names resolved read-only, so an edit form can re-render the refused
// state.
func (s *Service) SaveContact(ctx context.Context, cmd *SaveContactCommand) (*ContactView, error) {
	ctx, span := s.tracer.Start(ctx, "directory.SaveContact")
	defer span.End()
	start := time.Now()

	cmd.normalize()
	if err := validateCommand(cmd); err != nil {
		if s.metrics != nil {
			s.metrics.SavesRejected.Inc()
		}
		return s.rejectedView(ctx, cmd), err
	}

	var (
		view       *ContactView
		stats      reconcileStats
		oldNumbers []string
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		now := requestcontext.Now(ctx)

		var existing *models.Contact
		if cmd.ID != nil {
			found, err := s.contacts.FindByID(ctx, *cmd.ID)
			if err != nil {
				if errors.Is(err, sentinel.ErrNotFound) {
					return dErrors.New(dErrors.CodeNotFound, "contact not found")
				}
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contact")
			}
			existing = found
			for _, phone := range existing.PhoneNumbers {
				oldNumbers = append(oldNumbers, phone.RawNumber)
			}
		}

		company, err := s.resolveCompany(ctx, cmd.CompanySearchText, now, &stats)
		if err != nil {
			return err
		}

		contact := buildContact(cmd, existing, company, now)
		if existing == nil {
			if err := s.contacts.Create(ctx, contact); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create contact")
			}
		} else {
			if err := s.contacts.Update(ctx, contact); err != nil {
				return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update contact")
			}
		}

		if err := s.reconcileTags(ctx, contact.ID, cmd.desiredTagNames(), now, &stats); err != nil {
			return err
		}

		var prevCompanyID *id.CompanyID
		if existing != nil {
			prevCompanyID = existing.CompanyID
		}
		if err := s.cleanupCompany(ctx, prevCompanyID, contact.CompanyID, &stats); err != nil {
			return err
		}

		view, err = s.buildView(ctx, contact)
		return err
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.ContactsSaved.Inc()
		s.metrics.ObserveSave(start)
		addStats(s.metrics, stats)
	}

	numbers := oldNumbers
	for _, phone := range view.Contact.PhoneNumbers {
		numbers = append(numbers, phone.RawNumber)
	}
	s.lookups.Invalidate(ctx, numbers...)

	user, _ := requestcontext.CurrentUser(ctx)
	s.emitAudit(ctx, audit.Event{
		Action:    audit.ActionContactSaved,
		Timestamp: requestcontext.Now(ctx),
		UserID:    user.ID,
		Subject:   view.Contact.ID.String(),
		Outcome:   "ok",
		RequestID: requestcontext.RequestID(ctx),
	})
	s.auditOrphans(ctx, view.Contact.ID.String(), stats)
	s.logger.InfoContext(ctx, "contact saved",
		"contact_id", view.Contact.ID.String(),
		"tags_created", stats.tagsCreated,
		"tags_orphan_deleted", stats.orphanedTags,
	)
	return view, nil
}

// DeleteContact removes a contact with its owned rows and cleans up
// companies and tags that only this contact referenced.
func (s *Service) DeleteContact(ctx context.Context, contactID id.ContactID) error {
	ctx, span := s.tracer.Start(ctx, "directory.DeleteContact")
	defer span.End()

	var (
		stats   reconcileStats
		numbers []string
	)
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		contact, err := s.contacts.FindByID(ctx, contactID)
		if err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "contact not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load contact")
		}
		for _, phone := range contact.PhoneNumbers {
			numbers = append(numbers, phone.RawNumber)
		}

		attached, err := s.tags.ListByContact(ctx, contactID)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tags")
		}
		for _, tag := range attached {
			if err := s.detachAndReap(ctx, contactID, tag.ID, &stats); err != nil {
				return err
			}
		}

		if err := s.contacts.Delete(ctx, contactID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete contact")
		}
		return s.cleanupCompany(ctx, contact.CompanyID, nil, &stats)
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		addStats(s.metrics, stats)
	}
	s.lookups.Invalidate(ctx, numbers...)

	user, _ := requestcontext.CurrentUser(ctx)
	s.emitAudit(ctx, audit.Event{
		Action:    audit.ActionContactDeleted,
		Timestamp: requestcontext.Now(ctx),
		UserID:    user.ID,
		Subject:   contactID.String(),
		Outcome:   "ok",
		RequestID: requestcontext.RequestID(ctx),
	})
	s.auditOrphans(ctx, contactID.String(), stats)
	return nil
}

// RemoveTag detaches a single tag from a contact and deletes the tag
// if that contact was its last holder.
func (s *Service) RemoveTag(ctx context.Context, contactID id.ContactID, tagID id.TagID) error {
	var stats reconcileStats
	err := s.tx.RunInTx(ctx, func(ctx context.Context) error {
		if _, err := s.tags.FindByID(ctx, tagID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return dErrors.New(dErrors.CodeNotFound, "tag not found")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tag")
		}
		return s.detachAndReap(ctx, contactID, tagID, &stats)
	})
	if err != nil {
		return err
	}

	if s.metrics != nil {
		addStats(s.metrics, stats)
	}

	user, _ := requestcontext.CurrentUser(ctx)
	s.emitAudit(ctx, audit.Event{
		Action:    audit.ActionTagRemoved,
		Timestamp: requestcontext.Now(ctx),
		UserID:    user.ID,
		Subject:   tagID.String(),
		Outcome:   "ok",
		RequestID: requestcontext.RequestID(ctx),
	})
	s.auditOrphans(ctx, tagID.String(), stats)
	return nil
}

// auditOrphans records reaped shared references. Silence when the
// operation orphaned nothing.
func (s *Service) auditOrphans(ctx context.Context, subject string, stats reconcileStats) {
	if stats.orphanedTags == 0 && stats.orphanedCompanies == 0 {
		return
	}
	user, _ := requestcontext.CurrentUser(ctx)
	s.emitAudit(ctx, audit.Event{
		Action:    audit.ActionOrphanedCleanup,
		Timestamp: requestcontext.Now(ctx),
		UserID:    user.ID,
		Subject:   subject,
		Outcome:   "ok",
		RequestID: requestcontext.RequestID(ctx),
		Detail:    fmt.Sprintf("tags=%d companies=%d", stats.orphanedTags, stats.orphanedCompanies),
	})
}

// resolveCompany maps the company search text onto a company row:
// blank detaches, a known name reuses the row, an unknown name creates
// one.
func (s *Service) resolveCompany(ctx context.Context, searchText *string, now time.Time, stats *reconcileStats) (*models.Company, error) {
	if searchText == nil || *searchText == "" {
		return nil, nil
	}

	company, err := s.companies.FindByName(ctx, *searchText)
	if err == nil {
		return company, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up company")
	}

	company = &models.Company{ID: id.NewCompanyID(), Name: *searchText, CreatedAt: now}
	if err := s.companies.Create(ctx, company); err != nil {
		if errors.Is(err, sentinel.ErrDuplicateName) {
			// Lost a create race; the row exists now.
			return s.companies.FindByName(ctx, *searchText)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create company")
	}
	stats.companiesCreated++
	return company, nil
}

// reconcileTags makes the contact's attachments match the desired
// names in the desired order: missing tags are found or created,
// dropped ones are reaped when orphaned. Join rows are rewritten
// wholesale, so a save that only reorders the name list changes the
// stored attachment order too.
func (s *Service) reconcileTags(ctx context.Context, contactID id.ContactID, desired []string, now time.Time, stats *reconcileStats) error {
	current, err := s.tags.ListByContact(ctx, contactID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load tags")
	}

	resolved := make([]*models.Tag, 0, len(desired))
	wanted := make(map[id.TagID]struct{}, len(desired))
	for _, name := range desired {
		tag, err := s.resolveTag(ctx, name, now, stats)
		if err != nil {
			return err
		}
		resolved = append(resolved, tag)
		wanted[tag.ID] = struct{}{}
	}

	for _, tag := range current {
		if err := s.tags.Detach(ctx, contactID, tag.ID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to detach tag")
		}
	}
	for _, tag := range resolved {
		if err := s.tags.Attach(ctx, contactID, tag.ID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to attach tag")
		}
	}

	for _, tag := range current {
		if _, ok := wanted[tag.ID]; ok {
			continue
		}
		if err := s.reapIfOrphaned(ctx, tag.ID, stats); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) resolveTag(ctx context.Context, name string, now time.Time, stats *reconcileStats) (*models.Tag, error) {
	tag, err := s.tags.FindByName(ctx, name)
	if err == nil {
		return tag, nil
	}
	if !errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to look up tag")
	}

	tag = &models.Tag{ID: id.NewTagID(), Name: name, CreatedAt: now}
	if err := s.tags.Create(ctx, tag); err != nil {
		if errors.Is(err, sentinel.ErrDuplicateName) {
			return s.tags.FindByName(ctx, name)
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to create tag")
	}
	stats.tagsCreated++
	return tag, nil
}

func (s *Service) detachAndReap(ctx context.Context, contactID id.ContactID, tagID id.TagID, stats *reconcileStats) error {
	if err := s.tags.Detach(ctx, contactID, tagID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to detach tag")
	}
	return s.reapIfOrphaned(ctx, tagID, stats)
}

func (s *Service) reapIfOrphaned(ctx context.Context, tagID id.TagID, stats *reconcileStats) error {
	count, err := s.tags.ContactCount(ctx, tagID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count tag references")
	}
	if count == 0 {
		if err := s.tags.Delete(ctx, tagID); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete orphaned tag")
		}
		stats.orphanedTags++
	}
	return nil
}

// cleanupCompany reaps the previously referenced company when the save
// moved the contact off it and nobody else references it.
func (s *Service) cleanupCompany(ctx context.Context, prev, next *id.CompanyID, stats *reconcileStats) error {
	if prev == nil {
		return nil
	}
	if next != nil && *next == *prev {
		return nil
	}
	count, err := s.contacts.CountByCompany(ctx, *prev)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to count company references")
	}
	if count > 0 {
		return nil
	}
	if err := s.companies.Delete(ctx, *prev); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to delete orphaned company")
	}
	stats.orphanedCompanies++
	return nil
}

// buildContact assembles the aggregate from the normalized command.
// Rows keep their IDs when the command names them and get fresh ones
// otherwise.
func buildContact(cmd *SaveContactCommand, existing *models.Contact, company *models.Company, now time.Time) *models.Contact {
	contact := &models.Contact{
		Name:      cmd.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if cmd.ID != nil {
		contact.ID = *cmd.ID
	} else {
		contact.ID = id.NewContactID()
	}
	if existing != nil {
		contact.CreatedAt = existing.CreatedAt
	}
	if company != nil {
		companyID := company.ID
		contact.CompanyID = &companyID
	}

	for _, input := range cmd.PhoneNumbers {
		phone := models.PhoneNumber{ContactID: contact.ID, Type: input.Type}
		if input.ID != nil {
			phone.ID = *input.ID
		} else {
			phone.ID = id.NewPhoneNumberID()
		}
		if input.Number != nil {
			phone.RawNumber = *input.Number
		}
		contact.PhoneNumbers = append(contact.PhoneNumbers, phone)
	}

	for _, input := range cmd.SkypeContacts {
		skype := models.SkypeContact{ContactID: contact.ID, Username: input.Username}
		if input.ID != nil {
			skype.ID = *input.ID
		} else {
			skype.ID = id.NewSkypeContactID()
		}
		contact.SkypeContacts = append(contact.SkypeContacts, skype)
	}
	return contact
}

// rejectedView resolves the refused command read-only so the caller
// can re-render the form: existing companies and tags come back with
// their stored rows, unknown names come back as unsaved rows.
func (s *Service) rejectedView(ctx context.Context, cmd *SaveContactCommand) *ContactView {
	now := requestcontext.Now(ctx)
	view := &ContactView{Contact: buildContact(cmd, nil, nil, now)}

	if cmd.CompanySearchText != nil && *cmd.CompanySearchText != "" {
		company, err := s.companies.FindByName(ctx, *cmd.CompanySearchText)
		if err != nil {
			company = &models.Company{ID: id.NewCompanyID(), Name: *cmd.CompanySearchText, CreatedAt: now}
		}
		view.Company = company
		companyID := company.ID
		view.Contact.CompanyID = &companyID
	}

	for _, name := range cmd.desiredTagNames() {
		tag, err := s.tags.FindByName(ctx, name)
		if err != nil {
			tag = &models.Tag{ID: id.NewTagID(), Name: name, CreatedAt: now}
		}
		view.Tags = append(view.Tags, tag)
	}
	return view
}

func addStats(m *metrics.Metrics, stats reconcileStats) {
	m.CompaniesCreated.Add(float64(stats.companiesCreated))
	m.OrphanedCompanies.Add(float64(stats.orphanedCompanies))
	m.TagsCreated.Add(float64(stats.tagsCreated))
	m.OrphanedTags.Add(float64(stats.orphanedTags))
}
