package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"switchboard/internal/directory/models"
	"switchboard/internal/directory/store/company"
	"switchboard/internal/directory/store/contact"
	"switchboard/internal/directory/store/tag"
	dErrors "switchboard/pkg/domainerrors"
	"switchboard/pkg/platform/audit"
	"switchboard/pkg/requestcontext"
)

type SaveContactSuite struct {
	suite.Suite
	service   *Service
	contacts  *contact.InMemory
	companies *company.InMemory
	tags      *tag.InMemory
	auditor   *audit.MemoryPublisher
	ctx       context.Context
}

func (s *SaveContactSuite) SetupTest() {
	s.contacts = contact.NewInMemory()
	s.companies = company.NewInMemory()
	s.tags = tag.NewInMemory()
	s.auditor = audit.NewMemoryPublisher()
	s.service = New(s.contacts, s.companies, s.tags, NewMemoryTx(), WithAuditPublisher(s.auditor))
	s.ctx = requestcontext.WithTime(context.Background(), time.Date(2012, 5, 1, 10, 0, 0, 0, time.UTC))
}

// Subtests get the same clean slate as test methods.
func (s *SaveContactSuite) SetupSubTest() {
	s.SetupTest()
}

func TestSaveContactSuite(t *testing.T) {
	suite.Run(t, new(SaveContactSuite))
}

func strPtr(s string) *string { return &s }

func (s *SaveContactSuite) save(cmd *SaveContactCommand) *ContactView {
	view, err := s.service.SaveContact(s.ctx, cmd)
	s.Require().NoError(err)
	return view
}

func (s *SaveContactSuite) TestCreate() {
	s.Run("creates a minimal contact", func() {
		view := s.save(&SaveContactCommand{Name: "Jane Doe"})
		s.Equal("Jane Doe", view.Contact.Name)
		s.Nil(view.Company)
		s.Empty(view.Tags)

		reloaded, err := s.service.GetContact(s.ctx, view.Contact.ID)
		s.Require().NoError(err)
		s.Equal("Jane Doe", reloaded.Contact.Name)
	})

	s.Run("canonicalizes phone numbers on save", func() {
		view := s.save(&SaveContactCommand{
			Name: "Jane Doe",
			PhoneNumbers: []PhoneNumberInput{
				{Number: strPtr("53 1234-5678"), Type: models.PhoneTypeWork},
			},
		})
		s.Require().Len(view.Contact.PhoneNumbers, 1)
		s.Equal("05312345678", view.Contact.PhoneNumbers[0].RawNumber)
	})

	s.Run("creates the company named by the search text", func() {
		view := s.save(&SaveContactCommand{
			Name:              "Jane Doe",
			CompanySearchText: strPtr("ULTRA Corp."),
		})
		s.Require().NotNil(view.Company)
		s.Equal("ULTRA Corp.", view.Company.Name)

		stored, err := s.companies.FindByName(s.ctx, "ULTRA Corp.")
		s.Require().NoError(err)
		s.Equal(view.Company.ID, stored.ID)
	})

	s.Run("reuses an existing company by exact name", func() {
		first := s.save(&SaveContactCommand{Name: "One", CompanySearchText: strPtr("Shared Inc")})
		second := s.save(&SaveContactCommand{Name: "Two", CompanySearchText: strPtr("Shared Inc")})
		s.Equal(first.Company.ID, second.Company.ID)
	})

	s.Run("creates and attaches tags preserving input order", func() {
		view := s.save(&SaveContactCommand{
			Name:     "Jane Doe",
			TagNames: []string{"vip", "client", "vip", "  ", "client"},
		})
		s.Require().Len(view.Tags, 2)
		s.Equal("vip", view.Tags[0].Name)
		s.Equal("client", view.Tags[1].Name)
	})
}

func (s *SaveContactSuite) TestValidation() {
	s.Run("rejects a blank name", func() {
		_, err := s.service.SaveContact(s.ctx, &SaveContactCommand{Name: "   "})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("can't be blank", dErrors.FieldsOf(err)["name"])
	})

	s.Run("rejects a phone number without a type", func() {
		_, err := s.service.SaveContact(s.ctx, &SaveContactCommand{
			Name:         "Jane Doe",
			PhoneNumbers: []PhoneNumberInput{{Number: strPtr("53 1234-5678")}},
		})
		s.Require().Error(err)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
		s.Equal("can't be blank", dErrors.FieldsOf(err)["phone_type"])
	})

	s.Run("ignores invalid rows flagged for deletion", func() {
		view := s.save(&SaveContactCommand{
			Name:         "Jane Doe",
			PhoneNumbers: []PhoneNumberInput{{Number: strPtr("53 1234-5678"), Delete: true}},
		})
		s.Empty(view.Contact.PhoneNumbers)
	})

	s.Run("rejected save writes nothing", func() {
		_, err := s.service.SaveContact(s.ctx, &SaveContactCommand{
			Name:              "",
			CompanySearchText: strPtr("Ghost Corp"),
			TagNames:          []string{"ghost"},
		})
		s.Require().Error(err)

		_, err = s.companies.FindByName(s.ctx, "Ghost Corp")
		s.Error(err)
		_, err = s.tags.FindByName(s.ctx, "ghost")
		s.Error(err)
	})

	s.Run("rejected save still resolves tags for re-display", func() {
		s.save(&SaveContactCommand{Name: "Holder", TagNames: []string{"existing"}})

		view, err := s.service.SaveContact(s.ctx, &SaveContactCommand{
			Name:     "",
			TagNames: []string{"existing", "brand-new"},
		})
		s.Require().Error(err)
		s.Require().NotNil(view)
		s.Require().Len(view.Tags, 2)
		s.Equal("existing", view.Tags[0].Name)
		s.Equal("brand-new", view.Tags[1].Name)

		stored, findErr := s.tags.FindByName(s.ctx, "existing")
		s.Require().NoError(findErr)
		s.Equal(stored.ID, view.Tags[0].ID)
	})
}

func (s *SaveContactSuite) TestUpdate() {
	s.Run("updates fields and keeps identity", func() {
		created := s.save(&SaveContactCommand{Name: "Old Name"})

		updated := s.save(&SaveContactCommand{ID: &created.Contact.ID, Name: "New Name"})
		s.Equal(created.Contact.ID, updated.Contact.ID)
		s.Equal("New Name", updated.Contact.Name)
		s.Equal(created.Contact.CreatedAt, updated.Contact.CreatedAt)
	})

	s.Run("unknown contact id is not found", func() {
		created := s.save(&SaveContactCommand{Name: "Someone"})
		s.Require().NoError(s.service.DeleteContact(s.ctx, created.Contact.ID))

		_, err := s.service.SaveContact(s.ctx, &SaveContactCommand{ID: &created.Contact.ID, Name: "Someone"})
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("reordering tag names rewrites attachment order", func() {
		created := s.save(&SaveContactCommand{Name: "Jane", TagNames: []string{"abc", "def"}})

		updated := s.save(&SaveContactCommand{ID: &created.Contact.ID, Name: "Jane", TagNames: []string{"def", "abc"}})
		s.Require().Len(updated.Tags, 2)
		s.Equal("def", updated.Tags[0].Name)
		s.Equal("abc", updated.Tags[1].Name)

		reloaded, err := s.service.GetContact(s.ctx, created.Contact.ID)
		s.Require().NoError(err)
		s.Require().Len(reloaded.Tags, 2)
		s.Equal("def", reloaded.Tags[0].Name)
		s.Equal("abc", reloaded.Tags[1].Name)
	})

	s.Run("removes phone rows flagged for deletion", func() {
		created := s.save(&SaveContactCommand{
			Name: "Jane Doe",
			PhoneNumbers: []PhoneNumberInput{
				{Number: strPtr("53 1234-5678"), Type: models.PhoneTypeWork},
				{Number: strPtr("53 8765-4321"), Type: models.PhoneTypeHome},
			},
		})
		s.Require().Len(created.Contact.PhoneNumbers, 2)
		keep := created.Contact.PhoneNumbers[0]
		drop := created.Contact.PhoneNumbers[1]

		updated := s.save(&SaveContactCommand{
			ID:   &created.Contact.ID,
			Name: "Jane Doe",
			PhoneNumbers: []PhoneNumberInput{
				{ID: &keep.ID, Number: strPtr(keep.RawNumber), Type: keep.Type},
				{ID: &drop.ID, Number: strPtr(drop.RawNumber), Type: drop.Type, Delete: true},
			},
		})
		s.Require().Len(updated.Contact.PhoneNumbers, 1)
		s.Equal(keep.ID, updated.Contact.PhoneNumbers[0].ID)
	})
}

func (s *SaveContactSuite) TestOrphanCleanup() {
	s.Run("deletes a company when its last contact moves away", func() {
		created := s.save(&SaveContactCommand{Name: "Jane", CompanySearchText: strPtr("Lonely LLC")})

		s.save(&SaveContactCommand{ID: &created.Contact.ID, Name: "Jane", CompanySearchText: strPtr("")})

		_, err := s.companies.FindByName(s.ctx, "Lonely LLC")
		s.Error(err)
	})

	s.Run("keeps a company still referenced by another contact", func() {
		s.save(&SaveContactCommand{Name: "Stays", CompanySearchText: strPtr("Busy Inc")})
		moved := s.save(&SaveContactCommand{Name: "Moves", CompanySearchText: strPtr("Busy Inc")})

		s.save(&SaveContactCommand{ID: &moved.Contact.ID, Name: "Moves"})

		_, err := s.companies.FindByName(s.ctx, "Busy Inc")
		s.NoError(err)
	})

	s.Run("deletes a tag when its last holder drops it", func() {
		created := s.save(&SaveContactCommand{Name: "Jane", TagNames: []string{"fleeting"}})

		s.save(&SaveContactCommand{ID: &created.Contact.ID, Name: "Jane"})

		_, err := s.tags.FindByName(s.ctx, "fleeting")
		s.Error(err)
	})

	s.Run("keeps a tag still attached elsewhere", func() {
		s.save(&SaveContactCommand{Name: "Keeper", TagNames: []string{"durable"}})
		dropper := s.save(&SaveContactCommand{Name: "Dropper", TagNames: []string{"durable"}})

		s.save(&SaveContactCommand{ID: &dropper.Contact.ID, Name: "Dropper"})

		_, err := s.tags.FindByName(s.ctx, "durable")
		s.NoError(err)
	})

	s.Run("reaped references are audited", func() {
		created := s.save(&SaveContactCommand{Name: "Jane", TagNames: []string{"fleeting"}})

		s.save(&SaveContactCommand{ID: &created.Contact.ID, Name: "Jane"})

		events := s.auditor.Events()
		s.Require().NotEmpty(events)
		last := events[len(events)-1]
		s.Equal(audit.ActionOrphanedCleanup, last.Action)
		s.Equal(created.Contact.ID.String(), last.Subject)
		s.Equal("tags=1 companies=0", last.Detail)
	})
}

func (s *SaveContactSuite) TestDeleteContact() {
	s.Run("removes the contact and reaps orphans", func() {
		created := s.save(&SaveContactCommand{
			Name:              "Jane",
			CompanySearchText: strPtr("Solo Corp"),
			TagNames:          []string{"solo"},
		})

		s.Require().NoError(s.service.DeleteContact(s.ctx, created.Contact.ID))

		_, err := s.service.GetContact(s.ctx, created.Contact.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
		_, err = s.companies.FindByName(s.ctx, "Solo Corp")
		s.Error(err)
		_, err = s.tags.FindByName(s.ctx, "solo")
		s.Error(err)
	})

	s.Run("deleting an unknown contact is not found", func() {
		created := s.save(&SaveContactCommand{Name: "Gone"})
		s.Require().NoError(s.service.DeleteContact(s.ctx, created.Contact.ID))

		err := s.service.DeleteContact(s.ctx, created.Contact.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *SaveContactSuite) TestRemoveTag() {
	s.Run("detaches and reaps an orphaned tag", func() {
		created := s.save(&SaveContactCommand{Name: "Jane", TagNames: []string{"only"}})
		s.Require().Len(created.Tags, 1)

		s.Require().NoError(s.service.RemoveTag(s.ctx, created.Contact.ID, created.Tags[0].ID))

		reloaded, err := s.service.GetContact(s.ctx, created.Contact.ID)
		s.Require().NoError(err)
		s.Empty(reloaded.Tags)
		_, err = s.tags.FindByName(s.ctx, "only")
		s.Error(err)
	})

	s.Run("removing an unknown tag is not found", func() {
		created := s.save(&SaveContactCommand{Name: "Jane", TagNames: []string{"held"}})
		tagID := created.Tags[0].ID
		s.Require().NoError(s.service.RemoveTag(s.ctx, created.Contact.ID, tagID))

		err := s.service.RemoveTag(s.ctx, created.Contact.ID, tagID)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

func (s *SaveContactSuite) TestSearches() {
	s.Run("finds contacts by name fragment", func() {
		s.save(&SaveContactCommand{Name: "Jane Doe"})
		s.save(&SaveContactCommand{Name: "John Smith"})

		views, err := s.service.SearchContacts(s.ctx, "jane")
		s.Require().NoError(err)
		s.Require().Len(views, 1)
		s.Equal("Jane Doe", views[0].Contact.Name)
	})

	s.Run("company and tag typeahead match by prefix", func() {
		s.save(&SaveContactCommand{
			Name:              "Jane Doe",
			CompanySearchText: strPtr("ULTRA Corp."),
			TagNames:          []string{"client"},
		})

		companies, err := s.service.CompanySearch(s.ctx, "ult")
		s.Require().NoError(err)
		s.Require().Len(companies, 1)
		s.Equal("ULTRA Corp.", companies[0].Name)

		tags, err := s.service.TagSearch(s.ctx, "cli")
		s.Require().NoError(err)
		s.Require().Len(tags, 1)
		s.Equal("client", tags[0].Name)
	})
}
