package tag

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"switchboard/internal/directory/models"
	id "switchboard/pkg/domain"
	"switchboard/pkg/platform/sentinel"
)

type TagStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func (s *TagStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *TagStoreSuite) SetupSubTest() {
	s.SetupTest()
}

func TestTagStoreSuite(t *testing.T) {
	suite.Run(t, new(TagStoreSuite))
}

func (s *TagStoreSuite) newTag(name string) *models.Tag {
	tag := &models.Tag{ID: id.NewTagID(), Name: name, CreatedAt: time.Now()}
	s.Require().NoError(s.store.Create(s.ctx, tag))
	return tag
}

func (s *TagStoreSuite) TestCreationAndLookups() {
	s.Run("creates and finds tag by name", func() {
		created := s.newTag("vip")

		found, err := s.store.FindByName(s.ctx, "vip")
		s.Require().NoError(err)
		s.Equal(created.ID, found.ID)
	})

	s.Run("name matching is exact", func() {
		s.newTag("client")

		_, err := s.store.FindByName(s.ctx, "Client")
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("rejects a duplicate name", func() {
		s.newTag("unique")

		err := s.store.Create(s.ctx, &models.Tag{ID: id.NewTagID(), Name: "unique", CreatedAt: time.Now()})
		s.Require().ErrorIs(err, sentinel.ErrDuplicateName)
	})
}

func (s *TagStoreSuite) TestAttachments() {
	s.Run("lists tags in attachment order", func() {
		contactID := id.NewContactID()
		first := s.newTag("first")
		second := s.newTag("second")
		third := s.newTag("third")
		s.Require().NoError(s.store.Attach(s.ctx, contactID, first.ID))
		s.Require().NoError(s.store.Attach(s.ctx, contactID, second.ID))
		s.Require().NoError(s.store.Attach(s.ctx, contactID, third.ID))

		attached, err := s.store.ListByContact(s.ctx, contactID)
		s.Require().NoError(err)
		s.Require().Len(attached, 3)
		s.Equal("first", attached[0].Name)
		s.Equal("second", attached[1].Name)
		s.Equal("third", attached[2].Name)
	})

	s.Run("attaching twice is a no-op", func() {
		contactID := id.NewContactID()
		tag := s.newTag("idempotent")
		s.Require().NoError(s.store.Attach(s.ctx, contactID, tag.ID))
		s.Require().NoError(s.store.Attach(s.ctx, contactID, tag.ID))

		count, err := s.store.ContactCount(s.ctx, tag.ID)
		s.Require().NoError(err)
		s.Equal(1, count)
	})

	s.Run("attaching an unknown tag is ErrNotFound", func() {
		err := s.store.Attach(s.ctx, id.NewContactID(), id.NewTagID())
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("detach drops only the named join row", func() {
		contactID := id.NewContactID()
		keep := s.newTag("keep")
		drop := s.newTag("drop")
		s.Require().NoError(s.store.Attach(s.ctx, contactID, keep.ID))
		s.Require().NoError(s.store.Attach(s.ctx, contactID, drop.ID))

		s.Require().NoError(s.store.Detach(s.ctx, contactID, drop.ID))

		attached, err := s.store.ListByContact(s.ctx, contactID)
		s.Require().NoError(err)
		s.Require().Len(attached, 1)
		s.Equal("keep", attached[0].Name)
	})

	s.Run("counts references across contacts", func() {
		tag := s.newTag("shared")
		s.Require().NoError(s.store.Attach(s.ctx, id.NewContactID(), tag.ID))
		s.Require().NoError(s.store.Attach(s.ctx, id.NewContactID(), tag.ID))

		count, err := s.store.ContactCount(s.ctx, tag.ID)
		s.Require().NoError(err)
		s.Equal(2, count)
	})
}

func (s *TagStoreSuite) TestDelete() {
	s.Run("removes the tag and its join rows", func() {
		contactID := id.NewContactID()
		tag := s.newTag("doomed")
		s.Require().NoError(s.store.Attach(s.ctx, contactID, tag.ID))

		s.Require().NoError(s.store.Delete(s.ctx, tag.ID))

		_, err := s.store.FindByID(s.ctx, tag.ID)
		s.Require().ErrorIs(err, sentinel.ErrNotFound)
		attached, err := s.store.ListByContact(s.ctx, contactID)
		s.Require().NoError(err)
		s.Empty(attached)
	})
}

func (s *TagStoreSuite) TestSearchByPrefix() {
	s.Run("matches prefixes case-insensitively, sorted by name", func() {
		s.newTag("client")
		s.newTag("Clientele")
		s.newTag("vendor")

		matched, err := s.store.SearchByPrefix(s.ctx, "CLI")
		s.Require().NoError(err)
		s.Require().Len(matched, 2)
		s.Equal("Clientele", matched[0].Name)
		s.Equal("client", matched[1].Name)
	})
}
