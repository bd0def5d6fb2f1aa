// Package domain defines the typed identifiers shared across bounded
// contexts. Using distinct types per entity lets the compiler catch a
// ContactID being passed where a TagID belongs.
package domain

import (
	"github.com/google/uuid"

	dErrors "switchboard/pkg/domainerrors"
)

type (
	// ContactID identifies a directory contact.
	ContactID uuid.UUID
	// PhoneNumberID identifies a phone number row owned by a contact.
	PhoneNumberID uuid.UUID
	// SkypeContactID identifies a skype handle row owned by a contact.
	SkypeContactID uuid.UUID
	// CompanyID identifies a company shared by reference.
	CompanyID uuid.UUID
	// TagID identifies a tag shared by reference.
	TagID uuid.UUID
	// UserID identifies an authenticated user supplied by the auth collaborator.
	UserID uuid.UUID
)

func (id ContactID) String() string      { return uuid.UUID(id).String() }
func (id PhoneNumberID) String() string  { return uuid.UUID(id).String() }
func (id SkypeContactID) String() string { return uuid.UUID(id).String() }
func (id CompanyID) String() string      { return uuid.UUID(id).String() }
func (id TagID) String() string          { return uuid.UUID(id).String() }
func (id UserID) String() string         { return uuid.UUID(id).String() }

func (id ContactID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id PhoneNumberID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }
func (id SkypeContactID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id CompanyID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id TagID) IsNil() bool          { return uuid.UUID(id) == uuid.Nil }
func (id UserID) IsNil() bool         { return uuid.UUID(id) == uuid.Nil }

// NewContactID returns a fresh random ContactID.
func NewContactID() ContactID { return ContactID(uuid.New()) }

// NewPhoneNumberID returns a fresh random PhoneNumberID.
func NewPhoneNumberID() PhoneNumberID { return PhoneNumberID(uuid.New()) }

// NewSkypeContactID returns a fresh random SkypeContactID.
func NewSkypeContactID() SkypeContactID { return SkypeContactID(uuid.New()) }

// NewCompanyID returns a fresh random CompanyID.
func NewCompanyID() CompanyID { return CompanyID(uuid.New()) }

// NewTagID returns a fresh random TagID.
func NewTagID() TagID { return TagID(uuid.New()) }

// NewUserID returns a fresh random UserID.
func NewUserID() UserID { return UserID(uuid.New()) }

// parseUUID enforces the shared invariant: IDs must be valid, non-nil UUIDs.
func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}

// ParseContactID parses s into a ContactID.
func ParseContactID(s string) (ContactID, error) {
	u, err := parseUUID(s)
	return ContactID(u), err
}

// ParsePhoneNumberID parses s into a PhoneNumberID.
func ParsePhoneNumberID(s string) (PhoneNumberID, error) {
	u, err := parseUUID(s)
	return PhoneNumberID(u), err
}

// ParseSkypeContactID parses s into a SkypeContactID.
func ParseSkypeContactID(s string) (SkypeContactID, error) {
	u, err := parseUUID(s)
	return SkypeContactID(u), err
}

// ParseCompanyID parses s into a CompanyID.
func ParseCompanyID(s string) (CompanyID, error) {
	u, err := parseUUID(s)
	return CompanyID(u), err
}

// ParseTagID parses s into a TagID.
func ParseTagID(s string) (TagID, error) {
	u, err := parseUUID(s)
	return TagID(u), err
}

// ParseUserID parses s into a UserID.
func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	return UserID(u), err
}
