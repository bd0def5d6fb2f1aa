// Package models holds the directory entities: contacts and the rows
// they own (phone numbers, skype handles), plus the companies and tags
// they share by reference.
package models

import (
	"time"

	id "switchboard/pkg/domain"
)

// PhoneType classifies a phone number row. A phone number without a
// type is invalid.
type PhoneType string

const (
	PhoneTypeWork   PhoneType = "work"
	PhoneTypeHome   PhoneType = "home"
	PhoneTypeMobile PhoneType = "mobile"
	PhoneTypeFax    PhoneType = "fax"
)

// Valid reports whether t is one of the known phone types.
func (t PhoneType) Valid() bool {
	switch t {
	case PhoneTypeWork, PhoneTypeHome, PhoneTypeMobile, PhoneTypeFax:
		return true
	}
	return false
}

// PhoneNumber is owned by its contact and dies with it. RawNumber is
// the canonical digit string produced by pkg/phonenumber; it may be
// blank but never contains separators.
type PhoneNumber struct {
	ID        id.PhoneNumberID
	ContactID id.ContactID
	RawNumber string
	Type      PhoneType
}

// SkypeContact is a skype handle owned by its contact.
type SkypeContact struct {
	ID        id.SkypeContactID
	ContactID id.ContactID
	Username  string
}

// Contact is the aggregate root of the directory. It owns its phone
// and skype rows and references a company and tags that other
// contacts may share.
type Contact struct {
	ID            id.ContactID
	Name          string
	CompanyID     *id.CompanyID
	PhoneNumbers  []PhoneNumber
	SkypeContacts []SkypeContact
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Company has a unique name and is shared by reference. A company
// referenced by zero contacts is an orphan and must not outlive the
// reconciliation that detached its last contact.
type Company struct {
	ID        id.CompanyID
	Name      string
	CreatedAt time.Time
}

// Tag has a unique name and is attached to contacts through explicit
// join rows. Same orphan rule as Company.
type Tag struct {
	ID        id.TagID
	Name      string
	CreatedAt time.Time
}
