package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"

	"switchboard/internal/directory/models"
	id "switchboard/pkg/domain"
	dErrors "switchboard/pkg/domainerrors"
	"switchboard/pkg/phonenumber"
	pstrings "switchboard/pkg/platform/strings"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// PhoneNumberInput is one phone row of a save command. A row with a
// nil ID is new; Delete marks an existing row for removal.
type PhoneNumberInput struct {
	ID     *id.PhoneNumberID
	Number *string
	Type   models.PhoneType `validate:"required,oneof=work home mobile fax"`
	Delete bool             `validate:"-"`
}

// SkypeContactInput is one skype row of a save command.
type SkypeContactInput struct {
	ID       *id.SkypeContactID
	Username string `validate:"required"`
	Delete   bool   `validate:"-"`
}

// SaveContactCommand carries everything a single save reconciles: the
// contact fields, its owned rows, the company search text and the tag
// names exactly as the caller typed them.
type SaveContactCommand struct {
	ID                *id.ContactID
	Name              string `validate:"required"`
	CompanySearchText *string
	TagNames          []string
	PhoneNumbers      []PhoneNumberInput  `validate:"dive"`
	SkypeContacts     []SkypeContactInput `validate:"dive"`
}

// normalize trims text fields, canonicalizes phone numbers and drops
// rows flagged for deletion. Validation runs on the normalized result,
// so a row the caller is removing can never fail the save.
func (c *SaveContactCommand) normalize() {
	c.Name = strings.TrimSpace(c.Name)
	if c.CompanySearchText != nil {
		trimmed := strings.TrimSpace(*c.CompanySearchText)
		c.CompanySearchText = &trimmed
	}

	phones := c.PhoneNumbers[:0]
	for _, phone := range c.PhoneNumbers {
		if phone.Delete {
			continue
		}
		phone.Number = phonenumber.Canonicalize(phone.Number)
		phones = append(phones, phone)
	}
	c.PhoneNumbers = phones

	skypes := c.SkypeContacts[:0]
	for _, skype := range c.SkypeContacts {
		if skype.Delete {
			continue
		}
		skype.Username = strings.TrimSpace(skype.Username)
		skypes = append(skypes, skype)
	}
	c.SkypeContacts = skypes
}

// desiredTagNames returns the command's tag names with surrounding
// whitespace trimmed, blanks dropped and duplicates removed while
// keeping the first occurrence's position.
func (c *SaveContactCommand) desiredTagNames() []string {
	return pstrings.DedupeAndTrim(c.TagNames)
}

// validateCommand maps struct validation failures onto per-field
// messages keyed the way the edit form names its inputs.
func validateCommand(cmd *SaveContactCommand) error {
	err := validate.Struct(cmd)
	if err == nil {
		return nil
	}

	var invalid validator.ValidationErrors
	fields := map[string]string{}
	if errors.As(err, &invalid) {
		for _, fe := range invalid {
			fields[fieldKey(fe)] = fieldMessage(fe)
		}
	}
	if len(fields) == 0 {
		fields["base"] = "contact is invalid"
	}
	return dErrors.NewValidation("contact is invalid", fields)
}

func fieldKey(fe validator.FieldError) string {
	switch fe.StructField() {
	case "Name":
		return "name"
	case "Type":
		return "phone_type"
	case "Username":
		return "skype_username"
	}
	return strings.ToLower(fe.StructField())
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "can't be blank"
	case "oneof":
		return fmt.Sprintf("must be one of %s", fe.Param())
	}
	return "is invalid"
}
