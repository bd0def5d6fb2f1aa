package handler

import (
	"switchboard/internal/directory/models"
	"switchboard/internal/directory/service"
	id "switchboard/pkg/domain"
	dErrors "switchboard/pkg/domainerrors"
)

// SaveContactRequest is the JSON body for POST /contacts and
// PUT /contacts/{contactID}.
type SaveContactRequest struct {
	Name              string                `json:"name"`
	CompanySearchText *string               `json:"company_search_text"`
	TagNames          []string              `json:"tag_names"`
	PhoneNumbers      []PhoneNumberRequest  `json:"phone_numbers"`
	SkypeContacts     []SkypeContactRequest `json:"skype_contacts"`
}

// PhoneNumberRequest is one phone row of a save. ID is present when
// editing an existing row; Delete removes it.
type PhoneNumberRequest struct {
	ID     *string `json:"id,omitempty"`
	Number *string `json:"number"`
	Type   string  `json:"phone_type"`
	Delete bool    `json:"delete,omitempty"`
}

// SkypeContactRequest is one skype row of a save.
type SkypeContactRequest struct {
	ID       *string `json:"id,omitempty"`
	Username string  `json:"username"`
	Delete   bool    `json:"delete,omitempty"`
}

// ToCommand converts the request into a service command, parsing row
// IDs. A malformed row ID fails the whole request up front.
func (r *SaveContactRequest) ToCommand(contactID *id.ContactID) (*service.SaveContactCommand, error) {
	cmd := &service.SaveContactCommand{
		ID:                contactID,
		Name:              r.Name,
		CompanySearchText: r.CompanySearchText,
		TagNames:          r.TagNames,
	}

	for _, phone := range r.PhoneNumbers {
		input := service.PhoneNumberInput{
			Number: phone.Number,
			Type:   models.PhoneType(phone.Type),
			Delete: phone.Delete,
		}
		if phone.ID != nil {
			parsed, err := id.ParsePhoneNumberID(*phone.ID)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid phone number id")
			}
			input.ID = &parsed
		}
		cmd.PhoneNumbers = append(cmd.PhoneNumbers, input)
	}

	for _, skype := range r.SkypeContacts {
		input := service.SkypeContactInput{
			Username: skype.Username,
			Delete:   skype.Delete,
		}
		if skype.ID != nil {
			parsed, err := id.ParseSkypeContactID(*skype.ID)
			if err != nil {
				return nil, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid skype contact id")
			}
			input.ID = &parsed
		}
		cmd.SkypeContacts = append(cmd.SkypeContacts, input)
	}
	return cmd, nil
}
