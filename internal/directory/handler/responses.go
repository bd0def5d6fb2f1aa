package handler

import (
	"time"

	"switchboard/internal/directory/service"
	"switchboard/pkg/phonenumber"
)

// ContactResponse is a contact with its references resolved. Phone
// numbers carry both the stored digits and the display rendering so
// clients never re-implement formatting.
type ContactResponse struct {
	ID            string                 `json:"id"`
	Name          string                 `json:"name"`
	Company       *CompanyResponse       `json:"company,omitempty"`
	Tags          []TagResponse          `json:"tags"`
	PhoneNumbers  []PhoneNumberResponse  `json:"phone_numbers"`
	SkypeContacts []SkypeContactResponse `json:"skype_contacts"`
	CreatedAt     time.Time              `json:"created_at"`
	UpdatedAt     time.Time              `json:"updated_at"`
}

type CompanyResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type TagResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type PhoneNumberResponse struct {
	ID        string `json:"id"`
	RawNumber string `json:"raw_number"`
	Formatted string `json:"formatted_number"`
	Type      string `json:"phone_type"`
}

type SkypeContactResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
}

// ValidationResponse is the 422 body for a rejected save: the field
// errors plus the contact as the caller shaped it, with tag and
// company names resolved, so an edit form can re-render.
type ValidationResponse struct {
	Error       string            `json:"error"`
	Description string            `json:"error_description"`
	Fields      map[string]string `json:"fields"`
	Contact     *ContactResponse  `json:"contact"`
}

// FromView converts a resolved contact view into its HTTP shape.
func FromView(view *service.ContactView) *ContactResponse {
	resp := &ContactResponse{
		ID:            view.Contact.ID.String(),
		Name:          view.Contact.Name,
		Tags:          []TagResponse{},
		PhoneNumbers:  []PhoneNumberResponse{},
		SkypeContacts: []SkypeContactResponse{},
		CreatedAt:     view.Contact.CreatedAt,
		UpdatedAt:     view.Contact.UpdatedAt,
	}
	if view.Company != nil {
		resp.Company = &CompanyResponse{ID: view.Company.ID.String(), Name: view.Company.Name}
	}
	for _, tag := range view.Tags {
		resp.Tags = append(resp.Tags, TagResponse{ID: tag.ID.String(), Name: tag.Name})
	}
	for _, phone := range view.Contact.PhoneNumbers {
		raw := phone.RawNumber
		formatted := phonenumber.Format(&raw)
		resp.PhoneNumbers = append(resp.PhoneNumbers, PhoneNumberResponse{
			ID:        phone.ID.String(),
			RawNumber: raw,
			Formatted: *formatted,
			Type:      string(phone.Type),
		})
	}
	for _, skype := range view.Contact.SkypeContacts {
		resp.SkypeContacts = append(resp.SkypeContacts, SkypeContactResponse{
			ID:       skype.ID.String(),
			Username: skype.Username,
		})
	}
	return resp
}
