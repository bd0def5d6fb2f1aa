package handler

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	"switchboard/internal/directory/service"
	"switchboard/internal/directory/store/company"
	"switchboard/internal/directory/store/contact"
	"switchboard/internal/directory/store/tag"
	"switchboard/internal/platform/logger"
)

type HandlerSuite struct {
	suite.Suite
	router chi.Router
}

func (s *HandlerSuite) SetupTest() {
	svc := service.New(contact.NewInMemory(), company.NewInMemory(), tag.NewInMemory(), service.NewMemoryTx())
	s.router = chi.NewRouter()
	New(svc, logger.New()).Register(s.router)
}

func (s *HandlerSuite) SetupSubTest() {
	s.SetupTest()
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) do(method, target string, body any) *httptest.ResponseRecorder {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		s.Require().NoError(err)
		reader = bytes.NewReader(encoded)
	}
	req := httptest.NewRequest(method, target, reader)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *HandlerSuite) decodeContact(w *httptest.ResponseRecorder) ContactResponse {
	var resp ContactResponse
	s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
	return resp
}

func (s *HandlerSuite) createContact(body map[string]any) ContactResponse {
	w := s.do(http.MethodPost, "/contacts/", body)
	s.Require().Equal(http.StatusCreated, w.Code)
	return s.decodeContact(w)
}

func (s *HandlerSuite) TestContactCRUD() {
	s.Run("creates a contact and formats its numbers", func() {
		resp := s.createContact(map[string]any{
			"name":                "Jane Doe",
			"company_search_text": "ULTRA Corp.",
			"tag_names":           []string{"vip"},
			"phone_numbers": []map[string]any{
				{"number": "53 1234-5678", "phone_type": "work"},
			},
		})

		s.Equal("Jane Doe", resp.Name)
		s.Require().NotNil(resp.Company)
		s.Equal("ULTRA Corp.", resp.Company.Name)
		s.Require().Len(resp.Tags, 1)
		s.Equal("vip", resp.Tags[0].Name)
		s.Require().Len(resp.PhoneNumbers, 1)
		s.Equal("05312345678", resp.PhoneNumbers[0].RawNumber)
		s.Equal("(053) 1234-5678", resp.PhoneNumbers[0].Formatted)
	})

	s.Run("gets a created contact", func() {
		created := s.createContact(map[string]any{"name": "John Smith"})

		w := s.do(http.MethodGet, "/contacts/"+created.ID+"/", nil)
		s.Require().Equal(http.StatusOK, w.Code)
		s.Equal("John Smith", s.decodeContact(w).Name)
	})

	s.Run("updates a contact in place", func() {
		created := s.createContact(map[string]any{"name": "Before"})

		w := s.do(http.MethodPut, "/contacts/"+created.ID+"/", map[string]any{"name": "After"})
		s.Require().Equal(http.StatusOK, w.Code)
		updated := s.decodeContact(w)
		s.Equal(created.ID, updated.ID)
		s.Equal("After", updated.Name)
	})

	s.Run("deletes a contact", func() {
		created := s.createContact(map[string]any{"name": "Short Lived"})

		w := s.do(http.MethodDelete, "/contacts/"+created.ID+"/", nil)
		s.Require().Equal(http.StatusNoContent, w.Code)

		w = s.do(http.MethodGet, "/contacts/"+created.ID+"/", nil)
		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("unknown contact id is a 404", func() {
		w := s.do(http.MethodGet, "/contacts/00000000-0000-0000-0000-000000000001/", nil)
		s.Equal(http.StatusNotFound, w.Code)
	})

	s.Run("malformed contact id is a 400", func() {
		w := s.do(http.MethodGet, "/contacts/not-a-uuid/", nil)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *HandlerSuite) TestValidation() {
	s.Run("rejected save returns field errors and the echoed contact", func() {
		w := s.do(http.MethodPost, "/contacts/", map[string]any{
			"name":      "",
			"tag_names": []string{"kept-for-redisplay"},
		})
		s.Require().Equal(http.StatusUnprocessableEntity, w.Code)

		var resp ValidationResponse
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
		s.Equal("can't be blank", resp.Fields["name"])
		s.Require().NotNil(resp.Contact)
		s.Require().Len(resp.Contact.Tags, 1)
		s.Equal("kept-for-redisplay", resp.Contact.Tags[0].Name)
	})

	s.Run("malformed body is a 400", func() {
		req := httptest.NewRequest(http.MethodPost, "/contacts/", bytes.NewReader([]byte("{not json")))
		w := httptest.NewRecorder()
		s.router.ServeHTTP(w, req)
		s.Equal(http.StatusBadRequest, w.Code)
	})
}

func (s *HandlerSuite) TestRemoveTag() {
	s.Run("detaches a tag from a contact", func() {
		created := s.createContact(map[string]any{
			"name":      "Tagged",
			"tag_names": []string{"drop-me"},
		})
		s.Require().Len(created.Tags, 1)

		w := s.do(http.MethodDelete, "/contacts/"+created.ID+"/tags/"+created.Tags[0].ID, nil)
		s.Require().Equal(http.StatusNoContent, w.Code)

		w = s.do(http.MethodGet, "/contacts/"+created.ID+"/", nil)
		s.Require().Equal(http.StatusOK, w.Code)
		s.Empty(s.decodeContact(w).Tags)
	})
}

func (s *HandlerSuite) TestSearches() {
	s.Run("contact search matches name fragments", func() {
		s.createContact(map[string]any{"name": "Jane Doe"})
		s.createContact(map[string]any{"name": "John Smith"})

		w := s.do(http.MethodGet, "/contacts/?q=jane", nil)
		s.Require().Equal(http.StatusOK, w.Code)

		var resp []ContactResponse
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
		s.Require().Len(resp, 1)
		s.Equal("Jane Doe", resp[0].Name)
	})

	s.Run("company typeahead matches prefixes", func() {
		s.createContact(map[string]any{"name": "Jane", "company_search_text": "ULTRA Corp."})

		w := s.do(http.MethodGet, "/companies?q=ult", nil)
		s.Require().Equal(http.StatusOK, w.Code)

		var resp []CompanyResponse
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
		s.Require().Len(resp, 1)
		s.Equal("ULTRA Corp.", resp[0].Name)
	})

	s.Run("tag typeahead matches prefixes", func() {
		s.createContact(map[string]any{"name": "Jane", "tag_names": []string{"client"}})

		w := s.do(http.MethodGet, "/tags?q=cli", nil)
		s.Require().Equal(http.StatusOK, w.Code)

		var resp []TagResponse
		s.Require().NoError(json.NewDecoder(w.Body).Decode(&resp))
		s.Require().Len(resp, 1)
		s.Equal("client", resp[0].Name)
	})
}

func (s *HandlerSuite) TestCallerIDLookup() {
	s.Run("known number resolves as plain text", func() {
		s.createContact(map[string]any{
			"name":                "Jane Doe",
			"company_search_text": "ULTRA Corp.",
			"phone_numbers": []map[string]any{
				{"number": "53 1234-5678", "phone_type": "work"},
			},
		})

		w := s.do(http.MethodGet, "/callerid_lookup?number=5312345678", nil)
		s.Require().Equal(http.StatusOK, w.Code)
		s.Contains(w.Header().Get("Content-Type"), "text/plain")
		s.Equal("Jane Doe - ULTRA Corp.", w.Body.String())
	})

	s.Run("unknown number is Unknown", func() {
		w := s.do(http.MethodGet, "/callerid_lookup?number=5399999999", nil)
		s.Require().Equal(http.StatusOK, w.Code)
		s.Equal("Unknown", w.Body.String())
	})

	s.Run("missing number parameter is Unknown", func() {
		w := s.do(http.MethodGet, "/callerid_lookup", nil)
		s.Require().Equal(http.StatusOK, w.Code)
		s.Equal("Unknown", w.Body.String())
	})
}
