package handlers

import (
	"errors"
	"net/http"

	"github.com/Dosada05/table-match-manager/services"
)

type PersonHandler struct {
	personService services.PersonService
}

func NewPersonHandler(personService services.PersonService) *PersonHandler {
	return &PersonHandler{personService: personService}
}

func (h *PersonHandler) CreatePersonHandler(w http.ResponseWriter, r *http.Request) {
	var input services.CreatePersonInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	person, err := h.personService.Create(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"person": person}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PersonHandler) ListPersonsHandler(w http.ResponseWriter, r *http.Request) {
	persons, err := h.personService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"persons": persons}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PersonHandler) GetPersonHandler(w http.ResponseWriter, r *http.Request) {
	personID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	person, err := h.personService.GetByID(r.Context(), personID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"person": person}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PersonHandler) UploadAvatarHandler(w http.ResponseWriter, r *http.Request) {
	personID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	file, header, err := r.FormFile("avatar")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}
	defer file.Close()

	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		badRequestResponse(w, r, errors.New("content type required"))
		return
	}

	person, err := h.personService.UploadAvatar(r.Context(), personID, file, contentType)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"person": person}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *PersonHandler) RemoveAvatarHandler(w http.ResponseWriter, r *http.Request) {
	personID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	person, err := h.personService.RemoveAvatar(r.Context(), personID)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"person": person}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
