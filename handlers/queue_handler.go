package handlers

import (
	"net/http"

	"github.com/Dosada05/table-match-manager/services"
)

type QueueHandler struct {
	queueService services.QueueService
}

func NewQueueHandler(queueService services.QueueService) *QueueHandler {
	return &QueueHandler{queueService: queueService}
}

func (h *QueueHandler) ListQueueHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := h.queueService.List(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"queue": entries}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *QueueHandler) AddToQueueHandler(w http.ResponseWriter, r *http.Request) {
	var input services.AddToQueueInput
	if err := readJSON(w, r, &input); err != nil {
		badRequestResponse(w, r, err)
		return
	}

	entry, err := h.queueService.Add(r.Context(), input)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusCreated, jsonResponse{"entry": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

func (h *QueueHandler) RemoveFromQueueHandler(w http.ResponseWriter, r *http.Request) {
	entryID, err := getIDFromURL(r, "id")
	if err != nil {
		badRequestResponse(w, r, err)
		return
	}

	if err := h.queueService.Remove(r.Context(), entryID); err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"message": "queue entry removed"}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// DequeueNextHandler снимает голову очереди; пустая очередь - entry: null.
func (h *QueueHandler) DequeueNextHandler(w http.ResponseWriter, r *http.Request) {
	entry, err := h.queueService.DequeueNext(r.Context())
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"entry": entry}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
