package handlers

import (
	"net/http"

	"github.com/Dosada05/table-match-manager/models"
	"github.com/Dosada05/table-match-manager/services"
)

type RankingHandler struct {
	rankingService services.RankingService
	eloService     services.EloService
}

func NewRankingHandler(rankingService services.RankingService, eloService services.EloService) *RankingHandler {
	return &RankingHandler{
		rankingService: rankingService,
		eloService:     eloService,
	}
}

func (h *RankingHandler) GetRankingsHandler(w http.ResponseWriter, r *http.Request) {
	format, err := models.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, services.ErrInvalidFormat)
		return
	}

	rankings, err := h.rankingService.GetRankings(r.Context(), format)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rankings": rankings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}

// GetEloRankingsHandler: ELO считается раздельно по форматам, параметр
// format обязателен и принимает только singles или doubles.
func (h *RankingHandler) GetEloRankingsHandler(w http.ResponseWriter, r *http.Request) {
	format, err := models.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		mapServiceErrorToHTTP(w, r, services.ErrEloFormatRequired)
		return
	}

	rankings, err := h.eloService.GetEloRankings(r.Context(), format)
	if err != nil {
		mapServiceErrorToHTTP(w, r, err)
		return
	}

	if err := writeJSON(w, http.StatusOK, jsonResponse{"rankings": rankings}, nil); err != nil {
		serverErrorResponse(w, r, err)
	}
}
