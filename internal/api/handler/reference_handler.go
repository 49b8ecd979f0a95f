package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mvcmarket/marketplace/internal/core/domain"
)

type referenceResponse struct {
	Categories   []string             `json:"categories"`
	Conditions   []string             `json:"conditions"`
	Genres       []string             `json:"genres"`
	Tempos       []string             `json:"tempos"`
	Moods        []string             `json:"moods"`
	Sorts        []string             `json:"sorts"`
	PriceCeiling float64              `json:"price_ceiling"`
	Plans        []domain.PricingPlan `json:"plans"`
}

// ReferenceHandler serves the static option lists the forms and filters use.
type ReferenceHandler struct {
	priceCeiling float64
}

func NewReferenceHandler(priceCeiling float64) *ReferenceHandler {
	return &ReferenceHandler{priceCeiling: priceCeiling}
}

// Get handles GET /v1/reference.
//
// @Summary      Option lists and pricing plans
// @Tags         reference
// @Produce      json
// @Success      200  {object}  referenceResponse
// @Router       /v1/reference [get]
func (h *ReferenceHandler) Get(c echo.Context) error {
	return c.JSON(http.StatusOK, referenceResponse{
		Categories: domain.Categories,
		Conditions: domain.Conditions,
		Genres:     domain.Genres,
		Tempos:     domain.Tempos,
		Moods:      domain.Moods,
		Sorts: []string{
			string(domain.SortNewest),
			string(domain.SortOldest),
			string(domain.SortPriceAsc),
			string(domain.SortPriceDesc),
		},
		PriceCeiling: h.priceCeiling,
		Plans:        domain.PricingPlans,
	})
}
