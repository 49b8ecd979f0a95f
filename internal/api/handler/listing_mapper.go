package handler

import (
	"math"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/mvcmarket/marketplace/internal/core/domain"
	"github.com/mvcmarket/marketplace/internal/core/ports"
)

const maxLimit = 100

// toListingQuery reads kind, q, category, condition, min_price, max_price,
// sort and limit. A price range is set only when at least one bound is given;
// the other bound is then open.
func toListingQuery(c echo.Context) (domain.ListingQuery, error) {
	var (
		q        domain.ListingQuery
		kind     string
		sort     string
		minPrice = 0.0
		maxPrice = math.Inf(1)
	)
	err := echo.QueryParamsBinder(c).
		String("kind", &kind).
		String("q", &q.Term).
		String("category", &q.Category).
		String("condition", &q.Condition).
		Float64("min_price", &minPrice).
		Float64("max_price", &maxPrice).
		String("sort", &sort).
		Int("limit", &q.Limit).
		BindError()
	if err != nil {
		return q, echo.NewHTTPError(http.StatusBadRequest, "invalid query parameters")
	}

	if kind != "" {
		q.Kind = domain.ListingKind(kind)
		if !q.Kind.Valid() {
			return q, echo.NewHTTPError(http.StatusBadRequest, "kind must be one of: item music")
		}
	}
	if q.Sort, err = domain.ParseSortOrder(sort); err != nil {
		return q, err
	}
	if q.Limit < 0 || q.Limit > maxLimit {
		return q, echo.NewHTTPError(http.StatusBadRequest, "limit must be between 0 and 100")
	}
	for name, v := range map[string]float64{"min_price": minPrice, "max_price": maxPrice} {
		if c.QueryParam(name) != "" && (math.IsNaN(v) || math.IsInf(v, 0)) {
			return q, echo.NewHTTPError(http.StatusBadRequest, "min_price and max_price must be finite numbers")
		}
	}
	if c.QueryParam("min_price") != "" || c.QueryParam("max_price") != "" {
		q.Price = &domain.PriceRange{Lo: minPrice, Hi: maxPrice}
	}
	q.Term = strings.TrimSpace(q.Term)
	return q, nil
}

func toCreateInput(req createListingRequest) ports.CreateListingInput {
	return ports.CreateListingInput{
		Kind:        domain.ListingKind(req.Kind),
		Title:       req.Title,
		Description: req.Description,
		Price:       string(req.Price),
		Category:    req.Category,
		Condition:   req.Condition,
		Tag:         req.Tag,
		Location:    req.Location,
		Media:       req.Media,
	}
}

func toListingResponse(l domain.Listing) listingResponse {
	resp := listingResponse{
		ID:             l.ID,
		Kind:           string(l.Kind),
		UserID:         l.UserID,
		SellerUsername: l.SellerUsername,
		Title:          l.Title,
		Description:    l.Description,
		Price:          l.Price,
		Category:       l.Category,
		Condition:      l.Condition,
		Tag:            l.Tag,
		Location:       l.Location,
		Media:          l.Media,
		CreatedAt:      l.CreatedAt,
		UpdatedAt:      l.UpdatedAt,
	}
	if resp.Media == nil {
		resp.Media = []string{}
	}
	if l.Kind == domain.KindMusic {
		resp.Genre, resp.Tempo, resp.Mood = l.Category, l.Condition, l.Tag
		if len(l.Media) > 0 {
			resp.MusicURL = l.Media[0]
		}
	}
	return resp
}

func toListingsResponse(ls []domain.Listing) listingsResponse {
	out := listingsResponse{Count: len(ls), Listings: make([]listingResponse, 0, len(ls))}
	for _, l := range ls {
		out.Listings = append(out.Listings, toListingResponse(l))
	}
	return out
}

func toFacets(fs []domain.FacetCount) []facetResponse {
	out := make([]facetResponse, 0, len(fs))
	for _, f := range fs {
		out = append(out, facetResponse{Name: f.Name, Count: f.Count})
	}
	return out
}

func toStatsResponse(s *ports.CatalogStats, users int) catalogStatsResponse {
	return catalogStatsResponse{
		Kind:         string(s.Kind),
		Users:        users,
		Listings:     s.Listings,
		TotalValue:   s.TotalValue,
		AveragePrice: s.AveragePrice,
		Categories:   toFacets(s.Categories),
		Conditions:   toFacets(s.Conditions),
	}
}
