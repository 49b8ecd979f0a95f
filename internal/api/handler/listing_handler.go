package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mvcmarket/marketplace/internal/core/ports"
)

// ListingHandler serves the catalog.
type ListingHandler struct {
	service ports.CatalogService
}

func NewListingHandler(service ports.CatalogService) *ListingHandler {
	return &ListingHandler{service: service}
}

// Browse handles GET /v1/listings.
//
// @Summary      Browse the catalog
// @Description  Filters are combined with AND. Without a price filter the default range applies.
// @Tags         listings
// @Produce      json
// @Param        kind       query     string  false  "item or music"
// @Param        q          query     string  false  "Case-insensitive term matched against title and description"
// @Param        category   query     string  false  "Exact category (genre for music)"
// @Param        condition  query     string  false  "Exact condition (tempo for music)"
// @Param        min_price  query     number  false  "Inclusive lower price bound"
// @Param        max_price  query     number  false  "Inclusive upper price bound"
// @Param        sort       query     string  false  "newest, oldest, price-asc or price-desc"
// @Param        limit      query     int     false  "Maximum number of results (0 = all)"
// @Success      200        {object}  listingsResponse
// @Failure      400        {object}  errorResponse
// @Failure      422        {object}  errorResponse
// @Router       /v1/listings [get]
func (h *ListingHandler) Browse(c echo.Context) error {
	q, err := toListingQuery(c)
	if err != nil {
		return err
	}
	ls, err := h.service.Browse(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListingsResponse(ls))
}

// Featured handles GET /v1/listings/featured.
//
// @Summary      Featured listings for the landing page
// @Tags         listings
// @Produce      json
// @Param        n    query     int  false  "Number of listings (default 4)"
// @Success      200  {object}  listingsResponse
// @Failure      400  {object}  errorResponse
// @Router       /v1/listings/featured [get]
func (h *ListingHandler) Featured(c echo.Context) error {
	n := 0
	if raw := c.QueryParam("n"); raw != "" {
		v, err := strconv.Atoi(raw)
		if err != nil || v < 0 || v > maxLimit {
			return echo.NewHTTPError(http.StatusBadRequest, "n must be between 0 and 100")
		}
		n = v
	}
	ls, err := h.service.Featured(c.Request().Context(), n)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListingsResponse(ls))
}

// Get handles GET /v1/listings/:id.
//
// @Summary      Get a listing
// @Tags         listings
// @Produce      json
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  listingResponse
// @Failure      404  {object}  errorResponse
// @Router       /v1/listings/{id} [get]
func (h *ListingHandler) Get(c echo.Context) error {
	l, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListingResponse(*l))
}

// Mine handles GET /v1/me/listings.
//
// @Summary      Listings owned by the signed-in user
// @Tags         listings
// @Produce      json
// @Param        kind       query     string  false  "item or music"
// @Param        q          query     string  false  "Search term"
// @Param        category   query     string  false  "Exact category"
// @Param        condition  query     string  false  "Exact condition"
// @Param        sort       query     string  false  "newest, oldest, price-asc or price-desc"
// @Success      200        {object}  listingsResponse
// @Failure      401        {object}  errorResponse
// @Failure      502        {object}  errorResponse
// @Router       /v1/me/listings [get]
func (h *ListingHandler) Mine(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	q, err := toListingQuery(c)
	if err != nil {
		return err
	}
	ls, err := h.service.MyListings(c.Request().Context(), user, q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toListingsResponse(ls))
}

// Create handles POST /v1/listings.
//
// @Summary      Create a listing owned by the signed-in user
// @Tags         listings
// @Accept       json
// @Produce      json
// @Param        body  body      createListingRequest  true  "Listing draft"
// @Success      201   {object}  listingResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Failure      502   {object}  errorResponse
// @Router       /v1/listings [post]
func (h *ListingHandler) Create(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	var req createListingRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusUnprocessableEntity, err.Error())
	}

	created, err := h.service.Create(c.Request().Context(), user, toCreateInput(req))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, toListingResponse(*created))
}

// Delete handles DELETE /v1/listings/:id.
//
// @Summary      Delete a listing
// @Description  Allowed for the owner and for administrators.
// @Tags         listings
// @Produce      json
// @Param        id   path      string  true  "Listing ID"
// @Success      200  {object}  messageResponse
// @Failure      401  {object}  errorResponse
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Failure      502  {object}  errorResponse
// @Router       /v1/listings/{id} [delete]
func (h *ListingHandler) Delete(c echo.Context) error {
	user, err := ctxUser(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), user, c.Param("id")); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, messageResponse{Message: "listing deleted"})
}
