package handler

import (
	"bytes"
	"encoding/json"
	"time"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// --- Request / Response types ---

// textNumber accepts a JSON number or a JSON string so form values can be
// posted unchanged. The raw text is passed to the service for parsing.
type textNumber string

func (n *textNumber) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*n = textNumber(s)
		return nil
	}
	if bytes.Equal(b, []byte("null")) {
		*n = ""
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return err
	}
	*n = textNumber(num.String())
	return nil
}

type createListingRequest struct {
	Kind        string     `json:"kind"        validate:"required,oneof=item music"`
	Title       string     `json:"title"       validate:"required,max=120"`
	Description string     `json:"description" validate:"required,max=4000"`
	Price       textNumber `json:"price"       validate:"required"`
	Category    string     `json:"category"    validate:"required"`
	Condition   string     `json:"condition"   validate:"required"`
	Tag         string     `json:"tag"`
	Location    string     `json:"location"    validate:"required_if=Kind item"`
	Media       []string   `json:"media"       validate:"max=10"`
}

type listingResponse struct {
	ID             string    `json:"id"`
	Kind           string    `json:"kind"`
	UserID         string    `json:"user_id"`
	SellerUsername string    `json:"seller_username,omitempty"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Price          float64   `json:"price"`
	Category       string    `json:"category"`
	Condition      string    `json:"condition"`
	Tag            string    `json:"tag,omitempty"`
	Location       string    `json:"location,omitempty"`
	Media          []string  `json:"media"`
	Genre          string    `json:"genre,omitempty"`
	Tempo          string    `json:"tempo,omitempty"`
	Mood           string    `json:"mood,omitempty"`
	MusicURL       string    `json:"music_url,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

type listingsResponse struct {
	Count    int               `json:"count"`
	Listings []listingResponse `json:"listings"`
}

type facetResponse struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type catalogStatsResponse struct {
	Kind         string          `json:"kind,omitempty"`
	Users        int             `json:"users"`
	Listings     int             `json:"listings"`
	TotalValue   float64         `json:"total_value"`
	AveragePrice float64         `json:"average_price"`
	Categories   []facetResponse `json:"categories"`
	Conditions   []facetResponse `json:"conditions"`
}
