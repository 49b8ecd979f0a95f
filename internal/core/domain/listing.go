package domain

import (
	"fmt"
	"strings"
	"time"
)

// ListingKind distinguishes the two listing shapes sold on the marketplace.
type ListingKind string

const (
	KindItem  ListingKind = "item"
	KindMusic ListingKind = "music"
)

func (k ListingKind) Valid() bool {
	return k == KindItem || k == KindMusic
}

// Categories is the published list of item categories. Listings may use
// other values; the list is not enforced.
var Categories = []string{
	"Electronics",
	"Home & Garden",
	"Clothing",
	"Vehicles",
	"Books",
	"Sports & Outdoors",
	"Toys & Games",
	"Art & Collectibles",
	"Health & Beauty",
	"Tools & Equipment",
}

// Genres plays the role of Categories for music tracks.
var Genres = []string{
	"Pop",
	"Rock",
	"Hip Hop",
	"Electronic",
	"Jazz",
	"Classical",
	"R&B",
	"Country",
	"Folk",
	"Ambient",
}

var Moods = []string{
	"Happy",
	"Sad",
	"Energetic",
	"Calm",
	"Romantic",
	"Dark",
	"Uplifting",
}

var Conditions = []string{"new", "like new", "good", "fair", "poor"}

var Tempos = []string{"slow", "medium", "fast"}

// Listing is a single sellable entry. For music tracks Category holds the
// genre, Condition the tempo, Tag the mood and Media[0] the playable URL.
type Listing struct {
	ID             string      `json:"id" bson:"_id"`
	UserID         string      `json:"user_id" bson:"user_id"`
	Kind           ListingKind `json:"kind" bson:"kind"`
	Title          string      `json:"title" bson:"title"`
	Description    string      `json:"description" bson:"description"`
	Price          float64     `json:"price" bson:"price"`
	Category       string      `json:"category" bson:"category"`
	Condition      string      `json:"condition" bson:"condition"`
	Tag            string      `json:"tag,omitempty" bson:"tag,omitempty"`
	Location       string      `json:"location,omitempty" bson:"location,omitempty"`
	Media          []string    `json:"media" bson:"media"`
	SellerUsername string      `json:"seller_username,omitempty" bson:"seller_username,omitempty"`
	CreatedAt      time.Time   `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at" bson:"updated_at"`
}

// Clone returns a deep copy so callers never share the Media backing array.
func (l Listing) Clone() Listing {
	if l.Media != nil {
		l.Media = append([]string(nil), l.Media...)
	}
	return l
}

// ConditionsFor returns the closed set of secondary-axis values for kind.
func ConditionsFor(kind ListingKind) []string {
	if kind == KindMusic {
		return Tempos
	}
	return Conditions
}

// Validate checks the fields a listing needs before it may enter the catalog.
// The returned error wraps ErrInvalidListing.
func (l *Listing) Validate() error {
	var missing []string
	if !l.Kind.Valid() {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidListing, l.Kind)
	}
	if strings.TrimSpace(l.UserID) == "" {
		missing = append(missing, "user_id")
	}
	if strings.TrimSpace(l.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(l.Description) == "" {
		missing = append(missing, "description")
	}
	if strings.TrimSpace(l.Category) == "" {
		missing = append(missing, "category")
	}
	if strings.TrimSpace(l.Condition) == "" {
		missing = append(missing, "condition")
	}
	if l.Kind == KindItem && strings.TrimSpace(l.Location) == "" {
		missing = append(missing, "location")
	}
	if l.Kind == KindMusic && len(l.Media) == 0 {
		missing = append(missing, "media")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidListing, strings.Join(missing, ", "))
	}
	if l.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidListing)
	}
	if !contains(ConditionsFor(l.Kind), l.Condition) {
		return fmt.Errorf("%w: %q is not a valid %s", ErrInvalidListing, l.Condition, conditionLabel(l.Kind))
	}
	return nil
}

func conditionLabel(kind ListingKind) string {
	if kind == KindMusic {
		return "tempo"
	}
	return "condition"
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
