package backend

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mvcmarket/marketplace/internal/core/domain"
)

// wireTime accepts RFC 3339 as well as the zone-less ISO timestamps the
// marketplace API emits.
type wireTime time.Time

var wireLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05",
}

func (t *wireTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	s = strings.TrimSpace(s)
	if s == "" {
		*t = wireTime(time.Time{})
		return nil
	}
	for _, layout := range wireLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			*t = wireTime(parsed.UTC())
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognised format %q", s)
}

func (t wireTime) MarshalJSON() ([]byte, error) {
	return json.Marshal(time.Time(t).UTC().Format(time.RFC3339))
}

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

type wireUser struct {
	ID        string   `json:"id"`
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Role      string   `json:"role"`
	CreatedAt wireTime `json:"created_at"`
}

func (u wireUser) toDomain() *domain.User {
	role := u.Role
	if role != domain.RoleAdmin {
		role = domain.RoleUser
	}
	return &domain.User{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      role,
		CreatedAt: time.Time(u.CreatedAt),
	}
}

// wireListing is the union of the item and music track payloads.
type wireListing struct {
	ID             string    `json:"id,omitempty"`
	UserID         string    `json:"user_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	Price          float64   `json:"price"`
	Category       string    `json:"category,omitempty"`
	Condition      string    `json:"condition,omitempty"`
	Genre          string    `json:"genre,omitempty"`
	Tempo          string    `json:"tempo,omitempty"`
	Mood           string    `json:"mood,omitempty"`
	MusicURL       string    `json:"music_url,omitempty"`
	Location       string    `json:"location,omitempty"`
	Images         []string  `json:"images"`
	SellerUsername string    `json:"seller_username,omitempty"`
	CreatedAt      *wireTime `json:"created_at,omitempty"`
	UpdatedAt      *wireTime `json:"updated_at,omitempty"`
}

func toWire(l domain.Listing) wireListing {
	w := wireListing{
		UserID:      l.UserID,
		Title:       l.Title,
		Description: l.Description,
		Price:       l.Price,
		Location:    l.Location,
		Images:      []string{},
	}
	if l.Kind == domain.KindMusic {
		w.Genre, w.Tempo, w.Mood = l.Category, l.Condition, l.Tag
		if len(l.Media) > 0 {
			w.MusicURL = l.Media[0]
			w.Images = append(w.Images, l.Media[1:]...)
		}
		return w
	}
	w.Category, w.Condition = l.Category, l.Condition
	w.Images = append(w.Images, l.Media...)
	return w
}

func (w wireListing) toDomain(kind domain.ListingKind) domain.Listing {
	l := domain.Listing{
		ID:             w.ID,
		UserID:         w.UserID,
		Kind:           kind,
		Title:          w.Title,
		Description:    w.Description,
		Price:          w.Price,
		Location:       w.Location,
		SellerUsername: w.SellerUsername,
	}
	if w.CreatedAt != nil {
		l.CreatedAt = time.Time(*w.CreatedAt)
	}
	if w.UpdatedAt != nil {
		l.UpdatedAt = time.Time(*w.UpdatedAt)
	}
	if kind == domain.KindMusic {
		l.Category, l.Condition, l.Tag = w.Genre, w.Tempo, w.Mood
		if w.MusicURL != "" {
			l.Media = append(l.Media, w.MusicURL)
		}
		l.Media = append(l.Media, w.Images...)
		return l
	}
	l.Category, l.Condition = w.Category, w.Condition
	l.Media = append(l.Media, w.Images...)
	return l
}

type errorBody struct {
	Error string `json:"error"`
}
