package memory

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mvcmarket/marketplace/internal/core/domain"
)

type seedUser struct {
	id, username, secret, email, role string
	createdAt                         string
}

var seedUsers = []seedUser{
	{"1", "muser", "muser", "muser@example.com", domain.RoleUser, "2023-01-15T08:30:00Z"},
	{"2", "mvc", "mvc", "mvc@example.com", domain.RoleAdmin, "2023-01-01T12:00:00Z"},
}

// SeedUsers returns the demo accounts with their secrets hashed at cost.
func SeedUsers(cost int) ([]domain.User, error) {
	out := make([]domain.User, 0, len(seedUsers))
	for _, s := range seedUsers {
		hash, err := bcrypt.GenerateFromPassword([]byte(s.secret), cost)
		if err != nil {
			return nil, fmt.Errorf("seed user %s: %w", s.username, err)
		}
		out = append(out, domain.User{
			ID:           s.id,
			Username:     s.username,
			Email:        s.email,
			PasswordHash: string(hash),
			Role:         s.role,
			CreatedAt:    mustTime(s.createdAt),
		})
	}
	return out, nil
}

// SeedListings returns the demo catalog with fresh ids.
func SeedListings() []domain.Listing {
	item := func(owner, title, desc string, price float64, category, condition, location, at string) domain.Listing {
		ts := mustTime(at)
		return domain.Listing{
			ID:          uuid.NewString(),
			UserID:      owner,
			Kind:        domain.KindItem,
			Title:       title,
			Description: desc,
			Price:       price,
			Category:    category,
			Condition:   condition,
			Location:    location,
			Media:       []string{"/placeholder.svg"},
			CreatedAt:   ts,
			UpdatedAt:   ts,
		}
	}

	return []domain.Listing{
		item("1", `MacBook Pro 16" 2021`,
			"M1 Pro chip, 16GB RAM, 512GB SSD, Space Gray. Used for 6 months, excellent condition.",
			1899.99, "Electronics", "like new", "San Francisco, CA", "2023-05-15T14:22:00Z"),
		item("1", "Vintage Leather Jacket",
			"Genuine leather, size M, brown color. Some natural wear adds character.",
			120, "Clothing", "good", "Portland, OR", "2023-06-22T09:15:00Z"),
		item("2", "Mountain Bike - Trek Marlin 7",
			`2022 model, 29" wheels, hydraulic disc brakes, front suspension. Ridden less than 100 miles.`,
			650, "Sports & Outdoors", "like new", "Denver, CO", "2023-07-05T16:40:00Z"),
		item("1", "Antique Wooden Bookshelf",
			"Solid oak, 6ft tall, 4ft wide. Early 20th century craftsmanship, some minor scratches.",
			350, "Home & Garden", "good", "Boston, MA", "2023-08-12T11:30:00Z"),
		item("2", "Sony PlayStation 5",
			"Disc version, includes 2 controllers and 3 games. Original packaging available.",
			499.99, "Electronics", "like new", "Miami, FL", "2023-09-03T08:50:00Z"),
		item("1", "First Edition Book Collection",
			"Set of 5 first edition classic novels in pristine condition. Collector's items.",
			1200, "Books", "good", "New York, NY", "2023-10-18T13:25:00Z"),
	}
}

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}
