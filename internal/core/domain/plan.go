package domain

type PricingPlan struct {
	ID        string   `json:"id"`
	Name      string   `json:"name"`
	Price     float64  `json:"price"`
	Period    string   `json:"period"`
	Features  []string `json:"features"`
	Highlight bool     `json:"highlight,omitempty"`
}

// PricingPlans is the published seller plan table. Plans are informational only.
var PricingPlans = []PricingPlan{
	{
		ID:     "free",
		Name:   "Free",
		Price:  0,
		Period: "month",
		Features: []string{
			"List up to 5 items",
			"Basic search functionality",
			"Standard listing visibility",
			"Email support",
		},
	},
	{
		ID:     "pro",
		Name:   "Pro Seller",
		Price:  9.99,
		Period: "month",
		Features: []string{
			"List up to 50 items",
			"Advanced search with filters",
			"Featured listings (prioritized in search)",
			"Analytics dashboard",
			"Priority email support",
		},
		Highlight: true,
	},
	{
		ID:     "business",
		Name:   "Business",
		Price:  29.99,
		Period: "month",
		Features: []string{
			"Unlimited item listings",
			"Custom storefront",
			"Advanced analytics",
			"API access",
			"Bulk import/export",
			"Dedicated account manager",
			"Phone and email support",
		},
	},
}
