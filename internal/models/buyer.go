package models

// Category classifies a buyer's typical investment behaviour.
type Category string

const (
	CategoryFlipper  Category = "flipper"
	CategoryLandlord Category = "landlord"
	CategoryCash     Category = "cash"
	CategoryUnknown  Category = "unknown"

	// CategoryAll is only meaningful as a query filter.
	CategoryAll Category = "all"
)

// BuyerCategories lists the categories a Buyer can carry.
var BuyerCategories = []Category{CategoryFlipper, CategoryLandlord, CategoryCash, CategoryUnknown}

// IsBuyerCategory reports whether c is one of BuyerCategories.
func (c Category) IsBuyerCategory() bool {
	switch c {
	case CategoryFlipper, CategoryLandlord, CategoryCash, CategoryUnknown:
		return true
	}
	return false
}

// IsFilter reports whether c is accepted as a query category.
func (c Category) IsFilter() bool {
	return c == CategoryAll || c.IsBuyerCategory()
}

type Contact struct {
	Phone string `json:"phone,omitempty"`
	Email string `json:"email,omitempty"`
}

type Buyer struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Category Category  `json:"category"`
	Contacts []Contact `json:"contacts"`
}
