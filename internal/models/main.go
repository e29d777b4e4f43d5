// Package models defines the core data structures for products and users.
package models

import (
	"math"
	"strings"
)

// Product is one catalog item.
type Product struct {
	// ID is the unique identifier assigned on creation.
	ID int64 `json:"id"`
	// Name is the display name of the product.
	Name string `json:"name"`
	// Category groups products, e.g. "Drinks".
	Category string `json:"category"`
	// Price is a non-negative amount in main currency units.
	Price float64 `json:"price"`
	// Image is the stored name of the product image inside the upload root.
	// Empty when the product has no image.
	Image string `json:"-"`
	// ImagePath is the public path of the image, derived from Image at read time.
	ImagePath *string `json:"image_path"`
}

// ProductFields holds the mutable fields of a product. Update overwrites all of them.
type ProductFields struct {
	Name     string
	Category string
	Price    float64
}

// Normalize trims surrounding whitespace from the text fields.
func (f ProductFields) Normalize() ProductFields {
	f.Name = strings.TrimSpace(f.Name)
	f.Category = strings.TrimSpace(f.Category)
	return f
}

// PriceLimit is the exclusive upper bound of a price. Together with the two
// decimal places it matches the NUMERIC(14,2) products.price column.
const PriceLimit = 1e12

// Validate reports ErrInvalidProduct when a required field is empty or the
// price is not a non-negative amount that the price column stores exactly.
func (f ProductFields) Validate() error {
	switch {
	case strings.TrimSpace(f.Name) == "":
		return invalid("name is required")
	case strings.TrimSpace(f.Category) == "":
		return invalid("category is required")
	case math.IsNaN(f.Price) || math.IsInf(f.Price, 0):
		return invalid("price must be a finite number")
	case f.Price < 0:
		return invalid("price must be non-negative")
	case f.Price >= PriceLimit:
		return invalid("price must be below 1e12")
	case math.Round(f.Price*100)/100 != f.Price:
		return invalid("price must have at most 2 decimal places")
	}
	return nil
}

// Upload is a client supplied file attached to a create or update request.
type Upload struct {
	// Filename is the name declared by the client. Only its extension is used.
	Filename string
	// Data is the raw file content.
	Data []byte
}

// User represents an authenticating principal.
type User struct {
	// ID is the unique identifier for the user.
	ID int64
	// Username is the unique login name.
	Username string
	// PasswordHash is the bcrypt hash of the password.
	PasswordHash string
	// IsAdmin marks the user as privileged.
	IsAdmin bool
}

// Page is the result envelope of a product query.
type Page struct {
	TotalItems  int       `json:"total_items"`
	TotalPages  int       `json:"total_pages"`
	CurrentPage int       `json:"current_page"`
	Items       []Product `json:"items"`
}
