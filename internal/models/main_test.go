package models

import (
	"errors"
	"math"
	"testing"
)

func TestProductFields_Validate(t *testing.T) {
	tests := []struct {
		name    string
		fields  ProductFields
		wantErr bool
	}{
		{"valid", ProductFields{Name: "Tamarind", Category: "Drinks", Price: 15000}, false},
		{"free", ProductFields{Name: "Sample", Category: "Misc", Price: 0}, false},
		{"blank name", ProductFields{Name: " \t", Category: "Drinks", Price: 1}, true},
		{"blank category", ProductFields{Name: "Tea", Category: "", Price: 1}, true},
		{"negative price", ProductFields{Name: "Tea", Category: "Drinks", Price: -0.01}, true},
		{"NaN price", ProductFields{Name: "Tea", Category: "Drinks", Price: math.NaN()}, true},
		{"infinite price", ProductFields{Name: "Tea", Category: "Drinks", Price: math.Inf(1)}, true},
		{"cents", ProductFields{Name: "Tea", Category: "Drinks", Price: 1.01}, false},
		{"half cent", ProductFields{Name: "Tea", Category: "Drinks", Price: 1.005}, true},
		{"float sum", ProductFields{Name: "Tea", Category: "Drinks", Price: 0.1 + 0.2}, true},
		{"largest price", ProductFields{Name: "Tea", Category: "Drinks", Price: 999999999999.99}, false},
		{"at limit", ProductFields{Name: "Tea", Category: "Drinks", Price: 1e12}, true},
		{"far above limit", ProductFields{Name: "Tea", Category: "Drinks", Price: 1e300}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.fields.Validate()
			if tt.wantErr && !errors.Is(err, ErrInvalidProduct) {
				t.Errorf("Validate() = %v; want ErrInvalidProduct", err)
			}
			if !tt.wantErr && err != nil {
				t.Errorf("Validate() = %v; want nil", err)
			}
		})
	}
}

func TestProductFields_Normalize(t *testing.T) {
	got := ProductFields{Name: "  Ginger Tea ", Category: "\tDrinks\n", Price: 3}.Normalize()
	want := ProductFields{Name: "Ginger Tea", Category: "Drinks", Price: 3}
	if got != want {
		t.Errorf("Normalize() = %+v; want %+v", got, want)
	}
}

func TestStorageError(t *testing.T) {
	cause := errors.New("connection refused")
	err := StorageError("insert product", cause)
	if !errors.Is(err, ErrStorage) || !errors.Is(err, cause) {
		t.Fatalf("StorageError must wrap both ErrStorage and the cause: %v", err)
	}
	if got, want := err.Error(), "insert product: storage failure: connection refused"; got != want {
		t.Errorf("Error() = %q; want %q", got, want)
	}
}
