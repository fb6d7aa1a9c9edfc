package domain

import (
	"testing"

	"github.com/shopspring/decimal"
)

func TestCustomerValidate(t *testing.T) {
	full := Customer{Name: "Ana", Phone: "555", Email: "not-an-email", Address: "Calle 1"}
	if errs := full.Validate(); len(errs) != 0 {
		t.Fatalf("format must not be checked, got %v", errs)
	}

	partial := Customer{Name: "Ana", Phone: "  "}
	errs := partial.Validate()
	if len(errs) != 3 {
		t.Fatalf("expected phone, email and address errors, got %v", errs)
	}
	for _, err := range errs {
		if !IsValidation(err) {
			t.Fatalf("expected validation class, got %v", err)
		}
	}
}

func TestCustomerNormalize(t *testing.T) {
	got := Customer{Name: " Ana ", Phone: "\t555", Email: "a@b.c ", Address: " Calle 1\n"}.Normalize()
	want := Customer{Name: "Ana", Phone: "555", Email: "a@b.c", Address: "Calle 1"}
	if got != want {
		t.Fatalf("Normalize() = %+v, want %+v", got, want)
	}
}

func TestNewOrderSummary(t *testing.T) {
	cart := NewCart(
		CartLine{ProductID: "p1", Name: "Laptop", UnitPrice: decimal.RequireFromString("999.99"), Quantity: 1},
		CartLine{ProductID: "p2", Name: "Shoes", UnitPrice: decimal.RequireFromString("89.99"), Quantity: 2},
	)
	summary := NewOrderSummary(Customer{Name: "Ana"}, cart)

	if len(summary.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(summary.Lines))
	}
	if !summary.Total.Equal(decimal.RequireFromString("1179.97")) {
		t.Fatalf("total = %s, want 1179.97", summary.Total)
	}
}
