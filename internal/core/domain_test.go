package core

import (
	"strings"
	"testing"
)

func TestElementValidate(t *testing.T) {
	good := Element{Description: "groceries", Amount: 120.50, Type: "food"}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Element{
		{Description: "a", Amount: -1, Type: "food"},
		{Description: "a", Amount: 1, Type: ""},
		{Description: "a", Amount: 1, Type: "   "},
		{Description: strings.Repeat("x", DescriptionCharLimit+1), Amount: 1, Type: "food"},
		{Description: "a", Amount: 1, Type: strings.Repeat("x", TypeCharLimit+1)},
	}
	for i, e := range bads {
		if err := e.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}

	// Boundary lengths pass; zero amount passes.
	edge := Element{
		Description: strings.Repeat("x", DescriptionCharLimit),
		Amount:      0,
		Type:        strings.Repeat("y", TypeCharLimit),
	}
	if err := edge.Validate(); err != nil {
		t.Fatalf("expected boundary lengths ok, got %v", err)
	}
}

func TestElementCanAccess(t *testing.T) {
	e := Element{OwnerID: 7}

	cases := []struct {
		actor Actor
		want  bool
	}{
		{Actor{UserID: 7}, true},
		{Actor{UserID: 8}, false},
		{Actor{UserID: 8, IsAdmin: true}, true},
		{Actor{UserID: 7, IsAdmin: true}, true},
	}
	for i, tc := range cases {
		if got := e.CanAccess(tc.actor); got != tc.want {
			t.Fatalf("case %d: got %v, want %v", i, got, tc.want)
		}
	}
}

func TestFeedbackValidate(t *testing.T) {
	if err := (Feedback{Description: "love it", Type: "praise"}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Feedback{Description: "x", Type: ""}).Validate(); err == nil {
		t.Fatalf("expected error for empty type")
	}
	if err := (Feedback{Description: strings.Repeat("x", DescriptionCharLimit+1), Type: "bug"}).Validate(); err == nil {
		t.Fatalf("expected error for oversized description")
	}
}

func TestValidEmail(t *testing.T) {
	cases := []struct {
		email string
		want  bool
	}{
		{"user@example.com", true},
		{"first.last@sub.example.org", true},
		{"user@localhost", false},
		{"not-an-email", false},
		{"@example.com", false},
		{"user@.com", false},
		{"", false},
	}
	for _, tc := range cases {
		if got := ValidEmail(tc.email); got != tc.want {
			t.Errorf("ValidEmail(%q) = %v, want %v", tc.email, got, tc.want)
		}
	}
}
