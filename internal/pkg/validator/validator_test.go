package validator

import (
	"errors"
	"testing"
)

func TestIsEmpty(t *testing.T) {
	cases := []struct {
		input string
		want  bool
	}{
		{"", true},
		{"   ", true},
		{"abc", false},
		{" abc ", false},
	}
	for _, c := range cases {
		got := IsEmpty(c.input)
		if got != c.want {
			t.Errorf("IsEmpty(%q) = %v, want %v", c.input, got, c.want)
		}
	}
}

func TestIsValidUUID(t *testing.T) {
	valid := []string{
		"3f2b8a4e-9c1d-4e7a-8b2f-1a2b3c4d5e6f",
		"0190b6d2-7c3e-7a1b-9f00-123456789abc",
		"3F2B8A4E-9C1D-4E7A-8B2F-1A2B3C4D5E6F",
	}
	invalid := []string{
		"",
		"not-a-uuid",
		"3f2b8a4e9c1d4e7a8b2f1a2b3c4d5e6f",
		"{3f2b8a4e-9c1d-4e7a-8b2f-1a2b3c4d5e6f}",
		"urn:uuid:3f2b8a4e-9c1d-4e7a-8b2f-1a2b3c4d5e6f",
	}
	for _, id := range valid {
		if !IsValidUUID(id) {
			t.Errorf("IsValidUUID(%q) = false, want true", id)
		}
	}
	for _, id := range invalid {
		if IsValidUUID(id) {
			t.Errorf("IsValidUUID(%q) = true, want false", id)
		}
	}
}

func TestIsInSlice(t *testing.T) {
	slice := []string{"draft", "processing", "finalized"}
	if !IsInSlice("draft", slice) {
		t.Errorf("IsInSlice(draft) = false, want true")
	}
	if IsInSlice("paid", slice) {
		t.Errorf("IsInSlice(paid) = true, want false")
	}
}

func TestParseOptionalInt(t *testing.T) {
	got, err := ParseOptionalInt("month", "")
	if err != nil || got != nil {
		t.Errorf("ParseOptionalInt(\"\") = %v, %v, want nil, nil", got, err)
	}

	got, err = ParseOptionalInt("month", " 7 ")
	if err != nil || got == nil || *got != 7 {
		t.Errorf("ParseOptionalInt(\" 7 \") = %v, %v, want 7, nil", got, err)
	}

	_, err = ParseOptionalInt("month", "july")
	var verrs ValidationErrors
	if !errors.As(err, &verrs) {
		t.Fatalf("ParseOptionalInt(july) error = %v, want ValidationErrors", err)
	}
	if verrs.ToMap()["month"] != "must be an integer" {
		t.Errorf("unexpected details: %v", verrs.ToMap())
	}
}

func TestValidationErrors_Error(t *testing.T) {
	errs := ValidationErrors{
		{Field: "month", Message: "must be between 1 and 12"},
		{Field: "year", Message: "must be between 2000 and 2100"},
	}
	want := "month: must be between 1 and 12; year: must be between 2000 and 2100"
	if errs.Error() != want {
		t.Errorf("Error() = %q, want %q", errs.Error(), want)
	}
}
