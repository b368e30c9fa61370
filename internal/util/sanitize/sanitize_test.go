package sanitize

import (
	"testing"
)

func TestField(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Empty", input: "", expected: ""},
		{name: "CRLF folded", input: "Acme\r\nSupplies", expected: "Acme Supplies"},
		{name: "Zero-width space", input: "Ac\u200Bme", expected: "Acme"},
		{name: "BOM", input: "\uFEFFAcme", expected: "Acme"},
		{name: "Soft hyphen", input: "Ac\u00ADme", expected: "Acme"},
		{name: "Tabs and spaces", input: "Acme \t\t  Co", expected: "Acme Co"},
		{name: "Trim", input: "   Acme   ", expected: "Acme"},
		{name: "Commas kept", input: "Acme, Inc.", expected: "Acme, Inc."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Field(tt.input); got != tt.expected {
				t.Errorf("Field(%q) = %q, want %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestCell(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"=SUM(A1:A9)", "'=SUM(A1:A9)"},
		{"+1 555 0100", "'+1 555 0100"},
		{"@cmd", "'@cmd"},
		{"-2+3", "'-2+3"},
		{"-42", "-42"},
		{"-$1,234.50", "-$1,234.50"},
		{"  =1 ", "'=1"},
		{"Acme", "Acme"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := Cell(tt.input); got != tt.expected {
			t.Errorf("Cell(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}
