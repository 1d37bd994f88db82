package domain

import (
	"strings"
	"testing"
	"time"
)

func invoiceSchema() map[string]FieldSpec {
	return map[string]FieldSpec{
		"invoice_number": {Type: FieldString},
		"total":          {Type: FieldNumber},
		"issued_on":      {Type: FieldDate},
		"paid":           {Type: FieldBoolean},
	}
}

func TestCoerceFieldsDropsNonSchemaKeys(t *testing.T) {
	fields, warnings := CoerceFields(invoiceSchema(), map[string]any{
		"invoice_number": "INV-001",
		"vendor_notes":   "not in the schema",
		"total":          42.5,
	})

	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if _, ok := fields["vendor_notes"]; ok {
		t.Fatalf("non-schema key must be dropped, got %v", fields)
	}
	if fields["invoice_number"] != "INV-001" {
		t.Fatalf("unexpected invoice_number: %v", fields["invoice_number"])
	}
	if fields["total"] != 42.5 {
		t.Fatalf("unexpected total: %v", fields["total"])
	}
}

func TestCoerceFieldsConvertsCompatibleValues(t *testing.T) {
	fields, warnings := CoerceFields(invoiceSchema(), map[string]any{
		"invoice_number": 1042.0,
		"total":          " 19.99 ",
		"issued_on":      "2026-02-14T09:30:00Z",
		"paid":           "true",
	})

	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if fields["invoice_number"] != "1042" {
		t.Fatalf("number should stringify, got %v", fields["invoice_number"])
	}
	if fields["total"] != 19.99 {
		t.Fatalf("string should parse as number, got %v", fields["total"])
	}
	if fields["issued_on"] != "2026-02-14" {
		t.Fatalf("RFC3339 should collapse to a date, got %v", fields["issued_on"])
	}
	if fields["paid"] != true {
		t.Fatalf("string should parse as boolean, got %v", fields["paid"])
	}
}

func TestCoerceFieldsWarnsAndDropsUncoercibleValues(t *testing.T) {
	fields, warnings := CoerceFields(invoiceSchema(), map[string]any{
		"invoice_number": "INV-002",
		"total":          "not a number",
		"issued_on":      "last tuesday",
		"paid":           nil,
	})

	if len(fields) != 1 || fields["invoice_number"] != "INV-002" {
		t.Fatalf("only the valid field should survive, got %v", fields)
	}
	if len(warnings) != 3 {
		t.Fatalf("expected 3 warnings, got %v", warnings)
	}
	// Warnings come out sorted by field name.
	for i, prefix := range []string{`field "issued_on"`, `field "paid"`, `field "total"`} {
		if !strings.HasPrefix(warnings[i], prefix) {
			t.Fatalf("warning %d = %q, want prefix %q", i, warnings[i], prefix)
		}
	}
}

func TestCoerceFieldsAcceptsTimeValueForDate(t *testing.T) {
	schema := map[string]FieldSpec{"purchased_on": {Type: FieldDate}}
	issued := time.Date(2026, 3, 1, 23, 59, 0, 0, time.UTC)

	fields, warnings := CoerceFields(schema, map[string]any{"purchased_on": issued})
	if len(warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", warnings)
	}
	if fields["purchased_on"] != "2026-03-01" {
		t.Fatalf("unexpected date: %v", fields["purchased_on"])
	}
}
