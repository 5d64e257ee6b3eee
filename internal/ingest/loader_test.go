package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeCSV(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	return path
}

func TestForEachRowParsesRecords(t *testing.T) {
	path := writeCSV(t, "products.csv", "code,name,unit_code\nSKU-1, Apples ,kg\nSKU-2,Pears,pcs\n")

	var codes, units []string
	err := forEachRow(path, []string{"code", "unit_code"}, func(row csvRow) error {
		codes = append(codes, row.get("code"))
		units = append(units, row.get("unit_code"))
		return nil
	})
	if err != nil {
		t.Fatalf("forEachRow: %v", err)
	}

	if len(codes) != 2 || codes[0] != "SKU-1" || codes[1] != "SKU-2" {
		t.Fatalf("unexpected codes: %v", codes)
	}
	if units[0] != "kg" || units[1] != "pcs" {
		t.Fatalf("unexpected units: %v", units)
	}
}

func TestForEachRowTrimsCells(t *testing.T) {
	path := writeCSV(t, "rows.csv", "name\n  spaced value  \n")

	var got string
	err := forEachRow(path, []string{"name"}, func(row csvRow) error {
		got = row.get("name")
		return nil
	})
	if err != nil {
		t.Fatalf("forEachRow: %v", err)
	}
	if got != "spaced value" {
		t.Fatalf("cell not trimmed: %q", got)
	}
}

func TestForEachRowMissingColumn(t *testing.T) {
	path := writeCSV(t, "rows.csv", "code,name\nSKU-1,Apples\n")

	err := forEachRow(path, []string{"code", "tier"}, func(row csvRow) error { return nil })
	if err == nil || !strings.Contains(err.Error(), `"tier"`) {
		t.Fatalf("expected missing column error, got %v", err)
	}
}

func TestForEachRowReportsLineOnError(t *testing.T) {
	path := writeCSV(t, "rows.csv", "code\nok\nbad\n")

	err := forEachRow(path, []string{"code"}, func(row csvRow) error {
		if row.get("code") == "bad" {
			return os.ErrInvalid
		}
		return nil
	})
	if err == nil || !strings.Contains(err.Error(), "line 3") {
		t.Fatalf("expected line number in error, got %v", err)
	}
}

func TestParseNullableFloat(t *testing.T) {
	tests := []struct {
		in      string
		want    float64
		valid   bool
		wantErr bool
	}{
		{in: "", valid: false},
		{in: "2.5", want: 2.5, valid: true},
		{in: "0", want: 0, valid: true},
		{in: "abc", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseNullableFloat(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("parseNullableFloat(%q): %v", tt.in, err)
			}
			if got.Valid != tt.valid || (got.Valid && got.Float64 != tt.want) {
				t.Fatalf("parseNullableFloat(%q) = %+v", tt.in, got)
			}
		})
	}
}
