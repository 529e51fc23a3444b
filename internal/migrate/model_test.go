package migrate_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"sailorskills-migrate/internal/migrate"
)

func TestLoadCustomerMapping(t *testing.T) {
	t.Run("ValidFile", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "customer-mapping.json")
		content := `[{"zoho_customer_id":"Z1","sailor_customer_id":"C1"}]`
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}

		mapping, err := migrate.LoadCustomerMapping(path)
		if err != nil {
			t.Fatalf("LoadCustomerMapping: %v", err)
		}
		if len(mapping) != 1 || mapping[0].SailorCustomerID != "C1" {
			t.Errorf("unexpected mapping: %+v", mapping)
		}
	})

	t.Run("MissingFilePointsAtMapCustomers", func(t *testing.T) {
		_, err := migrate.LoadCustomerMapping(filepath.Join(t.TempDir(), "nope.json"))
		if err == nil {
			t.Fatal("expected error for missing mapping file")
		}
		if !strings.Contains(err.Error(), "map-customers") {
			t.Errorf("expected hint to run map-customers, got %v", err)
		}
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "customer-mapping.json")
		if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := migrate.LoadCustomerMapping(path); err == nil {
			t.Error("expected decode error")
		}
	})
}
