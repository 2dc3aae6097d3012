package database

import (
	"testing"
)

func TestSeedIdempotent(t *testing.T) {
	db, err := Connect(testDSN())
	if err != nil {
		t.Skipf("skipping: DB not available: %v", err)
	}
	defer db.Close()

	if err := Migrate(db); err != nil {
		t.Fatalf("Migrate: %v", err)
	}

	// Seed only inserts into empty tables, so calling it twice must succeed
	// without duplicating rows. The database is not cleared first because
	// other test packages may be running against it concurrently.
	if err := Seed(db); err != nil {
		t.Fatalf("first Seed: %v", err)
	}

	var before int
	if err := db.QueryRow("SELECT COUNT(*) FROM items").Scan(&before); err != nil {
		t.Fatalf("count items: %v", err)
	}

	if err := Seed(db); err != nil {
		t.Fatalf("second Seed: %v", err)
	}

	var after int
	if err := db.QueryRow("SELECT COUNT(*) FROM items").Scan(&after); err != nil {
		t.Fatalf("count items: %v", err)
	}
	if after != before {
		t.Errorf("second Seed changed item count: %d -> %d", before, after)
	}

	var userCount int
	if err := db.QueryRow("SELECT COUNT(*) FROM users").Scan(&userCount); err != nil {
		t.Fatalf("count users: %v", err)
	}
	if userCount < 1 {
		t.Errorf("expected at least 1 user, got %d", userCount)
	}
	if after < 1 {
		t.Errorf("expected at least 1 item, got %d", after)
	}
}

func TestSeedItemsUseValidCategories(t *testing.T) {
	valid := map[string]bool{"Infographic": true, "บทความ": true, "เทคโนโลยี": true}
	for _, it := range seedItems {
		if !valid[it.category] {
			t.Errorf("seed item %q has invalid category %q", it.title, it.category)
		}
		if it.title == "" || it.date == "" {
			t.Errorf("seed item missing title or date: %+v", it)
		}
	}
}
