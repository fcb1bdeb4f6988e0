package datapoint

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/nerrad567/gray-logic-codec/internal/infrastructure/database"
	"github.com/nerrad567/gray-logic-codec/migrations"
)

// setupTestDB opens a migrated SQLite database in a temporary directory.
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := database.Open(database.Config{Path: filepath.Join(t.TempDir(), "catalog.db"), BusyTimeout: 5})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() }) //nolint:errcheck // Test cleanup

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.Migrate(ctx, migrations.FS); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db.DB
}

func testDatapoint(name, token, ga string) *Datapoint {
	return &Datapoint{Name: name, Token: token, GroupAddress: ga, Source: SourceAPI}
}

// ─── Create / Get ───────────────────────────────────────────────────

func TestSQLiteRepository_CreateAndGet(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	d := testDatapoint("flow_temp", "9.001", "1/2/3")
	d.Description = "Boiler flow temperature"
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if d.CreatedAt.IsZero() || d.UpdatedAt.IsZero() {
		t.Error("Create() did not set timestamps")
	}

	got, err := repo.Get(ctx, "flow_temp")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Token != "9.001" || got.GroupAddress != "1/2/3" || got.Description != d.Description {
		t.Errorf("Get() = %+v", got)
	}
	if got.Source != SourceAPI {
		t.Errorf("Source = %q, want %q", got.Source, SourceAPI)
	}
}

func TestSQLiteRepository_CreateDuplicate(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	if err := repo.Create(ctx, testDatapoint("a", "9.001", "1/2/3")); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if err := repo.Create(ctx, testDatapoint("a", "9.001", "")); !errors.Is(err, ErrExists) {
		t.Errorf("duplicate name error = %v, want ErrExists", err)
	}
	if err := repo.Create(ctx, testDatapoint("b", "9.001", "1/2/3")); !errors.Is(err, ErrGroupAddressInUse) {
		t.Errorf("duplicate group address error = %v, want ErrGroupAddressInUse", err)
	}
	// Datapoints without a group address do not collide.
	if err := repo.Create(ctx, testDatapoint("m1", "holding-register:1:REAL", "")); err != nil {
		t.Errorf("Create(m1) error = %v", err)
	}
	if err := repo.Create(ctx, testDatapoint("m2", "holding-register:3:REAL", "")); err != nil {
		t.Errorf("Create(m2) error = %v", err)
	}
}

func TestSQLiteRepository_GetNotFound(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get() error = %v, want ErrNotFound", err)
	}
}

// ─── Update / Upsert / Delete ───────────────────────────────────────

func TestSQLiteRepository_Update(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	d := testDatapoint("meter", "holding-register:1:REAL", "")
	if err := repo.Create(ctx, d); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	d.Token = "holding-register:1:LREAL"
	d.UnitID = 7
	if err := repo.Update(ctx, d); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	got, err := repo.Get(ctx, "meter")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Token != "holding-register:1:LREAL" || got.UnitID != 7 {
		t.Errorf("after Update() = %+v", got)
	}

	if err := repo.Update(ctx, testDatapoint("ghost", "9.001", "")); !errors.Is(err, ErrNotFound) {
		t.Errorf("Update(missing) error = %v, want ErrNotFound", err)
	}
}

func TestSQLiteRepository_Upsert(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	created, err := repo.Upsert(ctx, testDatapoint("lux", "9.004", "2/0/1"))
	if err != nil || !created {
		t.Fatalf("first Upsert() = %v, %v; want created", created, err)
	}
	first, _ := repo.Get(ctx, "lux")

	created, err = repo.Upsert(ctx, testDatapoint("lux", "DPST-9-4", "2/0/2"))
	if err != nil || created {
		t.Fatalf("second Upsert() = %v, %v; want updated", created, err)
	}
	got, err := repo.Get(ctx, "lux")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got.Token != "DPST-9-4" || got.GroupAddress != "2/0/2" {
		t.Errorf("after Upsert() = %+v", got)
	}
	if !got.CreatedAt.Equal(first.CreatedAt) {
		t.Errorf("CreatedAt changed from %v to %v", first.CreatedAt, got.CreatedAt)
	}
}

func TestSQLiteRepository_DeleteAndList(t *testing.T) {
	repo := NewSQLiteRepository(setupTestDB(t))
	ctx := context.Background()

	for _, name := range []string{"c", "a", "b"} {
		if err := repo.Create(ctx, testDatapoint(name, "1.001", "")); err != nil {
			t.Fatalf("Create(%s) error = %v", name, err)
		}
	}
	if err := repo.Delete(ctx, "b"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if err := repo.Delete(ctx, "b"); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete() error = %v, want ErrNotFound", err)
	}

	all, err := repo.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(all) != 2 || all[0].Name != "a" || all[1].Name != "c" {
		t.Errorf("List() = %+v, want [a c]", all)
	}
}
