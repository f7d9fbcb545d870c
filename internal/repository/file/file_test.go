package file

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"rackplan/internal/codec"
	"rackplan/internal/domain"
	"rackplan/internal/repository"
)

func assertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func testSnapshot(seq uint64) domain.Snapshot {
	return domain.Snapshot{
		Seq:     seq,
		TakenAt: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
		Racks:   domain.DefaultCatalog(42),
		Devices: []domain.Device{
			{
				ID: "x", Category: domain.CategoryNetwork, Code: "SW-01", Size: 2,
				Before: &domain.Placement{RackID: "A1", Start: 40, End: 41},
				Status: domain.MigrationStatus{Cabled: true},
			},
		},
	}
}

func TestStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	for _, name := range []string{"state.json", "state.yaml"} {
		t.Run(name, func(t *testing.T) {
			store, err := Open(filepath.Join(t.TempDir(), "nested", name))
			assertNoError(t, err)
			defer store.Close()

			_, err = store.Load(ctx)
			if !errors.Is(err, repository.ErrNoSnapshot) {
				t.Fatalf("expected ErrNoSnapshot before first save, got %v", err)
			}

			assertNoError(t, store.Save(ctx, testSnapshot(3)))
			assertNoError(t, store.Save(ctx, testSnapshot(4)))

			raw, err := store.Load(ctx)
			assertNoError(t, err)
			if raw.Seq != 4 {
				t.Errorf("expected seq 4, got %d", raw.Seq)
			}
			if len(raw.Devices) != 1 {
				t.Fatalf("expected 1 record, got %d", len(raw.Devices))
			}
			rec := domain.RepairRecord(raw.Devices[0], 42)
			if rec.Before == nil || rec.Before.RackID != "A1" || rec.Before.Start != 40 {
				t.Errorf("unexpected before placement: %+v", rec.Before)
			}
			if !rec.Device.Status.Cabled {
				t.Error("expected cabled flag to survive")
			}
		})
	}
}

func TestStoreLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	store, err := Open(filepath.Join(dir, "state.json"))
	assertNoError(t, err)
	assertNoError(t, store.Save(context.Background(), testSnapshot(1)))

	entries, err := os.ReadDir(dir)
	assertNoError(t, err)
	if len(entries) != 1 || entries[0].Name() != "state.json" {
		t.Errorf("expected only state.json, got %v", entries)
	}
}

func TestOpenUnknownExtension(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "state.db"))
	if !errors.Is(err, codec.ErrUnknownFormat) {
		t.Errorf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestLoadCorrupt(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.json")
	assertNoError(t, os.WriteFile(path, []byte("{oops"), 0644))

	store, err := Open(path)
	assertNoError(t, err)
	if _, err := store.Load(context.Background()); err == nil || errors.Is(err, repository.ErrNoSnapshot) {
		t.Errorf("expected decode error, got %v", err)
	}
}
