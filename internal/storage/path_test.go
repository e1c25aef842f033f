package storage

import (
	"testing"
	"time"
)

func TestBuildSnapshotPath(t *testing.T) {
	ts := time.Date(2026, time.February, 19, 23, 5, 0, 0, time.FixedZone("x", -5*3600))
	key, err := BuildSnapshotPath("customers", ts)
	if err != nil {
		t.Fatalf("BuildSnapshotPath() error = %v", err)
	}
	want := "snapshots/customers/date=2026-02-20/customers-1771560300000.parquet"
	if key != want {
		t.Fatalf("BuildSnapshotPath() = %q, want %q", key, want)
	}
}

func TestLatestSnapshotPath(t *testing.T) {
	key, err := LatestSnapshotPath("customers")
	if err != nil {
		t.Fatalf("LatestSnapshotPath() error = %v", err)
	}
	if key != "snapshots/customers/latest.parquet" {
		t.Fatalf("LatestSnapshotPath() = %q", key)
	}
}

func TestSnapshotPathRejectsInvalidTable(t *testing.T) {
	if _, err := BuildSnapshotPath("../oops", time.Now()); err == nil {
		t.Fatal("expected invalid component error")
	}
	if _, err := LatestSnapshotPath(""); err == nil {
		t.Fatal("expected invalid component error")
	}
}
