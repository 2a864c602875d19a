package sqlite

import "testing"

func TestDriverInfo(t *testing.T) {
	info := GetInfo()
	if info.DriverName != DriverName() {
		t.Errorf("DriverName mismatch: %q vs %q", info.DriverName, DriverName())
	}
	if info.DriverType != "purego" && info.DriverType != "cgo" {
		t.Errorf("unexpected driver type %q", info.DriverType)
	}
	if info.IsCGO != IsCGO() {
		t.Error("IsCGO mismatch")
	}
}

func TestOpenInMemory(t *testing.T) {
	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}

	if _, err := db.Exec("CREATE TABLE t (id INTEGER PRIMARY KEY, v TEXT)"); err != nil {
		t.Fatalf("CREATE TABLE failed: %v", err)
	}
	if _, err := db.Exec("INSERT INTO t (v) VALUES (?)", "hello"); err != nil {
		t.Fatalf("INSERT failed: %v", err)
	}

	var v string
	if err := db.QueryRow("SELECT v FROM t WHERE id = 1").Scan(&v); err != nil {
		t.Fatalf("SELECT failed: %v", err)
	}
	if v != "hello" {
		t.Errorf("v = %q, want hello", v)
	}
}

func TestMustOpen(t *testing.T) {
	db := MustOpen(":memory:")
	defer db.Close()
	if err := db.Ping(); err != nil {
		t.Fatalf("Ping failed: %v", err)
	}
}
