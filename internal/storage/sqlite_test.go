package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func TestSQLite_ChecksumVerifiedOnRead(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "files.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer db.Close()
	ctx := context.Background()

	if err := db.Write(ctx, "u1", "n.md", []byte("original")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if _, err := db.conn.Exec(`UPDATE files SET content = ? WHERE path = ?`, []byte("tampered"), "n.md"); err != nil {
		t.Fatal(err)
	}
	if _, err := db.Read(ctx, "u1", "n.md"); !errors.Is(err, ErrChecksumMismatch) {
		t.Errorf("err = %v, want ErrChecksumMismatch", err)
	}

	if _, err := db.conn.Exec(`UPDATE files SET checksum = '' WHERE path = ?`, "n.md"); err != nil {
		t.Fatal(err)
	}
	got, err := db.Read(ctx, "u1", "n.md")
	if err != nil || string(got) != "tampered" {
		t.Errorf("row without checksum = %q, %v", got, err)
	}
}
