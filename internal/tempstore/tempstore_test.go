package tempstore

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hyperjump/ingestd/internal/models"
)

func TestWrite(t *testing.T) {
	dir := t.TempDir()
	s := New(dir, nil)

	tf, err := s.Write("host/abc-000001", &models.Payload{Data: []byte("hello"), Ext: ".txt"})
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Dir(tf.Path) != dir {
		t.Errorf("file written to %s, want %s", filepath.Dir(tf.Path), dir)
	}
	if !strings.HasSuffix(tf.Path, ".txt") {
		t.Errorf("Path=%s, want .txt suffix", tf.Path)
	}
	if strings.Contains(filepath.Base(tf.Path), "/") {
		t.Errorf("request ID slash leaked into name: %s", tf.Path)
	}
	data, err := os.ReadFile(tf.Path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "hello" {
		t.Errorf("content=%q", data)
	}

	matches, _ := filepath.Glob(s.Pattern("host/abc-000001"))
	if len(matches) != 1 {
		t.Errorf("Pattern matched %d files, want 1", len(matches))
	}

	if err := tf.Remove(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(tf.Path); !os.IsNotExist(err) {
		t.Errorf("file still exists after Remove: %v", err)
	}
}

func TestWrite_DefaultExt(t *testing.T) {
	s := New(t.TempDir(), nil)
	tf, err := s.Write("r1", &models.Payload{Data: []byte("%PDF")})
	if err != nil {
		t.Fatal(err)
	}
	defer tf.Remove()
	if filepath.Ext(tf.Path) != ".pdf" {
		t.Errorf("Ext=%s, want .pdf", filepath.Ext(tf.Path))
	}
}

func TestWrite_UniqueNames(t *testing.T) {
	s := New(t.TempDir(), nil)
	a, err := s.Write("same", &models.Payload{Data: []byte("a")})
	if err != nil {
		t.Fatal(err)
	}
	defer a.Remove()
	b, err := s.Write("same", &models.Payload{Data: []byte("b")})
	if err != nil {
		t.Fatal(err)
	}
	defer b.Remove()
	if a.Path == b.Path {
		t.Errorf("two writes share a path: %s", a.Path)
	}
}

func TestRemove_Idempotent(t *testing.T) {
	s := New(t.TempDir(), nil)
	tf, err := s.Write("r1", &models.Payload{Data: []byte("x")})
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 3; i++ {
		if err := tf.Remove(); err != nil {
			t.Errorf("Remove call %d: %v", i+1, err)
		}
	}
}

func TestRemove_AlreadyGone(t *testing.T) {
	s := New(t.TempDir(), nil)
	tf, err := s.Write("r1", &models.Payload{Data: []byte("x")})
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Remove(tf.Path); err != nil {
		t.Fatal(err)
	}
	if err := tf.Remove(); err != nil {
		t.Errorf("Remove on missing file: %v", err)
	}
}

func TestWrite_Failure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}
	// A regular file where the directory should be makes creation fail.
	s := New(filepath.Join(blocker, "sub"), nil)
	if _, err := s.Write("r1", &models.Payload{Data: []byte("x")}); err == nil {
		t.Error("expected error when temp dir cannot be created")
	}
}
