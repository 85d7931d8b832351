package localstate

import (
	"path/filepath"
	"sort"
	"testing"

	"github.com/ondacomunitaria/radiotrivia/internal/quiz"
)

type provider interface {
	Namespace(ns string) quiz.LocalState
	Drop(ns string) error
}

func exercise(t *testing.T, p provider) {
	a := p.Namespace("viewer-a")
	b := p.Namespace("viewer-b")

	if _, ok, err := a.Get("player"); ok || err != nil {
		t.Fatalf("missing key should not be found, got %v %v", ok, err)
	}
	if err := a.Set("player", []byte(`{"id":"p1"}`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := a.Set("answer:q1:p1", []byte(`"correct"`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := a.Set("answer:q2:p1", []byte(`"timeout"`)); err != nil {
		t.Fatalf("set: %v", err)
	}
	if err := a.Set("answer:q2:p1", []byte(`"incorrect"`)); err != nil {
		t.Fatalf("overwrite: %v", err)
	}

	v, ok, err := a.Get("answer:q2:p1")
	if err != nil || !ok || string(v) != `"incorrect"` {
		t.Fatalf("should read last value, got %q %v %v", v, ok, err)
	}
	if _, ok, _ := b.Get("player"); ok {
		t.Fatalf("namespaces should be isolated")
	}

	keys, err := a.Keys("answer:")
	if err != nil {
		t.Fatalf("keys: %v", err)
	}
	sort.Strings(keys)
	if len(keys) != 2 || keys[0] != "answer:q1:p1" || keys[1] != "answer:q2:p1" {
		t.Fatalf("should list keys by prefix, got %v", keys)
	}

	if err := a.Delete("answer:q1:p1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok, _ := a.Get("answer:q1:p1"); ok {
		t.Fatalf("deleted key should be gone")
	}

	if err := p.Drop("viewer-a"); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if _, ok, _ := a.Get("player"); ok {
		t.Fatalf("dropped namespace should be empty")
	}
}

func TestMemory(t *testing.T) {
	exercise(t, NewMemory())
}

func TestSQLite(t *testing.T) {
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "state", "viewers.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	exercise(t, db)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "viewers.db")
	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.Namespace("v").Set("player", []byte("x")); err != nil {
		t.Fatalf("set: %v", err)
	}
	db.Close()

	db, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	if v, ok, _ := db.Namespace("v").Get("player"); !ok || string(v) != "x" {
		t.Fatalf("state should persist across reopen, got %q", v)
	}
}
