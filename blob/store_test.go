package blob

import (
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"
)

func TestStoreCreateReadDispose(t *testing.T) {
	s := NewStore()
	loc, err := s.Create([]byte("package a\n"), "text/x-go")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !strings.HasPrefix(loc, "blob/") {
		t.Fatalf("locator %q lacks namespace prefix", loc)
	}
	content, ok := s.Read(loc)
	if !ok || string(content) != "package a\n" {
		t.Fatalf("read back %q, %v", content, ok)
	}
	mime, ok := s.MIME(loc)
	if !ok || mime != "text/x-go" {
		t.Fatalf("mime %q, %v", mime, ok)
	}
	if s.Len() != 1 {
		t.Fatalf("len %d, want 1", s.Len())
	}
	if err := s.Dispose(loc); err != nil {
		t.Fatalf("dispose: %v", err)
	}
	if s.Len() != 0 {
		t.Fatalf("len %d after dispose, want 0", s.Len())
	}
	if _, ok := s.Read(loc); ok {
		t.Fatalf("disposed locator still readable")
	}
}

func TestStoreDisposeUnknownIsError(t *testing.T) {
	s := NewStore()
	if err := s.Dispose("blob/nope"); err == nil {
		t.Fatalf("disposing unknown locator succeeded")
	}
}

func TestStoreLocatorsAreFreshPerCreate(t *testing.T) {
	s := NewStore()
	a, _ := s.Create([]byte("same"), "text/x-go")
	b, _ := s.Create([]byte("same"), "text/x-go")
	if a == b {
		t.Fatalf("identical content produced identical locators %q", a)
	}
}

func TestStoreFSLayout(t *testing.T) {
	s := NewStore()
	loc, _ := s.Create([]byte("package a\n"), "text/x-go")
	fsys := s.FS()

	data, err := fs.ReadFile(fsys, "src/"+loc+"/module.go")
	if err != nil {
		t.Fatalf("read through fs: %v", err)
	}
	if string(data) != "package a\n" {
		t.Fatalf("fs content %q", data)
	}

	entries, err := fs.ReadDir(fsys, "src/"+loc)
	if err != nil {
		t.Fatalf("readdir package dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "module.go" {
		t.Fatalf("package dir entries %v", entries)
	}

	// Leading slash and dot forms are tolerated: the loader joins paths
	// against a rooted GoPath.
	if _, err := fs.Stat(fsys, "src/"+loc+"/module.go"); err != nil {
		t.Fatalf("stat: %v", err)
	}
}

func TestStoreFSConformance(t *testing.T) {
	s := NewStore()
	loc, _ := s.Create([]byte("package a\n"), "text/x-go")
	if err := fstest.TestFS(s.FS(), "src/"+loc+"/module.go"); err != nil {
		t.Fatalf("fstest: %v", err)
	}
}

func TestStoreFSReflectsDisposal(t *testing.T) {
	s := NewStore()
	loc, _ := s.Create([]byte("package a\n"), "text/x-go")
	fsys := s.FS()
	if err := s.Dispose(loc); err != nil {
		t.Fatalf("dispose: %v", err)
	}
	if _, err := fs.ReadFile(fsys, "src/"+loc+"/module.go"); err == nil {
		t.Fatalf("disposed blob still served through fs")
	}
	entries, err := fs.ReadDir(fsys, "src/blob")
	if err != nil {
		t.Fatalf("readdir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("disposed blob still listed: %v", entries)
	}
}
