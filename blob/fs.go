package blob

import (
	"bytes"
	"io"
	"io/fs"
	"path"
	"sort"
	"strings"
	"time"
)

// blobFile is the filename every blob is exposed under inside its locator
// directory. The loader treats each locator as a single-file package.
const blobFile = "module.go"

// storeFS adapts a Store to io/fs. The layout mirrors a GOPATH source tree
// rooted at "src" so a source-filesystem interpreter resolves the rewritten
// import path "blob/<id>" to the directory src/blob/<id>.
type storeFS struct {
	store *Store
}

var (
	_ fs.FS        = (*storeFS)(nil)
	_ fs.ReadDirFS = (*storeFS)(nil)
	_ fs.StatFS    = (*storeFS)(nil)
)

func normalize(name string) string {
	name = strings.TrimPrefix(name, "/")
	if name == "" {
		return "."
	}
	return path.Clean(name)
}

// split reports what a normalized path refers to: a directory level or a
// blob file. locator is set for "src/blob/<id>" and "src/blob/<id>/module.go".
func (f *storeFS) split(name string) (locator string, isFile bool, isDir bool) {
	switch name {
	case ".", "src", "src/blob":
		return "", false, true
	}
	if !strings.HasPrefix(name, "src/") {
		return "", false, false
	}
	rest := strings.TrimPrefix(name, "src/")
	if base := path.Base(rest); base == blobFile {
		return path.Dir(rest), true, false
	}
	return rest, false, true
}

func (f *storeFS) Open(name string) (fs.File, error) {
	name = normalize(name)
	if !fs.ValidPath(name) {
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrInvalid}
	}
	locator, isFile, isDir := f.split(name)
	switch {
	case isFile:
		content, ok := f.store.Read(locator)
		if !ok {
			return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
		}
		return &blobReader{
			Reader: bytes.NewReader(content),
			info:   fileInfo{name: blobFile, size: int64(len(content))},
		}, nil
	case isDir:
		entries, err := f.ReadDir(name)
		if err != nil {
			return nil, err
		}
		return &dirReader{
			info:    fileInfo{name: path.Base(name), dir: true},
			entries: entries,
		}, nil
	default:
		return nil, &fs.PathError{Op: "open", Path: name, Err: fs.ErrNotExist}
	}
}

func (f *storeFS) ReadDir(name string) ([]fs.DirEntry, error) {
	name = normalize(name)
	switch name {
	case ".":
		return []fs.DirEntry{fileInfo{name: "src", dir: true}}, nil
	case "src":
		return []fs.DirEntry{fileInfo{name: "blob", dir: true}}, nil
	case "src/blob":
		locators := f.store.Locators()
		sort.Strings(locators)
		entries := make([]fs.DirEntry, 0, len(locators))
		for _, loc := range locators {
			entries = append(entries, fileInfo{name: path.Base(loc), dir: true})
		}
		return entries, nil
	}
	locator, isFile, isDir := f.split(name)
	if isFile || !isDir {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	content, ok := f.store.Read(locator)
	if !ok {
		return nil, &fs.PathError{Op: "readdir", Path: name, Err: fs.ErrNotExist}
	}
	return []fs.DirEntry{fileInfo{name: blobFile, size: int64(len(content))}}, nil
}

func (f *storeFS) Stat(name string) (fs.FileInfo, error) {
	file, err := f.Open(name)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return file.Stat()
}

// fileInfo is a synthetic fs.FileInfo / fs.DirEntry for store entries.
type fileInfo struct {
	name string
	size int64
	dir  bool
}

func (i fileInfo) Name() string       { return i.name }
func (i fileInfo) Size() int64        { return i.size }
func (i fileInfo) ModTime() time.Time { return time.Time{} }
func (i fileInfo) IsDir() bool        { return i.dir }
func (i fileInfo) Sys() any           { return nil }

func (i fileInfo) Mode() fs.FileMode {
	if i.dir {
		return fs.ModeDir | 0o555
	}
	return 0o444
}

func (i fileInfo) Type() fs.FileMode          { return i.Mode().Type() }
func (i fileInfo) Info() (fs.FileInfo, error) { return i, nil }

type blobReader struct {
	*bytes.Reader
	info fileInfo
}

func (r *blobReader) Stat() (fs.FileInfo, error) { return r.info, nil }
func (r *blobReader) Close() error               { return nil }

type dirReader struct {
	info    fileInfo
	entries []fs.DirEntry
	offset  int
}

func (d *dirReader) Stat() (fs.FileInfo, error) { return d.info, nil }
func (d *dirReader) Close() error               { return nil }

func (d *dirReader) Read([]byte) (int, error) {
	return 0, &fs.PathError{Op: "read", Path: d.info.name, Err: fs.ErrInvalid}
}

// ReadDir implements fs.ReadDirFile so directory handles opened through Open
// can be enumerated.
func (d *dirReader) ReadDir(n int) ([]fs.DirEntry, error) {
	remaining := d.entries[d.offset:]
	if n <= 0 {
		d.offset = len(d.entries)
		return remaining, nil
	}
	if len(remaining) == 0 {
		return nil, io.EOF
	}
	if n > len(remaining) {
		n = len(remaining)
	}
	d.offset += n
	return remaining[:n], nil
}
