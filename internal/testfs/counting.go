package testfs

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/afero"
)

// CountingFs wraps an afero.Fs and records every path it is asked about.
// Used to prove that pruned subtrees are never touched.
type CountingFs struct {
	afero.Fs

	mu    sync.Mutex
	calls []string
}

// NewCountingFs wraps fsys.
func NewCountingFs(fsys afero.Fs) *CountingFs {
	return &CountingFs{Fs: fsys}
}

func (c *CountingFs) record(op, name string) {
	c.mu.Lock()
	c.calls = append(c.calls, op+" "+filepath.Clean(name))
	c.mu.Unlock()
}

// Calls returns a copy of the recorded "op path" entries.
func (c *CountingFs) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

// CallsUnder counts recorded calls for dir itself or anything below it.
func (c *CountingFs) CallsUnder(dir string) int {
	dir = filepath.Clean(dir)
	n := 0
	for _, call := range c.Calls() {
		_, path, _ := strings.Cut(call, " ")
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			n++
		}
	}
	return n
}

func (c *CountingFs) Open(name string) (afero.File, error) {
	c.record("open", name)
	return c.Fs.Open(name)
}

func (c *CountingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	c.record("openfile", name)
	return c.Fs.OpenFile(name, flag, perm)
}

func (c *CountingFs) Stat(name string) (os.FileInfo, error) {
	c.record("stat", name)
	return c.Fs.Stat(name)
}

// LstatIfPossible forwards to the wrapped filesystem when it supports lstat.
func (c *CountingFs) LstatIfPossible(name string) (os.FileInfo, bool, error) {
	c.record("lstat", name)
	if l, ok := c.Fs.(afero.Lstater); ok {
		return l.LstatIfPossible(name)
	}
	fi, err := c.Fs.Stat(name)
	return fi, false, err
}

func (c *CountingFs) Chtimes(name string, atime, mtime time.Time) error {
	c.record("chtimes", name)
	return c.Fs.Chtimes(name, atime, mtime)
}
