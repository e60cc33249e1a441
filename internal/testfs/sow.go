package testfs

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"testing"

	"github.com/dustin/go-humanize"
	"github.com/spf13/afero"
)

// Sow creates tree under root in fsys, failing the test on error.
// Returns root for convenience.
func Sow(t testing.TB, fsys afero.Fs, root string, tree FileTree) string {
	t.Helper()
	if err := SowFileTree(fsys, root, tree); err != nil {
		t.Fatalf("sow file tree: %v", err)
	}
	return root
}

// SowFileTree creates a filesystem structure from a FileTree specification.
func SowFileTree(fsys afero.Fs, root string, tree FileTree) error {
	if err := fsys.MkdirAll(root, 0o755); err != nil {
		return fmt.Errorf("create root: %w", err)
	}
	for _, d := range tree.Dirs {
		if err := fsys.MkdirAll(filepath.Join(root, d), 0o755); err != nil {
			return fmt.Errorf("create dir %s: %w", d, err)
		}
	}
	for _, f := range tree.Files {
		if err := sowFile(fsys, root, f); err != nil {
			return err
		}
	}
	for _, sym := range tree.Symlinks {
		if err := sowSymlink(fsys, root, sym); err != nil {
			return err
		}
	}
	return nil
}

// sowFile creates a single file and applies its modification time.
func sowFile(fsys afero.Fs, root string, f File) error {
	path := filepath.Join(root, f.Path)
	if err := writeChunkedFile(fsys, path, f.Chunks); err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if !f.ModTime.IsZero() {
		if err := fsys.Chtimes(path, f.ModTime, f.ModTime); err != nil {
			return fmt.Errorf("chtimes %s: %w", path, err)
		}
	}
	return nil
}

// writeChunkedFile streams content to the file.
func writeChunkedFile(fsys afero.Fs, path string, chunks []Chunk) (err error) {
	if err := fsys.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := fsys.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	for _, c := range chunks {
		if err := writeChunk(f, c); err != nil {
			return err
		}
	}
	return nil
}

// writeChunk writes a single chunk using a bounded buffer.
func writeChunk(w io.Writer, c Chunk) error {
	const maxBufSize = 1 << 20

	size, err := humanize.ParseBytes(c.Size)
	if err != nil {
		return fmt.Errorf("parse chunk size %q: %w", c.Size, err)
	}

	buf := bytes.Repeat([]byte{byte(c.Pattern)}, int(min(size, maxBufSize)))

	remaining := int64(size)
	for remaining > 0 {
		toWrite := min(int64(len(buf)), remaining)
		if _, err := w.Write(buf[:toWrite]); err != nil {
			return err
		}
		remaining -= toWrite
	}
	return nil
}

// sowSymlink creates a symlink, creating parent dirs.
func sowSymlink(fsys afero.Fs, root string, sym Symlink) error {
	linker, ok := fsys.(afero.Linker)
	if !ok {
		return fmt.Errorf("symlink %s: filesystem does not support symlinks", sym.Path)
	}
	link := filepath.Join(root, sym.Path)
	if err := fsys.MkdirAll(filepath.Dir(link), 0o755); err != nil {
		return err
	}
	if err := linker.SymlinkIfPossible(sym.Target, link); err != nil {
		return fmt.Errorf("symlink %s -> %s: %w", link, sym.Target, err)
	}
	return nil
}
