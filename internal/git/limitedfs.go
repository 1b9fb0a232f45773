package git

import (
	"errors"
	"os"
	"sync"
	"sync/atomic"

	billy "github.com/go-git/go-billy/v5"
)

var (
	// ErrTooManyFiles is returned when a clone creates more files than the
	// filesystem allows.
	ErrTooManyFiles = errors.New("too many files in repository")

	// ErrRepositoryTooLarge is returned when a clone writes more bytes than
	// the filesystem allows.
	ErrRepositoryTooLarge = errors.New("repository exceeds size limit")
)

// LimitedFs wraps a billy filesystem with caps on file count and total bytes
// written, bounding the memory a hostile or runaway remote repository can
// consume during an in-memory clone.
//
// Counting is monotonic and approximate: recreating an existing file counts
// it again and removals are not credited back. The caps bound a single clone,
// not long-lived bookkeeping.
type LimitedFs struct {
	Fs            billy.Filesystem
	MaxFiles      int64
	TotalFileSize int64

	initOnce sync.Once
	usage    *fsUsage
}

type fsUsage struct {
	files atomic.Int64
	bytes atomic.Int64
}

var _ billy.Filesystem = (*LimitedFs)(nil)

func (f *LimitedFs) tracker() *fsUsage {
	f.initOnce.Do(func() {
		if f.usage == nil {
			f.usage = &fsUsage{}
		}
	})
	return f.usage
}

func (f *LimitedFs) countEntry() error {
	if f.tracker().files.Add(1) > f.MaxFiles {
		return ErrTooManyFiles
	}
	return nil
}

func (f *LimitedFs) wrap(file billy.File, err error) (billy.File, error) {
	if err != nil {
		return nil, err
	}
	return &limitedFile{File: file, usage: f.tracker(), maxBytes: f.TotalFileSize}, nil
}

// Create implements billy.Basic
func (f *LimitedFs) Create(filename string) (billy.File, error) {
	if err := f.countEntry(); err != nil {
		return nil, err
	}
	return f.wrap(f.Fs.Create(filename))
}

// Open implements billy.Basic
func (f *LimitedFs) Open(filename string) (billy.File, error) {
	return f.wrap(f.Fs.Open(filename))
}

// OpenFile implements billy.Basic
func (f *LimitedFs) OpenFile(filename string, flag int, perm os.FileMode) (billy.File, error) {
	if flag&os.O_CREATE != 0 {
		if err := f.countEntry(); err != nil {
			return nil, err
		}
	}
	return f.wrap(f.Fs.OpenFile(filename, flag, perm))
}

// Stat implements billy.Basic
func (f *LimitedFs) Stat(filename string) (os.FileInfo, error) {
	return f.Fs.Stat(filename)
}

// Rename implements billy.Basic
func (f *LimitedFs) Rename(oldpath, newpath string) error {
	return f.Fs.Rename(oldpath, newpath)
}

// Remove implements billy.Basic
func (f *LimitedFs) Remove(filename string) error {
	return f.Fs.Remove(filename)
}

// Join implements billy.Basic
func (f *LimitedFs) Join(elem ...string) string {
	return f.Fs.Join(elem...)
}

// TempFile implements billy.TempFile
func (f *LimitedFs) TempFile(dir, prefix string) (billy.File, error) {
	if err := f.countEntry(); err != nil {
		return nil, err
	}
	return f.wrap(f.Fs.TempFile(dir, prefix))
}

// ReadDir implements billy.Dir
func (f *LimitedFs) ReadDir(path string) ([]os.FileInfo, error) {
	return f.Fs.ReadDir(path)
}

// MkdirAll implements billy.Dir
func (f *LimitedFs) MkdirAll(filename string, perm os.FileMode) error {
	if err := f.countEntry(); err != nil {
		return err
	}
	return f.Fs.MkdirAll(filename, perm)
}

// Lstat implements billy.Symlink
func (f *LimitedFs) Lstat(filename string) (os.FileInfo, error) {
	return f.Fs.Lstat(filename)
}

// Symlink implements billy.Symlink
func (f *LimitedFs) Symlink(target, link string) error {
	if err := f.countEntry(); err != nil {
		return err
	}
	return f.Fs.Symlink(target, link)
}

// Readlink implements billy.Symlink
func (f *LimitedFs) Readlink(link string) (string, error) {
	return f.Fs.Readlink(link)
}

// Chroot implements billy.Chroot. The chrooted filesystem shares this
// filesystem's usage counters, so the caps hold across the whole tree.
func (f *LimitedFs) Chroot(path string) (billy.Filesystem, error) {
	child, err := f.Fs.Chroot(path)
	if err != nil {
		return nil, err
	}
	return &LimitedFs{
		Fs:            child,
		MaxFiles:      f.MaxFiles,
		TotalFileSize: f.TotalFileSize,
		usage:         f.tracker(),
	}, nil
}

// Root implements billy.Chroot
func (f *LimitedFs) Root() string {
	return f.Fs.Root()
}

// limitedFile counts bytes written through the file against the filesystem's
// shared total.
type limitedFile struct {
	billy.File
	usage    *fsUsage
	maxBytes int64
}

func (f *limitedFile) Write(p []byte) (int, error) {
	if f.usage.bytes.Add(int64(len(p))) > f.maxBytes {
		return 0, ErrRepositoryTooLarge
	}
	return f.File.Write(p)
}
