package cache

import (
	"bytes"
	"fmt"
	"hash/fnv"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/dimchansky/utfbom"
	"github.com/getsentry/sentry-go"
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

type Key struct {
	h64  uint64
	h64a uint64
}

// NewKey hashes parts into a file name safe key.
func NewKey(parts ...interface{}) Key {
	h := fnv.New64()
	ha := fnv.New64a()
	for _, p := range parts {
		fmt.Fprint(h, p, "|")
		fmt.Fprint(ha, p, "|")
	}

	return Key{
		h64:  h.Sum64(),
		h64a: ha.Sum64(),
	}
}

func (k Key) String() string {
	return fmt.Sprintf("%016x-%016x", k.h64, k.h64a)
}

// Storage is a directory of json files. Entries older than ttl are misses,
// a zero ttl keeps entries forever.
type Storage struct {
	dir string
	ttl time.Duration

	savingLock sync.RWMutex
	saving     map[Key]struct{}
}

// NewStorage creates dir. When versions are given and differ from the ones
// the directory was filled with, every entry is dropped.
func NewStorage(dir string, ttl time.Duration, versions ...string) (*Storage, error) {
	err := os.MkdirAll(dir, 0700)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	if len(versions) > 0 {
		err = cleanUpWithHash(dir, hashStrings(versions...))
		if err != nil {
			return nil, err
		}
	}

	return &Storage{
		dir:    dir,
		ttl:    ttl,
		saving: make(map[Key]struct{}, 32),
	}, nil
}

func (s *Storage) path(k Key) string {
	return filepath.Join(s.dir, k.String()+".json")
}

func (s *Storage) lock(k Key) bool {
	s.savingLock.Lock()
	defer s.savingLock.Unlock()

	_, ok := s.saving[k]
	if !ok {
		s.saving[k] = struct{}{}
	}
	return !ok
}

func (s *Storage) unlock(k Key) {
	s.savingLock.Lock()
	delete(s.saving, k)
	s.savingLock.Unlock()
}

func (s *Storage) isSaving(k Key) bool {
	s.savingLock.RLock()
	defer s.savingLock.RUnlock()

	_, ok := s.saving[k]
	return ok
}

func (s *Storage) expired(fi os.FileInfo) bool {
	return s.ttl > 0 && time.Since(fi.ModTime()) > s.ttl
}

func (s *Storage) open(k Key) (*os.File, bool) {
	if s.isSaving(k) {
		return nil, false
	}

	fs, err := os.Open(s.path(k))
	if err != nil {
		return nil, false
	}

	fi, err := fs.Stat()
	if err != nil || s.expired(fi) {
		fs.Close()
		return nil, false
	}

	return fs, true
}

// Load decodes the entry into v.
func (s *Storage) Load(k Key, v interface{}) bool {
	fs, ok := s.open(k)
	if !ok {
		return false
	}
	defer fs.Close()

	err := jsoniter.NewDecoder(utfbom.SkipOnly(fs)).Decode(v)
	if err != nil {
		sentry.CaptureException(err)
		fmt.Printf("%+v\n", errors.WithStack(err))
		return false
	}
	return true
}

// LoadRaw copies the entry into w.
func (s *Storage) LoadRaw(k Key, w io.Writer) bool {
	fs, ok := s.open(k)
	if !ok {
		return false
	}
	defer fs.Close()

	_, err := io.Copy(w, utfbom.SkipOnly(fs))
	if err != nil {
		sentry.CaptureException(err)
		fmt.Printf("%+v\n", errors.WithStack(err))
		return false
	}
	return true
}

func (s *Storage) Save(k Key, v interface{}) bool {
	var buf bytes.Buffer
	err := jsoniter.NewEncoder(&buf).Encode(v)
	if err != nil {
		sentry.CaptureException(err)
		fmt.Printf("%+v\n", errors.WithStack(err))
		return false
	}

	return s.SaveRaw(k, buf.Bytes())
}

func (s *Storage) SaveRaw(k Key, data []byte) bool {
	if !s.lock(k) {
		return false
	}
	defer s.unlock(k)

	path := s.path(k)
	tmp := path + ".tmp"

	err := os.WriteFile(tmp, data, 0600)
	if err == nil {
		err = os.Rename(tmp, path)
	}
	if err != nil {
		os.Remove(tmp)
		sentry.CaptureException(err)
		fmt.Printf("%+v\n", errors.WithStack(err))
		return false
	}

	return true
}

// Sweep removes expired entries and returns how many were removed.
func (s *Storage) Sweep() (int, error) {
	if s.ttl <= 0 {
		return 0, nil
	}

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, errors.WithStack(err)
	}

	removed := 0
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" {
			continue
		}
		fi, err := e.Info()
		if err != nil {
			continue
		}
		if s.expired(fi) {
			if os.Remove(filepath.Join(s.dir, e.Name())) == nil {
				removed++
			}
		}
	}

	return removed, nil
}
