package fstore

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/syedmoizurrehman/DistributedKVStore/lib/store"
)

// --------------------------------------------------------------------------
// Constants
// --------------------------------------------------------------------------

// Constants for the snapshot file format
const (
	magicNum      = "DKVRING\x00" // File format identifier
	formatVersion = 1             // Snapshot format version

	recordsFileName = "records.db"
	lookupFileName  = "lookup.db"
)

// --------------------------------------------------------------------------
// Record Store
// --------------------------------------------------------------------------

// RecordStore is the file-backed implementation of store.IRecordStore.
// The table is held in memory and snapshotted to disk after every mutation;
// on open, an existing snapshot is loaded so records survive restarts.
type RecordStore struct {
	data *xsync.MapOf[string, store.Record]
	path string
	mu   sync.Mutex // serializes snapshot writes
	now  func() int64
}

// NewRecordStore opens (or creates) the record table under dataDir.
func NewRecordStore(dataDir string) (*RecordStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("create data dir: %v", err))
	}

	s := &RecordStore{
		data: xsync.NewMapOf[string, store.Record](),
		path: filepath.Join(dataDir, recordsFileName),
		now:  func() int64 { return time.Now().Unix() },
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *RecordStore) Upsert(key, value string) (store.Record, error) {
	rec := store.Record{
		Key:       key,
		Value:     value,
		Timestamp: s.now(),
	}
	s.data.Store(key, rec)

	if err := s.persist(); err != nil {
		return store.Record{}, err
	}
	return rec, nil
}

func (s *RecordStore) Get(key string) (store.Record, bool, error) {
	rec, ok := s.data.Load(key)
	return rec, ok, nil
}

func (s *RecordStore) Delete(key string) error {
	if _, ok := s.data.Load(key); !ok {
		return store.NewError(store.RetCNotFound, fmt.Sprintf("no record for key %q", key))
	}
	s.data.Delete(key)
	return s.persist()
}

func (s *RecordStore) Close() error {
	return s.persist()
}

// --------------------------------------------------------------------------
// Test Seams
// --------------------------------------------------------------------------

// Put stores a record verbatim, without stamping. Test harnesses use this to
// force divergent replica timestamps; it is not part of IRecordStore.
func (s *RecordStore) Put(rec store.Record) error {
	s.data.Store(rec.Key, rec)
	return s.persist()
}

// SetClock overrides the wall-clock source. Tests only.
func (s *RecordStore) SetClock(now func() int64) {
	s.now = now
}

// Len returns the number of stored records.
func (s *RecordStore) Len() int {
	return s.data.Size()
}

// --------------------------------------------------------------------------
// Persistence
// --------------------------------------------------------------------------

// persist rewrites the snapshot file. The tables hold control-plane state
// and stay small, so a full rewrite per mutation is cheaper than a log.
func (s *RecordStore) persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	write := func(w io.Writer) error {
		if err := writeHeader(w, s.data.Size()); err != nil {
			return err
		}
		var err error
		s.data.Range(func(_ string, rec store.Record) bool {
			if err = writeString(w, rec.Key); err != nil {
				return false
			}
			if err = writeString(w, rec.Value); err != nil {
				return false
			}
			err = binary.Write(w, binary.BigEndian, rec.Timestamp)
			return err == nil
		})
		return err
	}

	return atomicWrite(s.path, write)
}

// load restores the table from an existing snapshot, if any.
func (s *RecordStore) load() error {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return store.NewError(store.RetCInternalError, fmt.Sprintf("open snapshot: %v", err))
	}
	defer f.Close()

	count, err := readHeader(f)
	if err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		var rec store.Record
		if rec.Key, err = readString(f); err != nil {
			return err
		}
		if rec.Value, err = readString(f); err != nil {
			return err
		}
		if err = binary.Read(f, binary.BigEndian, &rec.Timestamp); err != nil {
			return store.NewError(store.RetCInternalError, fmt.Sprintf("read snapshot: %v", err))
		}
		s.data.Store(rec.Key, rec)
	}
	return nil
}

// --------------------------------------------------------------------------
// Lookup Store
// --------------------------------------------------------------------------

// LookupStore is the file-backed implementation of store.ILookupStore.
type LookupStore struct {
	data *xsync.MapOf[string, int]
	path string
	mu   sync.Mutex
}

// NewLookupStore opens (or creates) the lookup table under dataDir.
func NewLookupStore(dataDir string) (*LookupStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, store.NewError(store.RetCInternalError, fmt.Sprintf("create data dir: %v", err))
	}

	s := &LookupStore{
		data: xsync.NewMapOf[string, int](),
		path: filepath.Join(dataDir, lookupFileName),
	}

	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *LookupStore) Upsert(key string, ringSize int) error {
	s.data.Store(key, ringSize)
	return s.persist()
}

func (s *LookupStore) Get(key string) (int, bool, error) {
	ringSize, ok := s.data.Load(key)
	return ringSize, ok, nil
}

func (s *LookupStore) Delete(key string) error {
	if _, ok := s.data.Load(key); !ok {
		return store.NewError(store.RetCNotFound, fmt.Sprintf("no lookup entry for key %q", key))
	}
	s.data.Delete(key)
	return s.persist()
}

func (s *LookupStore) Close() error {
	return s.persist()
}

// Len returns the number of lookup entries.
func (s *LookupStore) Len() int {
	return s.data.Size()
}

// --------------------------------------------------------------------------
// Persistence
// --------------------------------------------------------------------------

func (s *LookupStore) persist() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	write := func(w io.Writer) error {
		if err := writeHeader(w, s.data.Size()); err != nil {
			return err
		}
		var err error
		s.data.Range(func(key string, ringSize int) bool {
			if err = writeString(w, key); err != nil {
				return false
			}
			err = binary.Write(w, binary.BigEndian, int64(ringSize))
			return err == nil
		})
		return err
	}

	return atomicWrite(s.path, write)
}

func (s *LookupStore) load() error {
	f, err := os.Open(s.path)
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return store.NewError(store.RetCInternalError, fmt.Sprintf("open snapshot: %v", err))
	}
	defer f.Close()

	count, err := readHeader(f)
	if err != nil {
		return err
	}

	for i := 0; i < count; i++ {
		key, err := readString(f)
		if err != nil {
			return err
		}
		var ringSize int64
		if err = binary.Read(f, binary.BigEndian, &ringSize); err != nil {
			return store.NewError(store.RetCInternalError, fmt.Sprintf("read snapshot: %v", err))
		}
		s.data.Store(key, int(ringSize))
	}
	return nil
}

// --------------------------------------------------------------------------
// Snapshot Format Helpers
// --------------------------------------------------------------------------

// atomicWrite writes through a temp file and renames it into place so a
// crash mid-write never corrupts the previous snapshot.
func atomicWrite(path string, write func(io.Writer) error) error {
	tmp := path + ".tmp"

	f, err := os.Create(tmp)
	if err != nil {
		return store.NewError(store.RetCInternalError, fmt.Sprintf("create snapshot: %v", err))
	}

	if err := write(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return store.NewError(store.RetCInternalError, fmt.Sprintf("write snapshot: %v", err))
	}

	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return store.NewError(store.RetCInternalError, fmt.Sprintf("close snapshot: %v", err))
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return store.NewError(store.RetCInternalError, fmt.Sprintf("replace snapshot: %v", err))
	}
	return nil
}

func writeHeader(w io.Writer, count int) error {
	if _, err := w.Write([]byte(magicNum)); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(formatVersion)); err != nil {
		return err
	}
	return binary.Write(w, binary.BigEndian, uint32(count))
}

func readHeader(r io.Reader) (int, error) {
	magic := make([]byte, len(magicNum))
	if _, err := io.ReadFull(r, magic); err != nil {
		return 0, store.NewError(store.RetCInternalError, fmt.Sprintf("read snapshot header: %v", err))
	}
	if string(magic) != magicNum {
		return 0, store.NewError(store.RetCInternalError, "snapshot file has wrong magic number")
	}

	var version uint32
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return 0, store.NewError(store.RetCInternalError, fmt.Sprintf("read snapshot version: %v", err))
	}
	if version != formatVersion {
		return 0, store.NewError(store.RetCInternalError, fmt.Sprintf("unsupported snapshot version %d", version))
	}

	var count uint32
	if err := binary.Read(r, binary.BigEndian, &count); err != nil {
		return 0, store.NewError(store.RetCInternalError, fmt.Sprintf("read snapshot count: %v", err))
	}
	return int(count), nil
}

func writeString(w io.Writer, s string) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(s))); err != nil {
		return err
	}
	_, err := w.Write([]byte(s))
	return err
}

func readString(r io.Reader) (string, error) {
	var length uint32
	if err := binary.Read(r, binary.BigEndian, &length); err != nil {
		return "", store.NewError(store.RetCInternalError, fmt.Sprintf("read snapshot string: %v", err))
	}
	buf := make([]byte, length)
	if _, err := io.ReadFull(r, buf); err != nil {
		return "", store.NewError(store.RetCInternalError, fmt.Sprintf("read snapshot string: %v", err))
	}
	return string(buf), nil
}
