package fstore

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/ValentinKolb/mocker/lib/format"
	"github.com/ValentinKolb/mocker/lib/store"
	"github.com/ValentinKolb/mocker/lib/value"
	"github.com/lni/dragonboat/v4/logger"
)

var log = logger.GetLogger("store")

type storeImpl struct {
	path       string
	identifier string
	format     format.IFormat
	records    []value.Map
}

// NewFileStore creates a new store backed by the file at path.
// If f is nil the format is detected by the file extension.
// The file is not read until Load is called.
func NewFileStore(path, identifier string, f format.IFormat) (store.IStore, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, store.WrapError(store.RetCIOError, "cannot resolve store path "+path, err)
	}
	if f == nil {
		if f, err = format.ByPath(abs); err != nil {
			return nil, store.WrapError(store.RetCInvalidOperation, "cannot detect store format", err)
		}
	}
	return &storeImpl{
		path:       abs,
		identifier: identifier,
		format:     f,
	}, nil
}

// --------------------------------------------------------------------------
// Interface Methods (docu see store/interface.go)
// --------------------------------------------------------------------------

func (s *storeImpl) Path() string { return s.path }

func (s *storeImpl) Identifier() string { return s.identifier }

func (s *storeImpl) Format() format.IFormat { return s.format }

func (s *storeImpl) Load() error {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Debugf("store file %s does not exist, starting empty", s.path)
		s.records = nil
		return nil
	}
	if err != nil {
		return store.WrapError(store.RetCIOError, "cannot read "+s.path, err)
	}

	records, err := s.format.DecodeRecords(data)
	if err != nil {
		return store.WrapError(store.RetCCodecError, "cannot decode "+s.path, err)
	}
	s.records = records
	log.Debugf("loaded %d records from %s", len(records), s.path)
	return nil
}

func (s *storeImpl) Save() error {
	data, err := s.format.EncodeRecords(s.records)
	if err != nil {
		return store.WrapError(store.RetCCodecError, "cannot encode records for "+s.path, err)
	}
	// plain truncate and write, the file stays human editable in place
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return store.WrapError(store.RetCIOError, "cannot write "+s.path, err)
	}
	log.Debugf("saved %d records to %s", len(s.records), s.path)
	return nil
}

func (s *storeImpl) Records() []value.Map {
	return s.records
}

func (s *storeImpl) Find(id value.Value) (value.Map, bool) {
	i := s.indexOf(id)
	if i < 0 {
		return nil, false
	}
	return s.records[i], true
}

func (s *storeImpl) Contains(id value.Value) bool {
	return s.indexOf(id) >= 0
}

func (s *storeImpl) Create(rec value.Map) (value.Value, error) {
	if rec == nil {
		return nil, store.NewError(store.RetCInvalidOperation, "cannot create an empty record")
	}
	id := store.IDOf(rec, s.identifier)
	if _, isNull := id.(value.Null); !isNull && s.Contains(id) {
		return nil, store.NewError(store.RetCConflict, "entity with `"+s.identifier+"` = "+value.Render(id)+" already exists")
	}
	s.records = append(s.records, rec)
	return id, nil
}

func (s *storeImpl) Remove(id value.Value) bool {
	i := s.indexOf(id)
	if i < 0 {
		return false
	}
	s.records = append(s.records[:i], s.records[i+1:]...)
	return true
}

// --------------------------------------------------------------------------
// Helper Functions
// --------------------------------------------------------------------------

// indexOf returns the index of the first record whose identifier loosely
// equals id, -1 if there is none
func (s *storeImpl) indexOf(id value.Value) int {
	for i, rec := range s.records {
		if value.LooseEqual(store.IDOf(rec, s.identifier), id) {
			return i
		}
	}
	return -1
}
