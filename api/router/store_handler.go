package router

import (
	"fmt"
	"time"

	"github.com/ValentinKolb/mocker/api/common"
	"github.com/ValentinKolb/mocker/api/proto"
	"github.com/ValentinKolb/mocker/lib/format"
	"github.com/ValentinKolb/mocker/lib/lockmgr"
	"github.com/ValentinKolb/mocker/lib/store"
	"github.com/ValentinKolb/mocker/lib/store/fstore"
	"github.com/ValentinKolb/mocker/lib/value"
	gometrics "github.com/rcrowley/go-metrics"
)

// StoreHandler serves a collection of records stored in a file. Every request
// reloads the file, mutating requests write it back before they return. The
// whole sequence runs under a lock keyed by the file path, so routes sharing
// a file never interleave.
type StoreHandler struct {
	endpoint      string
	store         store.IStore
	locks         lockmgr.ILockManager
	formats       []format.IFormat
	defaultFormat format.IFormat
	loadTimer     gometrics.Timer
	saveTimer     gometrics.Timer
}

// NewStoreHandler creates the handler of a store route. The file is not read
// until the first request.
func NewStoreHandler(route common.RouteConfig, opts Options) (*StoreHandler, error) {
	opts.defaults()

	var f format.IFormat
	if route.Kind.Format != "" {
		var err error
		if f, err = format.ByName(route.Kind.Format); err != nil {
			return nil, err
		}
	}

	path := route.Kind.Path
	if opts.BaseDir != "" {
		conf := common.ServerConfig{BaseDir: opts.BaseDir}
		path = conf.ResolvePath(path)
	}

	s, err := fstore.NewFileStore(path, route.Kind.Identifier, f)
	if err != nil {
		return nil, err
	}

	return &StoreHandler{
		endpoint:      route.Endpoint,
		store:         s,
		locks:         opts.Locks,
		formats:       opts.Formats,
		defaultFormat: opts.DefaultFormat,
		loadTimer:     gometrics.GetOrRegisterTimer(fmt.Sprintf("store.%s.load", s.Path()), opts.Timers),
		saveTimer:     gometrics.GetOrRegisterTimer(fmt.Sprintf("store.%s.save", s.Path()), opts.Timers),
	}, nil
}

// Store returns the store of the handler
func (h *StoreHandler) Store() store.IStore {
	return h.store
}

func (h *StoreHandler) Describe() string {
	return fmt.Sprintf("store %s (identifier: %s, format: %s)", h.store.Path(), h.store.Identifier(), h.store.Format().Name())
}

// --------------------------------------------------------------------------
// Interface Methods (docu see router.Handler)
// --------------------------------------------------------------------------

func (h *StoreHandler) Handle(req *proto.Request, res *proto.Response) error {
	switch m := req.Method(); m {
	case proto.MethodGet:
		return h.get(req, res)
	case proto.MethodPost:
		return h.post(req, res)
	case proto.MethodPut, proto.MethodPatch, proto.MethodDelete:
		return common.NewAPIErrorf(proto.StatusNotImplemented, "%s is not implemented for store routes", m)
	default:
		return common.NewAPIError(proto.StatusMethodNotAllowed, "")
	}
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// lock acquires the lock of the store file
func (h *StoreHandler) lock() func() {
	return h.locks.AcquireLock(h.store.Path())
}

func (h *StoreHandler) load() error {
	start := time.Now()
	defer h.loadTimer.UpdateSince(start)
	return h.store.Load()
}

func (h *StoreHandler) save() error {
	start := time.Now()
	defer h.saveTimer.UpdateSince(start)
	return h.store.Save()
}

// get answers with the record whose identifier matches the query parameter
// named like the identifier field
func (h *StoreHandler) get(req *proto.Request, res *proto.Response) error {
	identifier := h.store.Identifier()
	param, ok := req.QueryParam(identifier)
	if !ok {
		return common.NewAPIErrorf(proto.StatusBadRequest, "Identifier '%s' not found in query params", identifier)
	}
	if !param.HasValue {
		return common.NewAPIErrorf(proto.StatusBadRequest, "Identifier '%s' was found in query params but has no value", identifier)
	}

	unlock := h.lock()
	defer unlock()

	if err := h.load(); err != nil {
		return err
	}
	rec, found := h.store.Find(value.String(param.Value))
	if !found {
		return common.NewAPIErrorf(proto.StatusNotFound, "Entity with `%s` = %s was not found", param.Key, param.Value)
	}

	res.SetStatus(proto.StatusOK)
	return res.SetValue(rec, req.ResponseFormat(h.formats, h.defaultFormat))
}

// post appends the record in the body and answers with its identifier
func (h *StoreHandler) post(req *proto.Request, res *proto.Response) error {
	body, _, err := req.DecodeBody(h.formats)
	if err != nil {
		return err
	}
	rec, ok := body.(value.Map)
	if !ok {
		return common.NewAPIErrorf(proto.StatusBadRequest, "request body must be an object, got %s", body.Kind())
	}

	unlock := h.lock()
	defer unlock()

	if err := h.load(); err != nil {
		return err
	}
	id, err := h.store.Create(rec)
	if err != nil {
		return err
	}
	if err := h.save(); err != nil {
		return err
	}
	log.Debugf("created entity %s = %s in %s", h.store.Identifier(), value.Render(id), h.store.Path())

	res.SetStatus(proto.StatusCreated)
	return res.SetValue(id, req.ResponseFormat(h.formats, h.defaultFormat))
}
