package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"

	"github.com/mzeryck/widgetsched/common"
	"github.com/mzeryck/widgetsched/internal/exporter"
	"github.com/mzeryck/widgetsched/pkg/logger"
	"github.com/mzeryck/widgetsched/pkg/schedule"
	"github.com/mzeryck/widgetsched/pkg/slot"
)

// Custom JSON-RPC error codes.
const (
	codeNotConfigured = jrpc2.Code(-32001)
	codeWidgetMissing = jrpc2.Code(-32002)
	codeRenderFailed  = jrpc2.Code(-32003)
)

// Backend is the read-only view of the daemon the RPC methods use.
type Backend interface {
	// Snapshot returns a copy of the current schedule.
	Snapshot() (*schedule.Schedule, error)
	Widgets() ([]exporter.Widget, error)
	Render(ctx context.Context, widget string, at time.Time) (*exporter.Result, error)
}

type RPCConfig struct {
	// Secret is the Bearer token. Empty disables the RPC endpoints.
	Secret    string
	Version   string
	Commit    string
	BuildType string
}

// RPCServer serves the JSON-RPC methods over HTTP and WebSocket.
type RPCServer struct {
	methods  handler.Map
	bridge   jhttp.Bridge
	cfg      RPCConfig
	backend  Backend
	notifier *Notifier
	log      logger.Logger
	// now is the clock used when a request carries no time.
	now func() time.Time
}

func NewRPCServer(cfg RPCConfig, b Backend, n *Notifier, l logger.Logger) *RPCServer {
	if l == nil {
		l = logger.NewNopLogger()
	}
	if n == nil {
		n = NewNotifier(l)
	}
	rs := &RPCServer{
		cfg:      cfg,
		backend:  b,
		notifier: n,
		log:      l,
		now:      time.Now,
	}
	rs.methods = handler.Map{
		common.MethodVersion:         handler.New(rs.systemGetVersion),
		common.MethodScheduleGet:     handler.New(rs.scheduleGet),
		common.MethodScheduleEntries: handler.New(rs.scheduleEntries),
		common.MethodScheduleCurrent: handler.New(rs.scheduleCurrent),
		common.MethodWidgetList:      handler.New(rs.widgetList),
		common.MethodWidgetRender:    handler.New(rs.widgetRender),
	}
	rs.bridge = jhttp.NewBridge(rs.methods, nil)
	return rs
}

// Handler routes the HTTP bridge and the WebSocket endpoint, both behind
// token auth.
func (rs *RPCServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle(common.RPCPath, requireToken(rs.cfg.Secret, rs.bridge))
	mux.Handle(common.RPCWSPath, requireToken(rs.cfg.Secret, http.HandlerFunc(rs.serveWS)))
	return mux
}

func (rs *RPCServer) Notifier() *Notifier {
	return rs.notifier
}

func (rs *RPCServer) Close() {
	rs.bridge.Close()
}

func (rs *RPCServer) at(t time.Time) time.Time {
	if t.IsZero() {
		return rs.now()
	}
	return t
}

func (rs *RPCServer) systemGetVersion(_ context.Context) (*common.VersionInfo, error) {
	return &common.VersionInfo{
		Version:   rs.cfg.Version,
		Commit:    rs.cfg.Commit,
		BuildType: rs.cfg.BuildType,
	}, nil
}

func (rs *RPCServer) snapshot() (*schedule.Schedule, error) {
	s, err := rs.backend.Snapshot()
	if errors.Is(err, schedule.ErrNotConfigured) {
		return nil, &jrpc2.Error{Code: codeNotConfigured, Message: err.Error()}
	}
	return s, err
}

func (rs *RPCServer) scheduleGet(_ context.Context) (*common.ScheduleRecord, error) {
	s, err := rs.snapshot()
	if err != nil {
		return nil, err
	}
	rec := &common.ScheduleRecord{
		Name:          s.Name,
		DefaultWidget: s.DefaultWidget,
		Times:         s.Times[:],
	}
	if mod, err := s.LastModified(); err == nil {
		rec.Modified = mod.Format(time.RFC3339)
	}
	return rec, nil
}

func (rs *RPCServer) scheduleEntries(_ context.Context) ([]common.EntryInfo, error) {
	s, err := rs.snapshot()
	if err != nil {
		return nil, err
	}
	out := []common.EntryInfo{}
	for e := range s.All() {
		out = append(out, common.EntryInfo{
			Widget: e.Widget,
			Start:  int(e.Start),
			End:    int(e.End),
			From:   e.Start.Clock(),
			Until:  (e.End + 1).Clock(),
		})
	}
	return out, nil
}

func (rs *RPCServer) scheduleCurrent(_ context.Context, p *common.CurrentParams) (*common.CurrentResponse, error) {
	s, err := rs.snapshot()
	if err != nil {
		return nil, err
	}
	at := rs.at(p.At)
	i := slot.FromTime(at)
	return &common.CurrentResponse{
		Widget: s.Resolve(at),
		Slot:   int(i),
		At:     i.Clock(),
	}, nil
}

func (rs *RPCServer) widgetList(_ context.Context) ([]exporter.Widget, error) {
	ws, err := rs.backend.Widgets()
	if err != nil {
		return nil, err
	}
	if ws == nil {
		ws = []exporter.Widget{}
	}
	return ws, nil
}

func (rs *RPCServer) widgetRender(ctx context.Context, p *common.RenderParams) (*common.RenderResponse, error) {
	res, err := rs.backend.Render(ctx, p.Widget, rs.at(p.At))
	switch {
	case errors.Is(err, schedule.ErrNotConfigured):
		return nil, &jrpc2.Error{Code: codeNotConfigured, Message: err.Error()}
	case errors.Is(err, exporter.ErrConfigurationMissing):
		return nil, &jrpc2.Error{Code: codeWidgetMissing, Message: err.Error()}
	case err != nil:
		return nil, &jrpc2.Error{Code: codeRenderFailed, Message: err.Error()}
	}
	return RenderResponse(res), nil
}

// RenderResponse converts an exporter result to its wire form.
func RenderResponse(res *exporter.Result) *common.RenderResponse {
	return &common.RenderResponse{
		Widget:   res.Widget,
		CacheHit: res.CacheHit,
		Value:    res.Value,
		Elapsed:  res.Elapsed.String(),
	}
}
