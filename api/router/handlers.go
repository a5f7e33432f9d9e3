package router

import (
	"bytes"
	"fmt"

	vm "github.com/VictoriaMetrics/metrics"
	"github.com/ValentinKolb/mocker/api/common"
	"github.com/ValentinKolb/mocker/api/proto"
)

// ScriptHandler stands for routes answered by a function of a script.
// Running scripts is not supported, every request is answered with 501.
type ScriptHandler struct {
	script string
	fn     string
}

func NewScriptHandler(script, fn string) *ScriptHandler {
	return &ScriptHandler{script: script, fn: fn}
}

func (h *ScriptHandler) Describe() string {
	return fmt.Sprintf("script %s:%s", h.script, h.fn)
}

func (h *ScriptHandler) Handle(_ *proto.Request, _ *proto.Response) error {
	return common.NewAPIErrorf(proto.StatusNotImplemented, "script routes are not supported (%s:%s)", h.script, h.fn)
}

// MetricsContentType is the content type of the prometheus text exposition format
const MetricsContentType = "text/plain; version=0.0.4"

// MetricsHandler exposes a metrics set in the prometheus text format
type MetricsHandler struct {
	set *vm.Set
}

func NewMetricsHandler(set *vm.Set) *MetricsHandler {
	return &MetricsHandler{set: set}
}

func (h *MetricsHandler) Describe() string {
	return "metrics"
}

func (h *MetricsHandler) Handle(req *proto.Request, res *proto.Response) error {
	if req.Method() != proto.MethodGet {
		return common.NewAPIError(proto.StatusMethodNotAllowed, "")
	}
	var buf bytes.Buffer
	h.set.WritePrometheus(&buf)
	res.SetStatus(proto.StatusOK)
	res.SetHeader(proto.HeaderContentType, MetricsContentType)
	res.SetBody(buf.Bytes())
	return nil
}
