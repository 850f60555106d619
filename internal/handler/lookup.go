package handler

import (
	"errors"
	"net/http"

	"github.com/dukerupert/buscacep/internal/address"
	"github.com/dukerupert/buscacep/internal/domain"
	"github.com/dukerupert/buscacep/internal/middleware"
	"github.com/dukerupert/buscacep/internal/telemetry"
	"github.com/dukerupert/buscacep/internal/workflow"
)

// LookupHandler serves the lookup screen and its JSON counterpart.
// Each request gets its own workflow, so screens never share state.
type LookupHandler struct {
	lookuper address.Lookuper
	renderer *Renderer
	metrics  *telemetry.LookupMetrics
	report   workflow.ErrorReporter
}

// LookupConfig wires a LookupHandler.
type LookupConfig struct {
	Lookuper address.Lookuper
	Renderer *Renderer
	Metrics  *telemetry.LookupMetrics
	Reporter workflow.ErrorReporter
}

// NewLookupHandler creates a new lookup handler.
func NewLookupHandler(cfg LookupConfig) *LookupHandler {
	return &LookupHandler{
		lookuper: cfg.Lookuper,
		renderer: cfg.Renderer,
		metrics:  cfg.Metrics,
		report:   cfg.Reporter,
	}
}

// lookupPage is the data passed to the lookup template.
type lookupPage struct {
	Input  string
	Notice string
	Lines  []address.Line
}

func pageFromState(s workflow.State) lookupPage {
	return lookupPage{
		Input:  s.InputText,
		Notice: s.Notice,
		Lines:  s.Result.Lines(),
	}
}

func (h *LookupHandler) newWorkflow(r *http.Request) *workflow.Workflow {
	return workflow.New(h.lookuper,
		workflow.WithLogger(middleware.GetLogger(r.Context())),
		workflow.WithMetrics(h.metrics),
		workflow.WithErrorReporter(h.report),
	)
}

// Page handles GET / and renders the empty screen.
// A ?cep= query pre-fills the input without submitting.
func (h *LookupHandler) Page(w http.ResponseWriter, r *http.Request) {
	wf := h.newWorkflow(r)
	wf.SetInput(r.URL.Query().Get("cep"))

	h.renderer.RenderHTTP(w, middleware.GetLogger(r.Context()), http.StatusOK, "lookup", pageFromState(wf.Snapshot()))
}

// Submit handles POST / with the form field "cep".
// The screen is always re-rendered; failures show up as the notice.
func (h *LookupHandler) Submit(w http.ResponseWriter, r *http.Request) {
	logger := middleware.GetLogger(r.Context())

	if err := r.ParseForm(); err != nil {
		ErrorResponse(w, r, domain.WrapError(err, domain.EINVALID, "handler.submit", "Formulário inválido"))
		return
	}

	wf := h.newWorkflow(r)
	err := wf.Submit(r.Context(), r.PostForm.Get("cep"))

	status := http.StatusOK
	if err != nil {
		status = domain.HTTPStatus(domain.ErrorCode(err))
	}

	h.renderer.RenderHTTP(w, logger, status, "lookup", pageFromState(wf.Snapshot()))
}

// API handles GET /api/cep/{code} and returns the address as JSON.
func (h *LookupHandler) API(w http.ResponseWriter, r *http.Request) {
	wf := h.newWorkflow(r)
	if err := wf.Submit(r.Context(), r.PathValue("code")); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	state := wf.Snapshot()
	if state.Result == nil {
		ErrorResponse(w, r, errors.New("lookup finished without a result"))
		return
	}
	writeJSON(w, http.StatusOK, state.Result)
}
