package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/ayusman/gestureos/internal/gesture"
	"github.com/ayusman/gestureos/internal/plugin"
	"github.com/ayusman/gestureos/internal/store"
)

// BindingHandler handles HTTP requests for binding resources.
type BindingHandler struct {
	store        *store.Store
	plugins      *plugin.Manager
	onChange     func()
	maxHoldCount int
}

// NewBindingHandler creates a new BindingHandler. When plugins is non-nil,
// bindings must name a discovered plugin and one of its actions. onChange,
// if set, runs after every successful mutation.
func NewBindingHandler(s *store.Store, plugins *plugin.Manager, onChange func()) *BindingHandler {
	return &BindingHandler{store: s, plugins: plugins, onChange: onChange}
}

// LimitHoldCount rejects hold bindings whose hold_count exceeds n. A held
// gesture can fill at most one window, so n is the engine's window size.
// Zero disables the check.
func (h *BindingHandler) LimitHoldCount(n int) *BindingHandler {
	h.maxHoldCount = n
	return h
}

// ServeHTTP implements the http.Handler interface and routes requests to appropriate methods.
func (h *BindingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Expected paths: /api/bindings or /api/bindings/{id}
	path := strings.TrimPrefix(r.URL.Path, "/api/bindings")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// Request and response types

type createBindingRequest struct {
	Hand       string          `json:"hand"`
	Sign       string          `json:"sign"`
	Kind       string          `json:"kind"`
	Priority   int             `json:"priority"`
	HoldCount  int             `json:"hold_count"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type updateBindingRequest struct {
	Hand       *string         `json:"hand"`
	Sign       *string         `json:"sign"`
	Kind       *string         `json:"kind"`
	Priority   *int            `json:"priority"`
	HoldCount  *int            `json:"hold_count"`
	PluginName *string         `json:"plugin_name"`
	ActionName *string         `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type bindingResponse struct {
	ID         string          `json:"id"`
	Gesture    string          `json:"gesture"`
	Hand       string          `json:"hand"`
	Sign       string          `json:"sign"`
	Kind       string          `json:"kind"`
	Priority   int             `json:"priority"`
	HoldCount  int             `json:"hold_count,omitempty"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  string          `json:"created_at"`
}

type listBindingsResponse struct {
	Bindings []bindingResponse `json:"bindings"`
}

func toBindingResponse(b *store.Binding) bindingResponse {
	config := b.Config
	if len(config) == 0 {
		config = json.RawMessage("{}")
	}
	return bindingResponse{
		ID:         b.ID,
		Gesture:    b.Identity().Key(),
		Hand:       b.Hand.String(),
		Sign:       b.Sign.String(),
		Kind:       string(b.Kind),
		Priority:   b.Priority,
		HoldCount:  b.HoldCount,
		PluginName: b.PluginName,
		ActionName: b.ActionName,
		Config:     config,
		Enabled:    b.Enabled,
		CreatedAt:  b.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func (h *BindingHandler) changed() {
	if h.onChange != nil {
		h.onChange()
	}
}

// checkPlugin returns a client-facing message when the binding names an
// unknown plugin or action.
func (h *BindingHandler) checkPlugin(b *store.Binding) string {
	if h.plugins == nil {
		return ""
	}
	p, err := h.plugins.Get(b.PluginName)
	if err != nil {
		return "Plugin not found"
	}
	if !p.HasAction(b.ActionName) {
		return "Plugin does not provide action " + b.ActionName
	}
	return ""
}

// save validates b and runs write, mapping store errors to responses.
// It reports whether the write succeeded.
func (h *BindingHandler) save(w http.ResponseWriter, b *store.Binding, write func(*store.Binding) error) bool {
	if err := b.Validate(); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return false
	}
	if b.Kind == store.BindingHold && h.maxHoldCount > 0 && b.HoldCount > h.maxHoldCount {
		writeError(w, http.StatusBadRequest,
			fmt.Sprintf("hold_count %d exceeds the gesture window size %d", b.HoldCount, h.maxHoldCount))
		return false
	}
	if msg := h.checkPlugin(b); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return false
	}

	if err := write(b); err != nil {
		switch {
		case errors.Is(err, store.ErrConflict):
			writeError(w, http.StatusConflict, "Priority already bound for this gesture")
		case errors.Is(err, store.ErrNotFound):
			writeError(w, http.StatusNotFound, "Binding not found")
		default:
			writeError(w, http.StatusInternalServerError, "Failed to save binding")
		}
		return false
	}
	return true
}

// list handles GET /api/bindings and returns all bindings.
func (h *BindingHandler) list(w http.ResponseWriter, r *http.Request) {
	bindings, err := h.store.Bindings().List()
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list bindings")
		return
	}

	response := listBindingsResponse{
		Bindings: make([]bindingResponse, 0, len(bindings)),
	}
	for _, b := range bindings {
		response.Bindings = append(response.Bindings, toBindingResponse(b))
	}

	writeJSON(w, http.StatusOK, response)
}

// get handles GET /api/bindings/{id} and returns a single binding.
func (h *BindingHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	b, err := h.store.Bindings().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}

	writeJSON(w, http.StatusOK, toBindingResponse(b))
}

// create handles POST /api/bindings and creates a new binding.
func (h *BindingHandler) create(w http.ResponseWriter, r *http.Request) {
	var req createBindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	hand, err := gesture.ParseHand(req.Hand)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	sign, err := gesture.ParseSign(req.Sign)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	kind := store.BindingKind(req.Kind)
	if kind == "" {
		kind = store.BindingPress
	}
	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}

	b := &store.Binding{
		ID:         uuid.New().String(),
		Hand:       hand,
		Sign:       sign,
		Kind:       kind,
		Priority:   req.Priority,
		HoldCount:  req.HoldCount,
		PluginName: req.PluginName,
		ActionName: req.ActionName,
		Config:     req.Config,
		Enabled:    enabled,
	}

	if !h.save(w, b, h.store.Bindings().Create) {
		return
	}
	h.changed()

	writeJSON(w, http.StatusCreated, toBindingResponse(b))
}

// update handles PUT /api/bindings/{id} and updates an existing binding.
func (h *BindingHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	b, err := h.store.Bindings().GetByID(id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get binding")
		return
	}

	var req updateBindingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Hand != nil {
		if b.Hand, err = gesture.ParseHand(*req.Hand); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Sign != nil {
		if b.Sign, err = gesture.ParseSign(*req.Sign); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
	}
	if req.Kind != nil {
		b.Kind = store.BindingKind(*req.Kind)
	}
	if req.Priority != nil {
		b.Priority = *req.Priority
	}
	if req.HoldCount != nil {
		b.HoldCount = *req.HoldCount
	}
	if req.PluginName != nil {
		b.PluginName = *req.PluginName
	}
	if req.ActionName != nil {
		b.ActionName = *req.ActionName
	}
	if req.Config != nil {
		b.Config = req.Config
	}
	if req.Enabled != nil {
		b.Enabled = *req.Enabled
	}

	if !h.save(w, b, h.store.Bindings().Update) {
		return
	}
	h.changed()

	writeJSON(w, http.StatusOK, toBindingResponse(b))
}

// delete handles DELETE /api/bindings/{id} and removes a binding.
func (h *BindingHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Bindings().Delete(id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Binding not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete binding")
		return
	}
	h.changed()

	w.WriteHeader(http.StatusNoContent)
}
