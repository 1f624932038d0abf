package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/huangfengdan/hwlight-ha-component/internal/device"
	"github.com/huangfengdan/hwlight-ha-component/internal/light"
)

// lightView is the JSON representation of a registered light.
type lightView struct {
	ID                string             `json:"id"`
	Name              string             `json:"name"`
	SupportedFeatures int                `json:"supported_features"`
	Features          []string           `json:"features"`
	State             light.State        `json:"state"`
	Source            light.ChangeSource `json:"source,omitempty"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// turnOnRequest is the body of POST /lights/{id}/turn_on. Both fields are optional.
type turnOnRequest struct {
	Brightness *int  `json:"brightness,omitempty"`
	RGBColor   []int `json:"rgb_color,omitempty"`
}

func featureNames(f light.Feature) []string {
	names := []string{}
	if f.Has(light.SupportBrightness) {
		names = append(names, "brightness")
	}
	if f.Has(light.SupportColor) {
		names = append(names, "rgb_color")
	}
	return names
}

func (s *Server) viewOf(e device.Light) lightView {
	v := lightView{
		ID:                e.UniqueID(),
		Name:              e.Name(),
		SupportedFeatures: int(e.SupportedFeatures()),
		Features:          featureNames(e.SupportedFeatures()),
		State:             e.Snapshot(),
	}
	if rec, err := s.registry.GetState(v.ID); err == nil {
		v.Source = rec.Source
		v.UpdatedAt = rec.UpdatedAt
	}
	return v
}

func (s *Server) handleListLights(w http.ResponseWriter, _ *http.Request) {
	lights := s.registry.List()
	views := make([]lightView, 0, len(lights))
	for _, e := range lights {
		views = append(views, s.viewOf(e))
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"lights": views,
		"count":  len(views),
	})
}

// lookup resolves {id} or writes a 404.
func (s *Server) lookup(w http.ResponseWriter, r *http.Request) (device.Light, bool) {
	id := chi.URLParam(r, "id")
	e, err := s.registry.Get(id)
	if err != nil {
		writeNotFound(w, "light not found: "+id)
		return nil, false
	}
	return e, true
}

func (s *Server) handleGetLight(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(e))
}

// handleTurnOn sends a turn-on command. An empty body is a plain "ON".
//
// The local state is updated even when the broker rejects a publish, so a
// 502 response still carries the resulting light view.
func (s *Server) handleTurnOn(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}

	var req turnOnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeBadRequest(w, "invalid JSON body: "+err.Error())
		return
	}

	opts := light.TurnOnOptions{Brightness: req.Brightness}
	if req.RGBColor != nil {
		if len(req.RGBColor) != 3 {
			writeBadRequest(w, "rgb_color must have exactly three components")
			return
		}
		opts.Color = &light.RGB{R: req.RGBColor[0], G: req.RGBColor[1], B: req.RGBColor[2]}
	}

	s.respondToCommand(w, e, e.TurnOn(opts))
}

func (s *Server) handleTurnOff(w http.ResponseWriter, r *http.Request) {
	e, ok := s.lookup(w, r)
	if !ok {
		return
	}
	s.respondToCommand(w, e, e.TurnOff())
}

func (s *Server) respondToCommand(w http.ResponseWriter, e device.Light, err error) {
	if err != nil {
		s.logger.Warn("light command failed", "entity", e.UniqueID(), "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]any{
			"status":  http.StatusBadGateway,
			"code":    ErrCodePublishFailed,
			"message": err.Error(),
			"light":   s.viewOf(e),
		})
		return
	}
	writeJSON(w, http.StatusOK, s.viewOf(e))
}

// handleLightHistory returns recorded state changes, newest first.
// ?limit= defaults to 50 and is capped at 200 by the repository.
func (s *Server) handleLightHistory(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.registry.History(r.Context(), id, limit)
	switch {
	case errors.Is(err, device.ErrEntityNotFound):
		writeNotFound(w, "light not found: "+id)
		return
	case errors.Is(err, device.ErrHistoryUnavailable):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "state history is not configured")
		return
	case err != nil:
		s.logger.Error("reading state history failed", "entity", id, "error", err)
		writeInternalError(w, "failed to read state history")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"entity_id": id,
		"history":   entries,
		"count":     len(entries),
	})
}
