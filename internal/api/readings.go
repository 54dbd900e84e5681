package api

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nerrad567/dht-realtime/internal/telemetry"
)

// ReadingResponse is the wire form of one table row.
type ReadingResponse struct {
	DeviceID    string  `json:"device_id"`
	Temperature float64 `json:"temperature"`
	Humidity    float64 `json:"humidity"`
	Timestamp   float64 `json:"timestamp"`
	// Time is Timestamp rendered as RFC 3339 in UTC.
	Time string `json:"time"`
}

// SelectionResponse is the wire form of the focused device.
type SelectionResponse struct {
	DeviceID string           `json:"device_id,omitempty"`
	State    string           `json:"state"`
	Snapshot *ReadingResponse `json:"snapshot,omitempty"`
}

type setSelectionRequest struct {
	DeviceID string `json:"device_id"`
}

func toReadingResponse(r telemetry.Reading) ReadingResponse {
	return ReadingResponse{
		DeviceID:    r.DeviceID,
		Temperature: r.Temperature,
		Humidity:    r.Humidity,
		Timestamp:   r.Timestamp,
		Time:        r.Time().Format(time.RFC3339Nano),
	}
}

func toSelectionResponse(sel telemetry.Selection) SelectionResponse {
	resp := SelectionResponse{
		DeviceID: sel.DeviceID,
		State:    sel.State().String(),
	}
	if sel.HasSnapshot {
		snap := toReadingResponse(sel.Snapshot)
		resp.Snapshot = &snap
	}
	return resp
}

// handleListReadings returns every device's latest reading in first-seen
// order.
func (s *Server) handleListReadings(w http.ResponseWriter, _ *http.Request) {
	readings := s.view.Readings()
	out := make([]ReadingResponse, len(readings))
	for i, r := range readings {
		out[i] = toReadingResponse(r)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"readings": out,
		"count":    len(out),
	})
}

// handleGetReading returns the latest reading for one device. Device IDs
// may contain "/", sent either literally or escaped as %2F.
func (s *Server) handleGetReading(w http.ResponseWriter, r *http.Request) {
	id, err := url.PathUnescape(chi.URLParam(r, "*"))
	if err != nil || id == "" {
		writeBadRequest(w, "invalid device id")
		return
	}
	reading, ok := s.view.Reading(id)
	if !ok {
		writeNotFound(w, "no reading for device "+id)
		return
	}
	writeJSON(w, http.StatusOK, toReadingResponse(reading))
}

// handleGetSelection reconciles and returns the focused device.
func (s *Server) handleGetSelection(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, toSelectionResponse(s.view.Refresh()))
}

// handleSetSelection focuses a device. The device does not need to have
// reported yet; its snapshot fills in on the next matching message.
func (s *Server) handleSetSelection(w http.ResponseWriter, r *http.Request) {
	var req setSelectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.DeviceID) == "" {
		writeError(w, http.StatusBadRequest, ErrCodeValidation, "device_id is required")
		return
	}

	sel := s.view.Select(req.DeviceID)
	s.logger.Info("device selected",
		"device_id", req.DeviceID,
		"state", sel.State().String(),
		"subject", claimsFromContext(r.Context()).Subject,
	)
	writeJSON(w, http.StatusOK, toSelectionResponse(sel))
}
