package api

import (
	"context"
	"net/http"
	"runtime"
	"time"
)

// SystemMetrics is the JSON summary served at /api/v1/metrics. Prometheus
// collectors are served separately at /metrics.
type SystemMetrics struct {
	Timestamp     string           `json:"timestamp"`
	Version       string           `json:"version"`
	UptimeSeconds int64            `json:"uptime_seconds"`
	Runtime       RuntimeMetrics   `json:"runtime"`
	WebSocket     WSMetrics        `json:"websocket"`
	Transport     TransportMetrics `json:"transport"`
	View          ViewMetrics      `json:"view"`
}

// RuntimeMetrics contains Go runtime statistics.
type RuntimeMetrics struct {
	Goroutines    int     `json:"goroutines"`
	MemoryAllocMB float64 `json:"memory_alloc_mb"`
	MemoryTotalMB float64 `json:"memory_total_mb"`
	NumGC         uint32  `json:"num_gc"`
}

// WSMetrics contains WebSocket hub statistics.
type WSMetrics struct {
	ConnectedClients int `json:"connected_clients"`
}

// TransportMetrics describes the telemetry transport.
type TransportMetrics struct {
	Name      string `json:"name,omitempty"`
	Connected bool   `json:"connected"`
}

// ViewMetrics summarises the realtime view.
type ViewMetrics struct {
	Namespace      string `json:"namespace"`
	Devices        int    `json:"devices"`
	SelectedDevice string `json:"selected_device,omitempty"`
	SelectionState string `json:"selection_state"`
}

func (s *Server) handleMetrics(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	sel := s.view.Selection()
	metrics := SystemMetrics{
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		Version:       s.version,
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
		Runtime: RuntimeMetrics{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: float64(memStats.Alloc) / 1024 / 1024,
			MemoryTotalMB: float64(memStats.TotalAlloc) / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		WebSocket: WSMetrics{
			ConnectedClients: s.hub.ClientCount(),
		},
		Transport: TransportMetrics{
			Name: s.transportName,
		},
		View: ViewMetrics{
			Namespace:      s.view.Namespace(),
			Devices:        s.view.DeviceCount(),
			SelectedDevice: sel.DeviceID,
			SelectionState: sel.State().String(),
		},
	}

	if s.transport != nil {
		ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
		metrics.Transport.Connected = s.transport.HealthCheck(ctx) == nil
		cancel()
	}

	writeJSON(w, http.StatusOK, metrics)
}
