package admin

import (
	"net/http"
	"strconv"
	"time"

	"lander/internal/models"
)

const (
	defaultListLimit = 50
	maxListLimit     = 200
)

type Handler struct {
	d Dependencies
}

type StatsResponse struct {
	Devices       int64 `json:"devices"`
	Projects      int64 `json:"projects"`
	RateLimitKeys *int  `json:"ratelimit_keys,omitempty"`
	UptimeSeconds int64 `json:"uptime_seconds"`
}

type DeviceRow struct {
	ID          string    `json:"id"`
	LinkedTo    string    `json:"linked_to,omitempty"`
	PendingCode bool      `json:"pending_link_code"`
	CreatedAt   time.Time `json:"created_at"`
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) error {
	devices, err := h.d.Devices.Count(r.Context())
	if err != nil {
		return err
	}
	projects, err := h.d.Projects.Count(r.Context())
	if err != nil {
		return err
	}
	out := StatsResponse{
		Devices:       devices,
		Projects:      projects,
		UptimeSeconds: int64(time.Since(h.d.Started).Seconds()),
	}
	if h.d.TrackedKeys != nil {
		n := h.d.TrackedKeys()
		out.RateLimitKeys = &n
	}
	models.WriteData(w, http.StatusOK, out)
	return nil
}

// Devices — последние устройства; ?limit=N, не больше maxListLimit.
func (h *Handler) Devices(w http.ResponseWriter, r *http.Request) error {
	limit := defaultListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = min(n, maxListLimit)
		}
	}
	rows, err := h.d.Devices.List(r.Context(), limit)
	if err != nil {
		return err
	}
	out := make([]DeviceRow, 0, len(rows))
	for _, d := range rows {
		row := DeviceRow{ID: d.ID, CreatedAt: d.CreatedAt, PendingCode: d.LinkCodeHash != nil}
		if d.IsLinked() {
			row.LinkedTo = *d.LinkedTo
		}
		out = append(out, row)
	}
	models.WriteData(w, http.StatusOK, out)
	return nil
}
