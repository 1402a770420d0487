package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"lander/internal/guard"
	"lander/internal/models"
	"lander/internal/repo"
	"lander/internal/secrets"
)

type DeviceResponse struct {
	ID       string    `json:"id"`
	LinkedTo string    `json:"linked_to,omitempty"`
	Created  time.Time `json:"created_at"`
}

type LinkCodeResponse struct {
	Code      string    `json:"code"`
	ExpiresAt time.Time `json:"expires_at"`
}

type LinkRequest struct {
	Code string `json:"code"`
}

type LinkResponse struct {
	DeviceID string `json:"device_id"`
	LinkedTo string `json:"linked_to"`
}

func deviceResponse(d *models.Device) DeviceResponse {
	out := DeviceResponse{ID: d.ID, Created: d.CreatedAt}
	if d.IsLinked() {
		out.LinkedTo = *d.LinkedTo
	}
	return out
}

func decode(r *http.Request, w http.ResponseWriter, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return guard.BadRequest("Request body must be valid JSON.", err)
	}
	return nil
}

// currentDevice — устройство из контекста; неизвестный ID — DEVICE_REQUIRED.
func (h *Handler) currentDevice(r *http.Request) (*models.Device, error) {
	dev, err := h.d.Devices.GetDevice(r.Context(), guard.DeviceID(r.Context()))
	if err != nil {
		return nil, err
	}
	if dev == nil {
		return nil, guard.ErrDeviceRequired
	}
	return dev, nil
}

func (h *Handler) CreateDevice(w http.ResponseWriter, r *http.Request) error {
	dev, err := h.d.Devices.Create(r.Context())
	if err != nil {
		return err
	}
	h.d.Log.WithField("device", dev.ID[:8]).Info("device registered")
	models.WriteData(w, http.StatusCreated, deviceResponse(dev))
	return nil
}

// IssueLinkCode выдаёт одноразовый код; предыдущий код устройства перестаёт действовать.
func (h *Handler) IssueLinkCode(w http.ResponseWriter, r *http.Request) error {
	dev, err := h.currentDevice(r)
	if err != nil {
		return err
	}
	code, err := secrets.NewLinkCode()
	if err != nil {
		return err
	}
	exp := h.d.Now().UTC().Add(h.d.LinkCodeTTL)
	if err := h.d.Devices.SetLinkCode(r.Context(), dev.ID, secrets.HashLinkCode(code), exp); err != nil {
		return err
	}
	models.WriteData(w, http.StatusCreated, LinkCodeResponse{Code: code, ExpiresAt: exp})
	return nil
}

func (h *Handler) LinkDevice(w http.ResponseWriter, r *http.Request) error {
	var req LinkRequest
	if err := decode(r, w, &req); err != nil {
		return err
	}
	code := secrets.NormalizeLinkCode(req.Code)
	if !secrets.ValidLinkCode(code) {
		return guard.BadRequest("Link code is invalid or expired.", nil)
	}
	dev, err := h.currentDevice(r)
	if err != nil {
		return err
	}

	hubID, err := h.d.Devices.Link(r.Context(), dev.ID, secrets.HashLinkCode(code), h.d.Now().UTC())
	switch {
	case errors.Is(err, repo.ErrLinkCodeInvalid):
		return guard.BadRequest("Link code is invalid or expired.", err)
	case errors.Is(err, repo.ErrSelfLink):
		return guard.BadRequest("A device cannot link to itself.", err)
	case errors.Is(err, repo.ErrAlreadyLinked):
		return guard.BadRequest("This device is already linked.", err)
	case errors.Is(err, repo.ErrNotFound):
		return guard.ErrDeviceRequired
	case err != nil:
		return err
	}
	h.d.Log.WithField("device", dev.ID[:8]).Info("device linked")
	models.WriteData(w, http.StatusOK, LinkResponse{DeviceID: dev.ID, LinkedTo: hubID})
	return nil
}
