package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"lander/internal/export"
	"lander/internal/guard"
	"lander/internal/models"
	"lander/internal/ownership"
	"lander/internal/patch"
	"lander/internal/render/landing"
	"lander/internal/repo"
)

type ProjectRequest struct {
	Name    string             `json:"name"`
	Content models.PageContent `json:"content"`
}

type ProjectResponse struct {
	models.Project
	Page models.PageContent `json:"page"`
}

func (req *ProjectRequest) validate() error {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return guard.BadRequest("Project name is required.", nil)
	}
	if len(req.Name) > maxNameLen {
		return guard.BadRequest("Project name is too long.", nil)
	}
	return nil
}

func projectResponse(p *models.Project) (ProjectResponse, error) {
	page, err := p.Page()
	if err != nil {
		return ProjectResponse{}, err
	}
	return ProjectResponse{Project: *p, Page: page}, nil
}

// ListProjects — проекты всех устройств из AccessSet запрашивающего.
func (h *Handler) ListProjects(w http.ResponseWriter, r *http.Request) error {
	set, err := h.d.Verifier.AccessSet(r.Context(), guard.DeviceID(r.Context()))
	if err != nil {
		return err
	}
	rows, err := h.d.Projects.ListByDevices(r.Context(), ownership.IDs(set))
	if err != nil {
		return err
	}
	out := make([]ProjectResponse, 0, len(rows))
	for i := range rows {
		pr, err := projectResponse(&rows[i])
		if err != nil {
			return err
		}
		out = append(out, pr)
	}
	models.WriteData(w, http.StatusOK, out)
	return nil
}

func (h *Handler) CreateProject(w http.ResponseWriter, r *http.Request) error {
	var req ProjectRequest
	if err := decode(r, w, &req); err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}
	dev, err := h.currentDevice(r)
	if err != nil {
		return err
	}

	p := &models.Project{DeviceID: dev.ID, Name: req.Name}
	if err := p.SetPage(req.Content); err != nil {
		return err
	}
	if err := h.d.Projects.Create(r.Context(), p); err != nil {
		return err
	}
	out, err := projectResponse(p)
	if err != nil {
		return err
	}
	models.WriteData(w, http.StatusCreated, out)
	return nil
}

// loadProject — проект из маршрута; вызывается только после OwnerOnly.
func (h *Handler) loadProject(r *http.Request) (*models.Project, error) {
	p, err := h.d.Projects.GetProject(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return nil, err
	}
	if p == nil {
		// удалён между проверкой владельца и чтением
		return nil, guard.ErrNotFound
	}
	return p, nil
}

func (h *Handler) GetProject(w http.ResponseWriter, r *http.Request) error {
	p, err := h.loadProject(r)
	if err != nil {
		return err
	}
	out, err := projectResponse(p)
	if err != nil {
		return err
	}
	models.WriteData(w, http.StatusOK, out)
	return nil
}

func (h *Handler) UpdateProject(w http.ResponseWriter, r *http.Request) error {
	var req ProjectRequest
	if err := decode(r, w, &req); err != nil {
		return err
	}
	if err := req.validate(); err != nil {
		return err
	}
	p, err := h.loadProject(r)
	if err != nil {
		return err
	}
	p.Name = req.Name
	if err := p.SetPage(req.Content); err != nil {
		return err
	}
	if err := h.d.Projects.Update(r.Context(), p); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return guard.ErrNotFound
		}
		return err
	}
	out, err := projectResponse(p)
	if err != nil {
		return err
	}
	models.WriteData(w, http.StatusOK, out)
	return nil
}

func (h *Handler) DeleteProject(w http.ResponseWriter, r *http.Request) error {
	id := mux.Vars(r)["id"]
	if err := h.d.Projects.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return guard.ErrNotFound
		}
		return err
	}
	models.WriteData(w, http.StatusOK, map[string]string{"id": id})
	return nil
}

// PublicPage отдаёт лендинг проекта как text/html.
func (h *Handler) PublicPage(w http.ResponseWriter, r *http.Request) error {
	p, err := h.d.Projects.GetProject(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		return err
	}
	if p == nil {
		return guard.ErrNotFound
	}
	page, err := p.Page()
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(landing.Render(page))
	return nil
}

// PatchRequest — частичное обновление; content сливается с текущим.
type PatchRequest struct {
	Name    *string         `json:"name"`
	Content json.RawMessage `json:"content"`
}

func (h *Handler) PatchProject(w http.ResponseWriter, r *http.Request) error {
	var req PatchRequest
	if err := decode(r, w, &req); err != nil {
		return err
	}
	p, err := h.loadProject(r)
	if err != nil {
		return err
	}
	if req.Name != nil {
		name := ProjectRequest{Name: *req.Name}
		if err := name.validate(); err != nil {
			return err
		}
		p.Name = name.Name
	}
	if len(req.Content) > 0 {
		merged, err := patch.MergeJSON(p.Content, req.Content)
		if err != nil {
			return guard.BadRequest("Content must be a JSON object.", err)
		}
		// через PageContent, чтобы в колонку не попали посторонние ключи
		var page models.PageContent
		if err := json.Unmarshal(merged, &page); err != nil {
			return guard.BadRequest("Content has invalid fields.", err)
		}
		if err := p.SetPage(page); err != nil {
			return err
		}
	}
	if err := h.d.Projects.Update(r.Context(), p); err != nil {
		if errors.Is(err, repo.ErrNotFound) {
			return guard.ErrNotFound
		}
		return err
	}
	out, err := projectResponse(p)
	if err != nil {
		return err
	}
	models.WriteData(w, http.StatusOK, out)
	return nil
}

// ExportProject отдаёт tar.gz сайта; ETag — sha256 архива.
func (h *Handler) ExportProject(w http.ResponseWriter, r *http.Request) error {
	p, err := h.loadProject(r)
	if err != nil {
		return err
	}
	archive, sum, err := export.Project(p)
	if err != nil {
		return err
	}
	etag := `"` + sum + `"`
	if r.Header.Get("If-None-Match") == etag {
		w.WriteHeader(http.StatusNotModified)
		return nil
	}
	w.Header().Set("Content-Type", "application/gzip")
	w.Header().Set("Content-Disposition", `attachment; filename="site-`+p.ID+`.tar.gz"`)
	w.Header().Set("ETag", etag)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
	return nil
}
