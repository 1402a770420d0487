// Package export упаковывает опубликованную страницу в воспроизводимый tar.gz.
package export

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"lander/internal/models"
	"lander/internal/render/landing"
)

// File — один файл архива.
type File struct {
	Name string
	Data []byte
	Mode int64
}

var epoch = time.Unix(0, 0)

// Build собирает tar.gz; одинаковый вход даёт побайтно одинаковый архив.
// Возвращает архив и его sha256 в hex.
func Build(files []File) ([]byte, string, error) {
	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)
	gz.ModTime = epoch
	tw := tar.NewWriter(gz)

	sorted := append([]File(nil), files...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	for _, f := range sorted {
		name, err := cleanName(f.Name)
		if err != nil {
			_ = tw.Close()
			_ = gz.Close()
			return nil, "", err
		}
		mode := f.Mode
		if mode == 0 {
			mode = 0o644
		}
		hdr := &tar.Header{
			Name:    name,
			Mode:    mode,
			Size:    int64(len(f.Data)),
			ModTime: epoch,
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return nil, "", err
		}
		if _, err := tw.Write(f.Data); err != nil {
			return nil, "", err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, "", err
	}
	if err := gz.Close(); err != nil {
		return nil, "", err
	}
	sum := sha256.Sum256(buf.Bytes())
	return buf.Bytes(), hex.EncodeToString(sum[:]), nil
}

// cleanName — относительный unix-путь без выхода за корень архива.
func cleanName(name string) (string, error) {
	n := path.Clean("/" + strings.ReplaceAll(name, "\\", "/"))
	n = strings.TrimPrefix(n, "/")
	if n == "" || n == "." {
		return "", fmt.Errorf("export: empty file name %q", name)
	}
	return n, nil
}

// manifest — описание проекта внутри архива, без служебных полей.
type manifest struct {
	ID        string             `json:"id"`
	Name      string             `json:"name"`
	UpdatedAt time.Time          `json:"updated_at"`
	Page      models.PageContent `json:"page"`
}

// Project — архив сайта проекта: index.html и project.json.
func Project(p *models.Project) ([]byte, string, error) {
	page, err := p.Page()
	if err != nil {
		return nil, "", fmt.Errorf("decode page: %w", err)
	}
	meta, err := json.MarshalIndent(manifest{
		ID:        p.ID,
		Name:      p.Name,
		UpdatedAt: p.UpdatedAt.UTC(),
		Page:      page,
	}, "", "  ")
	if err != nil {
		return nil, "", err
	}
	return Build([]File{
		{Name: "index.html", Data: landing.Render(page)},
		{Name: "project.json", Data: meta},
	})
}
