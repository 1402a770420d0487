package models

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"
)

// Project принадлежит ровно одному устройству; DeviceID не меняется после создания.
type Project struct {
	ID        string         `gorm:"primaryKey;size:36" json:"id"`
	DeviceID  string         `gorm:"index;size:32;not null" json:"device_id"`
	Name      string         `gorm:"size:255" json:"name"`
	Content   datatypes.JSON `json:"content"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
}

// PageContent — данные лендинга, которые вводит арендатор (недоверенные строки).
type PageContent struct {
	BusinessName string   `json:"business_name"`
	Headline     string   `json:"headline"`
	Story        string   `json:"story"`
	HeroImageURL string   `json:"hero_image_url"`
	GalleryURLs  []string `json:"gallery_urls"`
	ContactURL   string   `json:"contact_url"`
}

// Page декодирует Content; пустой документ — пустая страница.
func (p *Project) Page() (PageContent, error) {
	var pc PageContent
	if len(p.Content) == 0 {
		return pc, nil
	}
	err := json.Unmarshal(p.Content, &pc)
	return pc, err
}

// SetPage сериализует контент страницы в JSON-колонку.
func (p *Project) SetPage(pc PageContent) error {
	b, err := json.Marshal(pc)
	if err != nil {
		return err
	}
	p.Content = datatypes.JSON(b)
	return nil
}
