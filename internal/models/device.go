package models

import "time"

// Device — анонимное устройство арендатора. ID выдаётся при первом визите
// и дальше служит единственным удостоверением владельца.
type Device struct {
	ID        string    `gorm:"primaryKey;size:32" json:"id"` // 128 бит, hex
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// LinkedTo — хаб, к которому привязано устройство (не более одного).
	LinkedTo *string `gorm:"index;size:32" json:"linked_to,omitempty"`

	// Одноразовый код привязки; храним только хэш.
	LinkCodeHash      *string    `gorm:"uniqueIndex;size:64" json:"-"`
	LinkCodeExpiresAt *time.Time `json:"-"`
}

// IsLinked сообщает, привязано ли устройство к хабу.
func (d *Device) IsLinked() bool { return d.LinkedTo != nil && *d.LinkedTo != "" }
