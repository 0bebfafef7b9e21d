package models

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrPageNotFound is returned by the page store when no row matches
var ErrPageNotFound = errors.New("page not found")

// Visibility status of a landing page
type Status string

const (
	StatusDraft    Status = "draft"
	StatusPending  Status = "pending"
	StatusActive   Status = "active"
	StatusRejected Status = "rejected"
)

// Statuses is the closed set of page statuses
var Statuses = []string{
	string(StatusDraft),
	string(StatusPending),
	string(StatusActive),
	string(StatusRejected),
}

// ColorSchemes is the closed palette set a page can be rendered with
var ColorSchemes = []string{
	"harmonia",
	"witalnosc",
	"profesjonalizm",
	"harmoniaNat",
	"pewnosc",
}

type Page struct {
	ID        string            `json:"id"`
	Status    Status            `json:"status"`
	Category  string            `json:"category,omitempty"`
	URL       *string           `json:"url"`
	DraftURL  *string           `json:"draft_url"`
	Color     string            `json:"color,omitempty"`
	PageType  string            `json:"page_type,omitempty"`
	OwnerID   string            `json:"owner_id,omitempty"`
	Visitors  int               `json:"visitors"`
	Leads     int               `json:"leads"`
	Fields    map[string]string `json:"fields,omitempty"`
	CreatedAt *time.Time        `json:"created_at,omitempty"`
}

type Pages []Page

// Value returns the current value of any allow-listed field,
// be it a page-level attribute or a content column.
func (p *Page) Value(field string) string {
	switch field {
	case FieldStatus:
		return string(p.Status)
	case FieldCategory:
		return p.Category
	case FieldColor:
		return p.Color
	}
	return p.Fields[field]
}

// EditableValues returns every editable text value of the page,
// excluding the color scheme which is edited separately.
func (p *Page) EditableValues() map[string]string {
	values := make(map[string]string, len(p.Fields)+2)
	for k, v := range p.Fields {
		values[k] = v
	}
	values[FieldStatus] = string(p.Status)
	values[FieldCategory] = p.Category
	return values
}

// PublicURL returns the public address or an empty string
func (p *Page) PublicURL() string {
	if p.URL == nil {
		return ""
	}
	return *p.URL
}

// MarshalBinary implements the encoding.BinaryMarshaler interface
func (p Page) MarshalBinary() (data []byte, err error) {
	return json.Marshal(p)
}

// UnmarshalBinary implements the encoding.BinaryUnmarshaler interface
func (p *Page) UnmarshalBinary(data []byte) error {
	return json.Unmarshal(data, p)
}

// PageFilter narrows down a page listing
type PageFilter struct {
	Status   string
	PageType string
	Search   string
	// Empty owner lists the pages of every partner
	OwnerID string
}
