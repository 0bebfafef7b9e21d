// Package editbuffer keeps the unsaved edits of one editing session
// (one page, one user) as a diff against the last committed values.
package editbuffer

import (
	"context"
	"maps"

	"github.com/MarcinMove37ai/hps-app-sub002/internal/models"
)

// Committer persists one merged change set of a page
type Committer interface {
	CommitPage(ctx context.Context, pageID string, changes map[string]string) (*models.Page, error)
}

// Buffer is not safe for concurrent use.
// Callers should not trigger a commit while another one is in flight.
type Buffer struct {
	committer      Committer
	originalFields map[string]string
	originalColor  string
	pendingFields  map[string]string
	pendingColor   *string
}

// New seeds a clean buffer with the committed values of a page.
// The original map is copied.
func New(committer Committer, original map[string]string, originalColor string) *Buffer {
	fields := maps.Clone(original)
	if fields == nil {
		fields = make(map[string]string)
	}

	return &Buffer{
		committer:      committer,
		originalFields: fields,
		originalColor:  originalColor,
		pendingFields:  make(map[string]string),
	}
}

// FromPage seeds a buffer with the editable values of a stored page
func FromPage(committer Committer, page *models.Page) *Buffer {
	return New(committer, page.EditableValues(), page.Color)
}

// SetField records an edit, dropping it when the value
// equals the committed one again. The color key goes to SetColor.
func (b *Buffer) SetField(name, value string) {
	if name == models.FieldColor {
		b.SetColor(value)
		return
	}

	if value == b.originalFields[name] {
		delete(b.pendingFields, name)
		return
	}
	b.pendingFields[name] = value
}

// SetColor records a color scheme edit with the same pruning rule
func (b *Buffer) SetColor(value string) {
	if value == b.originalColor {
		b.pendingColor = nil
		return
	}
	b.pendingColor = &value
}

func (b *Buffer) IsDirty() bool {
	return len(b.pendingFields) > 0 || b.pendingColor != nil
}

func (b *Buffer) DirtyCount() int {
	count := len(b.pendingFields)
	if b.pendingColor != nil {
		count++
	}
	return count
}

// CurrentValue is the latest intended value of a field,
// pending if edited, committed otherwise.
func (b *Buffer) CurrentValue(name string) string {
	if name == models.FieldColor {
		return b.CurrentColor()
	}
	if v, ok := b.pendingFields[name]; ok {
		return v
	}
	return b.originalFields[name]
}

func (b *Buffer) OriginalValue(name string) string {
	if name == models.FieldColor {
		return b.originalColor
	}
	return b.originalFields[name]
}

func (b *Buffer) IsFieldChanged(name string) bool {
	if name == models.FieldColor {
		return b.pendingColor != nil
	}
	_, ok := b.pendingFields[name]
	return ok
}

// CurrentColor mirrors CurrentValue for the color scheme
func (b *Buffer) CurrentColor() string {
	if b.pendingColor != nil {
		return *b.pendingColor
	}
	return b.originalColor
}

// Pending returns the merged change set a commit would send
func (b *Buffer) Pending() map[string]string {
	changes := maps.Clone(b.pendingFields)
	if b.pendingColor != nil {
		changes[models.FieldColor] = *b.pendingColor
	}
	return changes
}

// Clear discards every unsaved edit
func (b *Buffer) Clear() {
	clear(b.pendingFields)
	b.pendingColor = nil
}

// Commit sends all pending edits as one change set.
// On success they become the new committed values.
// On failure nothing is cleared, so the commit can be retried.
func (b *Buffer) Commit(ctx context.Context, pageID string) (bool, error) {
	if !b.IsDirty() {
		return true, nil
	}

	changes := b.Pending()
	if _, err := b.committer.CommitPage(ctx, pageID, changes); err != nil {
		return false, err
	}

	for name, value := range changes {
		if name == models.FieldColor {
			b.originalColor = value
			continue
		}
		b.originalFields[name] = value
	}

	b.Clear()
	return true, nil
}
