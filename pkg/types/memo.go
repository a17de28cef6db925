package types

import "time"

// Field names used in raw input records and in the plain-field
// representation of a memo.
const (
	FieldID        = "id"
	FieldTitle     = "title"
	FieldCreatedAt = "createdAt"
	FieldUpdatedAt = "updatedAt"
)

// Memo is the single entity managed by MemoNest. It is a value type: storage
// and service code pass copies and never modify a Memo in place.
//
// A Memo built by NewDraft is a draft; one built by Persisted refers to a
// stored row, whatever its ID, including 0. CreatedAt and UpdatedAt are
// assigned by the storage engine; a zero time means the timestamp is absent.
type Memo struct {
	ID        int64     `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"createdAt,omitzero"`
	UpdatedAt time.Time `json:"updatedAt,omitzero"`

	persisted bool
}

// NewDraft returns an unpersisted memo with the given title.
func NewDraft(title string) Memo {
	return Memo{Title: title}
}

// Persisted returns a memo that refers to the stored row with the given ID.
func Persisted(id int64, title string) Memo {
	return Memo{ID: id, Title: title, persisted: true}
}

// IsCreated reports whether the memo refers to a stored row.
func (m Memo) IsCreated() bool {
	return m.persisted
}

// Fields returns the plain-field representation of the memo used in output
// payloads. Absent fields (a draft's ID, zero timestamps) are omitted.
func (m Memo) Fields() map[string]any {
	fields := map[string]any{FieldTitle: m.Title}
	if m.persisted {
		fields[FieldID] = m.ID
	}
	if !m.CreatedAt.IsZero() {
		fields[FieldCreatedAt] = m.CreatedAt
	}
	if !m.UpdatedAt.IsZero() {
		fields[FieldUpdatedAt] = m.UpdatedAt
	}
	return fields
}
