package assets

import (
	"encoding/json"
	"time"

	"gorm.io/datatypes"

	"asset-register/internal/models"
)

// Entry shapes for the per-asset append-only logs. Once written an entry is
// never edited; the lists only grow.

type StatusEntry struct {
	Status    string    `json:"status"`
	ChangedAt time.Time `json:"changed_at"`
	ChangedBy uint      `json:"changed_by"`
}

// AssignmentEntry snapshots the employee at append time so the history stays
// readable even if the employee record is later renamed or removed. A nil
// employee means the asset was unassigned.
type AssignmentEntry struct {
	EmployeeID   *uint     `json:"employee_id"`
	EmployeeName *string   `json:"employee_name"`
	EmployeeNo   *string   `json:"employee_no"`
	Status       string    `json:"status"`
	AssignedByID uint      `json:"assigned_by_id"`
	AssignedBy   string    `json:"assigned_by"`
	AssignedAt   time.Time `json:"assigned_at"`
}

type CommentEntry struct {
	Date    string    `json:"date"`
	Comment string    `json:"comment"`
	AddedBy string    `json:"added_by"`
	AddedAt time.Time `json:"added_at"`
}

type ModificationEntry struct {
	Timestamp    time.Time     `json:"timestamp"`
	Date         string        `json:"date"`
	ModifiedByID uint          `json:"modified_by_id"`
	ModifiedBy   string        `json:"modified_by"`
	Changes      []FieldChange `json:"changes"`
}

// decodeHistory reads a stored history column. Older rows suffered format
// drift: the column can hold a JSON array, a JSON-encoded *string* of an
// array, or junk. Decode best-effort and treat anything unreadable as an
// empty log; a stored history must never fail a request.
func decodeHistory[T any](raw datatypes.JSON) []T {
	if len(raw) == 0 {
		return nil
	}
	var out []T
	if err := json.Unmarshal(raw, &out); err == nil {
		return out
	}
	var nested string
	if err := json.Unmarshal(raw, &nested); err == nil {
		if err := json.Unmarshal([]byte(nested), &out); err == nil {
			return out
		}
	}
	return nil
}

func encodeHistory[T any](entries []T) datatypes.JSON {
	raw, err := json.Marshal(entries)
	if err != nil {
		// entry types marshal cleanly by construction
		return datatypes.JSON("[]")
	}
	return raw
}

func DecodeStatusHistory(raw datatypes.JSON) []StatusEntry {
	return decodeHistory[StatusEntry](raw)
}

func DecodeAssignmentHistory(raw datatypes.JSON) []AssignmentEntry {
	return decodeHistory[AssignmentEntry](raw)
}

func DecodeCommentsHistory(raw datatypes.JSON) []CommentEntry {
	return decodeHistory[CommentEntry](raw)
}

func DecodeModificationHistory(raw datatypes.JSON) []ModificationEntry {
	return decodeHistory[ModificationEntry](raw)
}

// RecordStatusChange appends a status entry and keeps status_changed_at in
// step with the newest entry. Callers invoke it only when the new status
// differs from the current one, before overwriting the status field.
func RecordStatusChange(a *models.Asset, newStatus models.AssetStatus, actorID uint, now time.Time) {
	entries := DecodeStatusHistory(a.StatusHistory)
	entries = append(entries, StatusEntry{
		Status:    string(newStatus),
		ChangedAt: now,
		ChangedBy: actorID,
	})
	a.StatusHistory = encodeHistory(entries)
	a.StatusChangedAt = &now
}

// RecordAssignmentChange appends an assignment entry. employee carries the
// lookup-time snapshot; pass nil to record an unassignment.
func RecordAssignmentChange(a *models.Asset, employee *EmployeeRef, statusAtTime models.AssetStatus, actorID uint, actorName string, now time.Time) {
	entry := AssignmentEntry{
		Status:       string(statusAtTime),
		AssignedByID: actorID,
		AssignedBy:   actorName,
		AssignedAt:   now,
	}
	if employee != nil {
		id := employee.ID
		name := employee.FullName
		no := employee.EmployeeNo
		entry.EmployeeID = &id
		entry.EmployeeName = &name
		entry.EmployeeNo = &no
	}
	entries := DecodeAssignmentHistory(a.AssignmentHistory)
	entries = append(entries, entry)
	a.AssignmentHistory = encodeHistory(entries)
}

// RecordComment appends a comment entry. The 1000-char bound on text is the
// validator's job, not the ledger's.
func RecordComment(a *models.Asset, text string, actorName string, now time.Time) {
	entries := DecodeCommentsHistory(a.CommentsHistory)
	entries = append(entries, CommentEntry{
		Date:    now.Format("2006-01-02"),
		Comment: text,
		AddedBy: actorName,
		AddedAt: now,
	})
	a.CommentsHistory = encodeHistory(entries)
}

// RecordModification appends a modification entry carrying the computed
// change set. An empty change set appends nothing.
func RecordModification(a *models.Asset, changes []FieldChange, actorID uint, actorName string, now time.Time) {
	if len(changes) == 0 {
		return
	}
	entries := DecodeModificationHistory(a.ModificationHistory)
	entries = append(entries, ModificationEntry{
		Timestamp:    now,
		Date:         now.Format("2006-01-02"),
		ModifiedByID: actorID,
		ModifiedBy:   actorName,
		Changes:      changes,
	})
	a.ModificationHistory = encodeHistory(entries)
}
