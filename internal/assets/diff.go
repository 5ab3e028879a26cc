package assets

import (
	"fmt"
	"time"

	"asset-register/internal/models"
)

// FieldChange is one before/after pair in a modification entry. Both values
// are always strings so entries stay uniform no matter what the field type
// was (the source of assigned_to values in particular is normalized through
// the employee-number resolver).
type FieldChange struct {
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// FieldValues is the tracked-field snapshot the differ compares. Build one
// from the stored asset and one from the validated input.
type FieldValues struct {
	Category           string
	Brand              string
	Model              string
	Serial             string
	Vendor             string
	PurchaseDate       *time.Time
	WarrantyExpiryDate *time.Time
	Status             models.AssetStatus
	AssignedTo         *uint
	DocumentCount      int
}

// EmployeeResolver translates a raw employee id into the business
// employee_no for readable diffs. When the employee cannot be resolved the
// decimal id is used so both sides of a change stay string-typed.
type EmployeeResolver func(id uint) (employeeNo string, ok bool)

func snapshotOf(a *models.Asset, documentCount int) FieldValues {
	return FieldValues{
		Category:           a.Category,
		Brand:              a.Brand,
		Model:              a.Model,
		Serial:             a.Serial,
		Vendor:             a.Vendor,
		PurchaseDate:       a.PurchaseDate,
		WarrantyExpiryDate: a.WarrantyExpiryDate,
		Status:             a.Status,
		AssignedTo:         a.AssignedTo,
		DocumentCount:      documentCount,
	}
}

// Diff compares the tracked fields in declaration order and returns one
// FieldChange per real difference. Empty string and absent are the same
// "no value" on both sides, dates compare on their YYYY-MM-DD rendering,
// and the document count is tracked as a synthetic trailing "documents"
// entry compared by count only.
//
// Diff is pure: running it twice over unchanged input yields the same
// (possibly empty) list both times.
func Diff(before, after FieldValues, resolve EmployeeResolver) []FieldChange {
	var changes []FieldChange

	add := func(field, oldVal, newVal string) {
		if oldVal == newVal {
			return
		}
		changes = append(changes, FieldChange{Field: field, OldValue: oldVal, NewValue: newVal})
	}

	add("category", before.Category, after.Category)
	add("brand", before.Brand, after.Brand)
	add("model", before.Model, after.Model)
	add("serial", before.Serial, after.Serial)
	add("purchase_date", canonicalDate(before.PurchaseDate), canonicalDate(after.PurchaseDate))
	add("vendor", before.Vendor, after.Vendor)
	add("warranty_expiry_date", canonicalDate(before.WarrantyExpiryDate), canonicalDate(after.WarrantyExpiryDate))
	add("status", string(before.Status), string(after.Status))
	add("assigned_to", renderAssignee(before.AssignedTo, resolve), renderAssignee(after.AssignedTo, resolve))

	if before.DocumentCount != after.DocumentCount {
		changes = append(changes, FieldChange{
			Field:    "documents",
			OldValue: renderDocumentCount(before.DocumentCount),
			NewValue: renderDocumentCount(after.DocumentCount),
		})
	}

	return changes
}

func canonicalDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("2006-01-02")
}

func renderAssignee(id *uint, resolve EmployeeResolver) string {
	if id == nil {
		return ""
	}
	if resolve != nil {
		if no, ok := resolve(*id); ok {
			return no
		}
	}
	return fmt.Sprintf("%d", *id)
}

func renderDocumentCount(n int) string {
	return fmt.Sprintf("%d document(s)", n)
}
