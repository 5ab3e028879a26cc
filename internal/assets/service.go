package assets

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"

	"asset-register/internal/models"
	"asset-register/internal/storage"
)

const (
	documentsFolder = "asset-docs"
	maxCommentLen   = 1000

	// insert retries after an asset_id unique-index conflict; the index is
	// what actually serializes concurrent creates
	maxCreateAttempts = 3

	systemDisplayName = "System"
)

// Repository is the persistence surface the orchestrator needs. The gorm
// implementation lives in internal/database.
type Repository interface {
	GetByID(id uint, includeDeleted bool) (*models.Asset, error)
	// GetByIDLocked reads the row with an exclusive row lock. Only valid
	// inside Transact; the lock holds until the transaction ends.
	GetByIDLocked(id uint) (*models.Asset, error)
	// ListAssetIDs returns every business identifier, soft-deleted included.
	ListAssetIDs() ([]string, error)
	// AssetIDExists checks an exact identifier, soft-deleted included.
	AssetIDExists(assetID string) (bool, error)
	Create(a *models.Asset) error
	UpdateFields(id uint, fields map[string]any) error
	SoftDelete(id uint) error
	Restore(id uint) error
	// Transact runs fn in one transaction; fn must do all its reads and
	// writes through the repository it receives.
	Transact(fn func(tx Repository) error) error
}

// EmployeeRef is the lookup-time snapshot recorded into assignment history.
type EmployeeRef struct {
	ID         uint
	EmployeeNo string
	FullName   string
}

type EmployeeDirectory interface {
	LookupByID(id uint) (*EmployeeRef, error)
}

type UserDirectory interface {
	DisplayName(id uint) (string, error)
}

// AssetInput is the validated field set for create and update.
type AssetInput struct {
	Category           string
	Brand              string
	Model              string
	Serial             string
	Vendor             string
	PurchaseDate       *time.Time
	WarrantyExpiryDate *time.Time
	Status             models.AssetStatus
	AssignedTo         *uint
	Notes              json.RawMessage
}

// Upload is one document received with a create/update request.
type Upload struct {
	OriginalName string
	Data         []byte
}

// Service orchestrates asset mutations: identifier generation, history
// appends, change-set diffing and document bookkeeping, ending in a single
// persistence write per request.
type Service struct {
	repo      Repository
	employees EmployeeDirectory
	users     UserDirectory
	store     storage.Storage

	now func() time.Time
}

func NewService(repo Repository, employees EmployeeDirectory, users UserDirectory, store storage.Storage) *Service {
	return &Service{
		repo:      repo,
		employees: employees,
		users:     users,
		store:     store,
		now:       time.Now,
	}
}

// Create validates the input, allocates the next asset id, stores any
// uploaded documents and persists the new asset with its initial status
// history entry (and an assignment entry when an assignee is given).
func (s *Service) Create(ctx context.Context, actorID uint, in AssetInput, uploads []Upload) (*models.Asset, error) {
	emp, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	docs, err := s.storeUploads(ctx, uploads)
	if err != nil {
		return nil, err
	}

	now := s.now()
	actorName := s.actorName(actorID)

	a := &models.Asset{
		Category:           in.Category,
		Brand:              in.Brand,
		Model:              in.Model,
		Serial:             in.Serial,
		Vendor:             in.Vendor,
		PurchaseDate:       in.PurchaseDate,
		WarrantyExpiryDate: in.WarrantyExpiryDate,
		Status:             in.Status,
		AssignedTo:         in.AssignedTo,
		DocumentPaths:      EncodeDocuments(docs),
		CreatedBy:          actorID,
		UpdatedBy:          actorID,
	}
	if in.Notes != nil {
		a.Notes = datatypes.JSON(in.Notes)
	}

	// initial status entry is always recorded: there is no prior status
	RecordStatusChange(a, in.Status, actorID, now)
	if in.AssignedTo != nil {
		RecordAssignmentChange(a, emp, in.Status, actorID, actorName, now)
	}

	for attempt := 0; attempt < maxCreateAttempts; attempt++ {
		ids, err := s.repo.ListAssetIDs()
		if err != nil {
			return nil, err
		}
		a.AssetID, err = NextAssetID(ids, s.repo.AssetIDExists)
		if err != nil {
			return nil, err
		}

		err = s.repo.Create(a)
		if err == nil {
			return a, nil
		}
		if !errors.Is(err, ErrDuplicateAssetID) {
			return nil, err
		}
		// concurrent create won the id; regenerate and try again
		zap.S().Warnw("asset id conflict on insert, retrying", "asset_id", a.AssetID)
	}
	return nil, ErrExhaustedRetries
}

// Update validates the input, reconciles documents, appends the conditional
// history entries against the pre-update snapshot and performs one write
// carrying the scalar fields plus only the history columns that changed.
// The read-append-write runs under a row lock in one transaction so
// concurrent updates to the same asset serialize: each append bases on the
// previous writer's committed history instead of a stale read.
func (s *Service) Update(ctx context.Context, actorID uint, id uint, in AssetInput, uploads []Upload, removeIndices []int) (*models.Asset, error) {
	if _, err := s.repo.GetByID(id, false); err != nil {
		return nil, err
	}

	emp, err := s.validate(in)
	if err != nil {
		return nil, err
	}

	added, err := s.storeUploads(ctx, uploads)
	if err != nil {
		return nil, err
	}

	now := s.now()
	actorName := s.actorName(actorID)

	var a *models.Asset
	var removed []DocumentRef
	err = s.repo.Transact(func(tx Repository) error {
		a, err = tx.GetByIDLocked(id)
		if err != nil {
			return err
		}

		docs := DecodeDocuments(a.DocumentPaths)
		oldSnapshot := snapshotOf(a, len(docs))

		var kept []DocumentRef
		kept, removed = RemoveDocuments(docs, removeIndices)
		kept = append(kept, added...)

		// history appends compare against pre-update state, before any
		// field is overwritten
		statusChanged := in.Status != a.Status
		if statusChanged {
			RecordStatusChange(a, in.Status, actorID, now)
		}
		assignmentChanged := !uintPtrEqual(a.AssignedTo, in.AssignedTo)
		if assignmentChanged {
			RecordAssignmentChange(a, emp, in.Status, actorID, actorName, now)
		}

		newSnapshot := FieldValues{
			Category:           in.Category,
			Brand:              in.Brand,
			Model:              in.Model,
			Serial:             in.Serial,
			Vendor:             in.Vendor,
			PurchaseDate:       in.PurchaseDate,
			WarrantyExpiryDate: in.WarrantyExpiryDate,
			Status:             in.Status,
			AssignedTo:         in.AssignedTo,
			DocumentCount:      len(kept),
		}
		changes := Diff(oldSnapshot, newSnapshot, s.employeeNoResolver())
		RecordModification(a, changes, actorID, actorName, now)

		fields := map[string]any{
			"category":             in.Category,
			"brand":                in.Brand,
			"model":                in.Model,
			"serial":               in.Serial,
			"vendor":               in.Vendor,
			"purchase_date":        in.PurchaseDate,
			"warranty_expiry_date": in.WarrantyExpiryDate,
			"status":               in.Status,
			"assigned_to":          in.AssignedTo,
			"document_paths":       EncodeDocuments(kept),
			"updated_by":           actorID,
		}
		if in.Notes != nil {
			fields["notes"] = datatypes.JSON(in.Notes)
		}
		if statusChanged {
			fields["status_history"] = a.StatusHistory
			fields["status_changed_at"] = now
		}
		if assignmentChanged {
			fields["assignment_history"] = a.AssignmentHistory
		}
		if len(changes) > 0 {
			fields["modification_history"] = a.ModificationHistory
		}

		if err := tx.UpdateFields(a.ID, fields); err != nil {
			return err
		}

		a.Category = in.Category
		a.Brand = in.Brand
		a.Model = in.Model
		a.Serial = in.Serial
		a.Vendor = in.Vendor
		a.PurchaseDate = in.PurchaseDate
		a.WarrantyExpiryDate = in.WarrantyExpiryDate
		a.Status = in.Status
		a.AssignedTo = in.AssignedTo
		a.DocumentPaths = EncodeDocuments(kept)
		a.UpdatedBy = actorID
		if in.Notes != nil {
			a.Notes = datatypes.JSON(in.Notes)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// blob removal happens after commit so a rolled-back update never
	// loses files; a missing blob counts as already removed
	for _, d := range removed {
		if err := s.store.Delete(ctx, d.Path); err != nil {
			zap.S().Warnw("failed to delete document", "path", d.Path, "error", err)
		}
	}
	return a, nil
}

// Delete soft-deletes the asset. Encoders may register and edit equipment
// but never remove it; the same capability check gates the route.
func (s *Service) Delete(ctx context.Context, actorID uint, role models.UserRole, id uint) error {
	if !CanDelete(role) {
		return ErrForbidden
	}
	if _, err := s.repo.GetByID(id, false); err != nil {
		return err
	}
	return s.repo.SoftDelete(id)
}

// Restore clears the soft-delete marker. It works by numeric id and finds
// rows default queries no longer return.
func (s *Service) Restore(ctx context.Context, actorID uint, id uint) error {
	a, err := s.repo.GetByID(id, true)
	if err != nil {
		return err
	}
	return s.repo.Restore(a.ID)
}

// AddComment appends one comment entry and persists only comments_history
// and updated_by.
func (s *Service) AddComment(ctx context.Context, actorID uint, id uint, text string) (*models.Asset, error) {
	text = strings.TrimSpace(text)
	verr := newValidationError()
	if text == "" {
		verr.Fields["comment"] = "comment is required"
	} else if len(text) > maxCommentLen {
		verr.Fields["comment"] = fmt.Sprintf("comment must be at most %d characters", maxCommentLen)
	}
	if len(verr.Fields) > 0 {
		return nil, verr
	}

	// same locked read-append-write as Update, so two concurrent comments
	// both land in comments_history
	var a *models.Asset
	err := s.repo.Transact(func(tx Repository) error {
		var err error
		a, err = tx.GetByIDLocked(id)
		if err != nil {
			return err
		}
		RecordComment(a, text, s.actorName(actorID), s.now())
		return tx.UpdateFields(a.ID, map[string]any{
			"comments_history": a.CommentsHistory,
			"updated_by":       actorID,
		})
	})
	if err != nil {
		return nil, err
	}
	a.UpdatedBy = actorID
	return a, nil
}

// validate runs all field checks before any mutation happens. When an
// assignee is given the employee is looked up once and the snapshot is
// returned for the assignment history entry.
func (s *Service) validate(in AssetInput) (*EmployeeRef, error) {
	verr := newValidationError()

	if strings.TrimSpace(in.Category) == "" {
		verr.Fields["category"] = "category is required"
	}
	if !in.Status.Valid() {
		verr.Fields["status"] = "unknown status"
	}
	if in.PurchaseDate == nil {
		verr.Fields["purchase_date"] = "purchase date is required"
	}
	if in.Notes != nil && !json.Valid(in.Notes) {
		verr.Fields["notes"] = "notes must be valid JSON"
	}

	var emp *EmployeeRef
	if in.AssignedTo != nil {
		ref, err := s.employees.LookupByID(*in.AssignedTo)
		if errors.Is(err, ErrNotFound) {
			verr.Fields["assigned_to"] = "employee not found"
		} else if err != nil {
			return nil, err
		} else {
			emp = ref
		}
	}

	if len(verr.Fields) > 0 {
		return nil, verr
	}
	return emp, nil
}

func (s *Service) storeUploads(ctx context.Context, uploads []Upload) ([]DocumentRef, error) {
	var docs []DocumentRef
	for _, u := range uploads {
		key, err := s.store.Store(ctx, u.Data, documentsFolder, u.OriginalName)
		if err != nil {
			return nil, fmt.Errorf("storing document %q: %w", u.OriginalName, err)
		}
		docs = append(docs, DocumentRef{Path: key, OriginalName: u.OriginalName})
	}
	return docs, nil
}

func (s *Service) employeeNoResolver() EmployeeResolver {
	return func(id uint) (string, bool) {
		ref, err := s.employees.LookupByID(id)
		if err != nil || ref == nil {
			return "", false
		}
		return ref.EmployeeNo, true
	}
}

func (s *Service) actorName(id uint) string {
	if id == 0 {
		return systemDisplayName
	}
	name, err := s.users.DisplayName(id)
	if err != nil || name == "" {
		return fmt.Sprintf("user #%d", id)
	}
	return name
}

func uintPtrEqual(a, b *uint) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
