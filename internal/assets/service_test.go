package assets

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"asset-register/internal/models"
)

// in-memory fakes for the collaborator interfaces

type fakeRepo struct {
	assets     map[uint]*models.Asset
	deleted    map[uint]bool
	taken      map[string]bool
	nextPK     uint
	lastFields map[string]any

	// simulate a concurrent create winning the generated id N times
	dupConflicts int

	inTx      bool
	wroteInTx bool
	// runs when a locked read is taken, before it returns; lets a test
	// stand in for a competing writer that committed first
	onLock func()
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		assets:  map[uint]*models.Asset{},
		deleted: map[uint]bool{},
		taken:   map[string]bool{},
	}
}

func (r *fakeRepo) GetByID(id uint, includeDeleted bool) (*models.Asset, error) {
	a, ok := r.assets[id]
	if !ok {
		return nil, ErrNotFound
	}
	if r.deleted[id] && !includeDeleted {
		return nil, ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeRepo) GetByIDLocked(id uint) (*models.Asset, error) {
	if r.onLock != nil {
		r.onLock()
	}
	return r.GetByID(id, false)
}

func (r *fakeRepo) Transact(fn func(tx Repository) error) error {
	r.inTx = true
	defer func() { r.inTx = false }()
	return fn(r)
}

func (r *fakeRepo) ListAssetIDs() ([]string, error) {
	var ids []string
	for id := range r.taken {
		ids = append(ids, id)
	}
	return ids, nil
}

func (r *fakeRepo) AssetIDExists(assetID string) (bool, error) {
	return r.taken[assetID], nil
}

func (r *fakeRepo) Create(a *models.Asset) error {
	if r.dupConflicts > 0 {
		r.dupConflicts--
		r.taken[a.AssetID] = true
		return ErrDuplicateAssetID
	}
	r.nextPK++
	a.ID = r.nextPK
	cp := *a
	r.assets[a.ID] = &cp
	r.taken[a.AssetID] = true
	return nil
}

func (r *fakeRepo) UpdateFields(id uint, fields map[string]any) error {
	a, ok := r.assets[id]
	if !ok {
		return ErrNotFound
	}
	r.lastFields = fields
	r.wroteInTx = r.inTx
	if v, ok := fields["status"]; ok {
		a.Status = v.(models.AssetStatus)
	}
	if v, ok := fields["status_history"]; ok {
		a.StatusHistory = v.(datatypes.JSON)
	}
	if v, ok := fields["assignment_history"]; ok {
		a.AssignmentHistory = v.(datatypes.JSON)
	}
	if v, ok := fields["comments_history"]; ok {
		a.CommentsHistory = v.(datatypes.JSON)
	}
	if v, ok := fields["modification_history"]; ok {
		a.ModificationHistory = v.(datatypes.JSON)
	}
	return nil
}

func (r *fakeRepo) SoftDelete(id uint) error {
	r.deleted[id] = true
	return nil
}

func (r *fakeRepo) Restore(id uint) error {
	delete(r.deleted, id)
	return nil
}

type fakeEmployees map[uint]EmployeeRef

func (f fakeEmployees) LookupByID(id uint) (*EmployeeRef, error) {
	if ref, ok := f[id]; ok {
		return &ref, nil
	}
	return nil, ErrNotFound
}

type fakeUsers map[uint]string

func (f fakeUsers) DisplayName(id uint) (string, error) {
	if name, ok := f[id]; ok {
		return name, nil
	}
	return "", ErrNotFound
}

type fakeStore struct {
	stored  map[string][]byte
	deleted []string
	n       int
}

func newFakeStore() *fakeStore {
	return &fakeStore{stored: map[string][]byte{}}
}

func (s *fakeStore) Store(_ context.Context, data []byte, folder, originalName string) (string, error) {
	s.n++
	key := fmt.Sprintf("%s/%d-%s", folder, s.n, originalName)
	s.stored[key] = data
	return key, nil
}

func (s *fakeStore) Exists(_ context.Context, path string) (bool, error) {
	_, ok := s.stored[path]
	return ok, nil
}

func (s *fakeStore) Delete(_ context.Context, path string) error {
	delete(s.stored, path)
	s.deleted = append(s.deleted, path)
	return nil
}

func (s *fakeStore) URLFor(_ context.Context, path string) (string, error) {
	return "/files/" + path, nil
}

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (*Service, *fakeRepo, *fakeStore) {
	t.Helper()
	repo := newFakeRepo()
	store := newFakeStore()
	svc := NewService(repo,
		fakeEmployees{5: {ID: 5, EmployeeNo: "EMP-0005", FullName: "Ana Reyes"}},
		fakeUsers{1: "Admin One", 2: "Encoder Two"},
		store,
	)
	svc.now = func() time.Time { return testNow }
	return svc, repo, store
}

func spareInput() AssetInput {
	return AssetInput{
		Category:     "Laptop",
		Brand:        "Lenovo",
		Model:        "T14",
		Serial:       "SN-100",
		Vendor:       "TechSupply Inc",
		PurchaseDate: datePtr(2023, 5, 10),
		Status:       models.StatusSpare,
	}
}

func TestCreate_SpareWithoutAssignee(t *testing.T) {
	svc, repo, _ := newTestService(t)

	a, err := svc.Create(context.Background(), 1, spareInput(), nil)
	require.NoError(t, err)
	require.Equal(t, "A#00001", a.AssetID)

	statuses := DecodeStatusHistory(a.StatusHistory)
	require.Len(t, statuses, 1)
	require.Equal(t, "Spare", statuses[0].Status)
	require.Equal(t, uint(1), statuses[0].ChangedBy)
	require.True(t, a.StatusChangedAt.Equal(testNow))

	require.Empty(t, DecodeAssignmentHistory(a.AssignmentHistory))
	require.Len(t, repo.assets, 1)
}

func TestCreate_WithAssigneeAndDocuments(t *testing.T) {
	svc, _, store := newTestService(t)

	in := spareInput()
	in.Status = models.StatusInUse
	in.AssignedTo = uintPtr(5)
	uploads := []Upload{{OriginalName: "invoice.pdf", Data: []byte("pdf-bytes")}}

	a, err := svc.Create(context.Background(), 1, in, uploads)
	require.NoError(t, err)

	assignments := DecodeAssignmentHistory(a.AssignmentHistory)
	require.Len(t, assignments, 1)
	require.Equal(t, "EMP-0005", *assignments[0].EmployeeNo)
	require.Equal(t, "Ana Reyes", *assignments[0].EmployeeName)
	require.Equal(t, "In-use", assignments[0].Status)
	require.Equal(t, "Admin One", assignments[0].AssignedBy)

	docs := DecodeDocuments(a.DocumentPaths)
	require.Len(t, docs, 1)
	require.Equal(t, "invoice.pdf", docs[0].OriginalName)
	require.Len(t, store.stored, 1)
}

func TestCreate_ValidationAbortsBeforeAnyMutation(t *testing.T) {
	svc, repo, store := newTestService(t)

	in := spareInput()
	in.Category = ""
	in.Status = "Broken"
	in.AssignedTo = uintPtr(404)

	_, err := svc.Create(context.Background(), 1, in,
		[]Upload{{OriginalName: "x.pdf", Data: []byte("x")}})

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "category")
	require.Contains(t, verr.Fields, "status")
	require.Contains(t, verr.Fields, "assigned_to")

	require.Empty(t, repo.assets)
	require.Empty(t, store.stored)
}

func TestCreate_RetriesAfterIDConflict(t *testing.T) {
	svc, repo, _ := newTestService(t)
	repo.taken["A#00009"] = true
	repo.dupConflicts = 1

	// both sides computed A#00010; the insert conflict forces a regenerate
	a, err := svc.Create(context.Background(), 1, spareInput(), nil)
	require.NoError(t, err)
	require.Equal(t, "A#00011", a.AssetID)
}

func seedAsset(repo *fakeRepo) *models.Asset {
	a := &models.Asset{
		ID:           1,
		AssetID:      "A#00001",
		Category:     "Laptop",
		Brand:        "Lenovo",
		Model:        "T14",
		Serial:       "SN-100",
		Vendor:       "TechSupply Inc",
		PurchaseDate: datePtr(2023, 5, 10),
		Status:       models.StatusSpare,
	}
	repo.assets[1] = a
	repo.taken["A#00001"] = true
	repo.nextPK = 1
	return a
}

func TestUpdate_StatusChangeAndAssignment(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedAsset(repo)

	in := spareInput()
	in.Status = models.StatusInUse
	in.AssignedTo = uintPtr(5)

	a, err := svc.Update(context.Background(), 2, 1, in, nil, nil)
	require.NoError(t, err)

	require.Len(t, DecodeStatusHistory(a.StatusHistory), 1)
	require.Len(t, DecodeAssignmentHistory(a.AssignmentHistory), 1)

	mods := DecodeModificationHistory(a.ModificationHistory)
	require.Len(t, mods, 1)
	require.Equal(t, "Encoder Two", mods[0].ModifiedBy)
	require.Len(t, mods[0].Changes, 2)
	require.Equal(t, "status", mods[0].Changes[0].Field)
	require.Equal(t, "assigned_to", mods[0].Changes[1].Field)
	require.Equal(t, "EMP-0005", mods[0].Changes[1].NewValue)

	// the single write carries only the history columns that changed
	require.Contains(t, repo.lastFields, "status_history")
	require.Contains(t, repo.lastFields, "status_changed_at")
	require.Contains(t, repo.lastFields, "assignment_history")
	require.Contains(t, repo.lastFields, "modification_history")
}

func TestUpdate_NoChangesAppendsNothing(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedAsset(repo)

	a, err := svc.Update(context.Background(), 2, 1, spareInput(), nil, nil)
	require.NoError(t, err)

	require.Empty(t, DecodeModificationHistory(a.ModificationHistory))
	require.NotContains(t, repo.lastFields, "status_history")
	require.NotContains(t, repo.lastFields, "status_changed_at")
	require.NotContains(t, repo.lastFields, "assignment_history")
	require.NotContains(t, repo.lastFields, "modification_history")
	require.Contains(t, repo.lastFields, "updated_by")
}

func TestUpdate_RemovesDocumentsAndTracksCount(t *testing.T) {
	svc, repo, store := newTestService(t)
	a := seedAsset(repo)
	a.DocumentPaths = EncodeDocuments([]DocumentRef{
		{Path: "asset-docs/a.pdf", OriginalName: "a.pdf"},
		{Path: "asset-docs/b.pdf", OriginalName: "b.pdf"},
		{Path: "asset-docs/c.pdf", OriginalName: "c.pdf"},
	})

	updated, err := svc.Update(context.Background(), 2, 1, spareInput(), nil, []int{2, 7})
	require.NoError(t, err)

	docs := DecodeDocuments(updated.DocumentPaths)
	require.Len(t, docs, 2)
	require.Equal(t, "a.pdf", docs[0].OriginalName)
	require.Equal(t, "b.pdf", docs[1].OriginalName)

	// index 7 was out of range and silently skipped; index 2 was deleted
	require.Equal(t, []string{"asset-docs/c.pdf"}, store.deleted)

	mods := DecodeModificationHistory(updated.ModificationHistory)
	require.Len(t, mods, 1)
	require.Len(t, mods[0].Changes, 1)
	require.Equal(t, "documents", mods[0].Changes[0].Field)
	require.Equal(t, "3 document(s)", mods[0].Changes[0].OldValue)
	require.Equal(t, "2 document(s)", mods[0].Changes[0].NewValue)
}

func TestUpdate_WritesInsideTransaction(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedAsset(repo)

	in := spareInput()
	in.Status = models.StatusInUse
	_, err := svc.Update(context.Background(), 2, 1, in, nil, nil)
	require.NoError(t, err)
	require.True(t, repo.wroteInTx)
}

func TestUpdate_CompetingStatusChangeIsNotLost(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedAsset(repo)

	// another request commits its own status change between this
	// request's start and its locked read; the lock makes this request
	// append on top of that commit instead of a stale snapshot
	var competed bool
	repo.onLock = func() {
		if competed {
			return
		}
		competed = true
		in := spareInput()
		in.Status = models.StatusUnderMaintenance
		_, err := svc.Update(context.Background(), 1, 1, in, nil, nil)
		require.NoError(t, err)
	}

	in := spareInput()
	in.Status = models.StatusInUse
	a, err := svc.Update(context.Background(), 2, 1, in, nil, nil)
	require.NoError(t, err)

	statuses := DecodeStatusHistory(a.StatusHistory)
	require.Len(t, statuses, 2)
	require.Equal(t, "Under Maintenance", statuses[0].Status)
	require.Equal(t, "In-use", statuses[1].Status)
	require.Equal(t, uint(2), statuses[1].ChangedBy)
}

func TestUpdate_NotFound(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Update(context.Background(), 1, 42, spareInput(), nil, nil)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestDelete_EncoderForbidden(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedAsset(repo)

	err := svc.Delete(context.Background(), 2, models.RoleEncoder, 1)
	require.ErrorIs(t, err, ErrForbidden)
	require.False(t, repo.deleted[1])
}

func TestDeleteAndRestore(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedAsset(repo)

	require.NoError(t, svc.Delete(context.Background(), 1, models.RoleAdmin, 1))
	require.True(t, repo.deleted[1])

	// soft-deleted rows stay reachable by numeric id for restore
	require.NoError(t, svc.Restore(context.Background(), 1, 1))
	require.False(t, repo.deleted[1])

	require.ErrorIs(t, svc.Restore(context.Background(), 1, 42), ErrNotFound)
}

func TestAddComment_PersistsOnlyCommentsAndActor(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedAsset(repo)

	a, err := svc.AddComment(context.Background(), 1, 1, "  battery swapped  ")
	require.NoError(t, err)

	comments := DecodeCommentsHistory(a.CommentsHistory)
	require.Len(t, comments, 1)
	require.Equal(t, "battery swapped", comments[0].Comment)
	require.Equal(t, "Admin One", comments[0].AddedBy)
	require.Equal(t, "2024-06-01", comments[0].Date)

	require.Len(t, repo.lastFields, 2)
	require.Contains(t, repo.lastFields, "comments_history")
	require.Contains(t, repo.lastFields, "updated_by")
}

func TestAddComment_CompetingCommentIsNotLost(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedAsset(repo)

	var competed bool
	repo.onLock = func() {
		if competed {
			return
		}
		competed = true
		_, err := svc.AddComment(context.Background(), 2, 1, "replaced keyboard")
		require.NoError(t, err)
	}

	a, err := svc.AddComment(context.Background(), 1, 1, "battery swapped")
	require.NoError(t, err)

	comments := DecodeCommentsHistory(a.CommentsHistory)
	require.Len(t, comments, 2)
	require.Equal(t, "replaced keyboard", comments[0].Comment)
	require.Equal(t, "battery swapped", comments[1].Comment)
}

func TestAddComment_LengthBound(t *testing.T) {
	svc, repo, _ := newTestService(t)
	seedAsset(repo)

	_, err := svc.AddComment(context.Background(), 1, 1, strings.Repeat("x", 1001))
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	require.Contains(t, verr.Fields, "comment")
	require.Nil(t, repo.lastFields)
}

func TestActorName_FallsBackToSystem(t *testing.T) {
	svc, _, _ := newTestService(t)

	require.Equal(t, "System", svc.actorName(0))
	require.Equal(t, "Admin One", svc.actorName(1))
	require.Equal(t, "user #9", svc.actorName(9))
}
