package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"asset-register/internal/assets"
	"asset-register/internal/database"
	"asset-register/internal/middleware"
	"asset-register/internal/models"
	"asset-register/internal/storage"
)

// AssetHandler exposes the asset endpoints on top of the mutation service.
// Reads go straight to the DB; every mutation goes through the service so
// history and identifier invariants hold no matter which route fired.
type AssetHandler struct {
	svc   *assets.Service
	store storage.Storage
}

func NewAssetHandler(svc *assets.Service, store storage.Storage) *AssetHandler {
	return &AssetHandler{svc: svc, store: store}
}

type assetForm struct {
	Category           string          `form:"category" json:"category"`
	Brand              string          `form:"brand" json:"brand"`
	Model              string          `form:"model" json:"model"`
	Serial             string          `form:"serial" json:"serial"`
	Vendor             string          `form:"vendor" json:"vendor"`
	PurchaseDate       string          `form:"purchase_date" json:"purchase_date"`
	WarrantyExpiryDate string          `form:"warranty_expiry_date" json:"warranty_expiry_date"`
	Status             string          `form:"status" json:"status"`
	AssignedTo         *uint           `form:"assigned_to" json:"assigned_to"`
	Notes              json.RawMessage `json:"notes"`
	RemoveDocuments    []int           `form:"remove_documents" json:"remove_documents"`
}

// toInput parses the form into the validated field set. Date parse failures
// surface as field-level validation errors before anything is mutated.
func (f *assetForm) toInput() (assets.AssetInput, error) {
	fields := map[string]string{}

	purchase, err := parseDate(f.PurchaseDate)
	if err != nil {
		fields["purchase_date"] = "must be YYYY-MM-DD"
	}
	warranty, err := parseDate(f.WarrantyExpiryDate)
	if err != nil {
		fields["warranty_expiry_date"] = "must be YYYY-MM-DD"
	}
	if len(fields) > 0 {
		return assets.AssetInput{}, &assets.ValidationError{Fields: fields}
	}

	return assets.AssetInput{
		Category:           f.Category,
		Brand:              f.Brand,
		Model:              f.Model,
		Serial:             f.Serial,
		Vendor:             f.Vendor,
		PurchaseDate:       purchase,
		WarrantyExpiryDate: warranty,
		Status:             models.AssetStatus(f.Status),
		AssignedTo:         f.AssignedTo,
		Notes:              f.Notes,
	}, nil
}

func parseDate(s string) (*time.Time, error) {
	if s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// readUploads drains the "documents" part of a multipart request. Non-
// multipart requests simply carry no uploads.
func readUploads(c *gin.Context) ([]assets.Upload, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, nil
	}
	var uploads []assets.Upload
	for _, fh := range form.File["documents"] {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, assets.Upload{OriginalName: fh.Filename, Data: data})
	}
	return uploads, nil
}

func (h *AssetHandler) List(c *gin.Context) {
	q := database.DB.Model(&models.Asset{}).Preload("Assignee").Order("asset_id asc")

	if status := c.Query("status"); status != "" {
		q = q.Where("status = ?", status)
	}
	if category := c.Query("category"); category != "" {
		q = q.Where("category = ?", category)
	}
	if emp := c.Query("assigned_to"); emp != "" {
		q = q.Where("assigned_to = ?", emp)
	}
	if search := c.Query("q"); search != "" {
		like := "%" + search + "%"
		q = q.Where("asset_id ILIKE ? OR serial ILIKE ? OR brand ILIKE ? OR model ILIKE ?",
			like, like, like, like)
	}

	// admins can list soft-deleted rows for restore
	if c.Query("deleted") == "1" {
		user, _ := middleware.CurrentUser(c)
		if user.Role != models.RoleAdmin {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		q = q.Unscoped().Where("deleted_at IS NOT NULL")
	}

	var list []models.Asset
	if err := q.Find(&list).Error; err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, 0, len(list))
	for i := range list {
		out = append(out, h.summaryView(&list[i]))
	}
	c.JSON(http.StatusOK, gin.H{"assets": out})
}

func (h *AssetHandler) Show(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var a models.Asset
	if err := database.DB.Preload("Assignee").First(&a, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, h.detailView(c, &a))
}

func (h *AssetHandler) Create(c *gin.Context) {
	var form assetForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request"})
		return
	}
	in, err := form.toInput()
	if err != nil {
		respondError(c, err)
		return
	}
	uploads, err := readUploads(c)
	if err != nil {
		respondError(c, err)
		return
	}

	user, _ := middleware.CurrentUser(c)
	a, err := h.svc.Create(c.Request.Context(), user.ID, in, uploads)
	if err != nil {
		respondError(c, err)
		return
	}

	database.CreateAuditLog(user.ID, "asset", a.ID, "create", gin.H{"asset_id": a.AssetID})
	c.JSON(http.StatusCreated, h.detailView(c, a))
}

func (h *AssetHandler) Update(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var form assetForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request"})
		return
	}
	in, err := form.toInput()
	if err != nil {
		respondError(c, err)
		return
	}
	uploads, err := readUploads(c)
	if err != nil {
		respondError(c, err)
		return
	}

	user, _ := middleware.CurrentUser(c)
	a, err := h.svc.Update(c.Request.Context(), user.ID, id, in, uploads, form.RemoveDocuments)
	if err != nil {
		respondError(c, err)
		return
	}

	database.CreateAuditLog(user.ID, "asset", a.ID, "update", gin.H{"asset_id": a.AssetID})
	c.JSON(http.StatusOK, h.detailView(c, a))
}

func (h *AssetHandler) Delete(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)
	if err := h.svc.Delete(c.Request.Context(), user.ID, user.Role, id); err != nil {
		respondError(c, err)
		return
	}
	database.CreateAuditLog(user.ID, "asset", id, "delete", nil)
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

func (h *AssetHandler) Restore(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	user, _ := middleware.CurrentUser(c)
	if err := h.svc.Restore(c.Request.Context(), user.ID, id); err != nil {
		respondError(c, err)
		return
	}
	database.CreateAuditLog(user.ID, "asset", id, "restore", nil)
	c.JSON(http.StatusOK, gin.H{"restored": true})
}

type commentForm struct {
	Comment string `form:"comment" json:"comment"`
}

func (h *AssetHandler) AddComment(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var form commentForm
	if err := c.ShouldBind(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "malformed request"})
		return
	}

	user, _ := middleware.CurrentUser(c)
	a, err := h.svc.AddComment(c.Request.Context(), user.ID, id, form.Comment)
	if err != nil {
		respondError(c, err)
		return
	}

	database.CreateAuditLog(user.ID, "asset", a.ID, "comment", nil)
	c.JSON(http.StatusOK, gin.H{
		"asset_id": a.AssetID,
		"comments": assets.DecodeCommentsHistory(a.CommentsHistory),
	})
}

// History returns the four per-asset logs, decoded tolerantly so rows that
// predate the current storage format still render.
func (h *AssetHandler) History(c *gin.Context) {
	id, ok := paramID(c)
	if !ok {
		return
	}
	var a models.Asset
	if err := database.DB.Unscoped().First(&a, id).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"asset_id":             a.AssetID,
		"status_history":       assets.DecodeStatusHistory(a.StatusHistory),
		"assignment_history":   assets.DecodeAssignmentHistory(a.AssignmentHistory),
		"comments_history":     assets.DecodeCommentsHistory(a.CommentsHistory),
		"modification_history": assets.DecodeModificationHistory(a.ModificationHistory),
	})
}

func (h *AssetHandler) summaryView(a *models.Asset) gin.H {
	view := gin.H{
		"id":                a.ID,
		"asset_id":          a.AssetID,
		"category":          a.Category,
		"brand":             a.Brand,
		"model":             a.Model,
		"serial":            a.Serial,
		"status":            a.Status,
		"status_changed_at": a.StatusChangedAt,
		"assigned_to":       a.AssignedTo,
	}
	if a.Assignee != nil {
		view["assignee"] = gin.H{
			"employee_no": a.Assignee.EmployeeNo,
			"full_name":   a.Assignee.FullName,
		}
	}
	if a.DeletedAt.Valid {
		view["deleted_at"] = a.DeletedAt.Time
	}
	return view
}

func (h *AssetHandler) detailView(c *gin.Context, a *models.Asset) gin.H {
	docs := assets.DecodeDocuments(a.DocumentPaths)
	docViews := make([]gin.H, 0, len(docs))
	for _, d := range docs {
		dv := gin.H{"path": d.Path, "original_name": d.OriginalName}
		if url, err := h.store.URLFor(c.Request.Context(), d.Path); err == nil {
			dv["url"] = url
		} else {
			zap.S().Warnw("failed to build document URL", "path", d.Path, "error", err)
		}
		docViews = append(docViews, dv)
	}

	view := h.summaryView(a)
	view["vendor"] = a.Vendor
	view["purchase_date"] = a.PurchaseDate
	view["warranty_expiry_date"] = a.WarrantyExpiryDate
	view["notes"] = a.Notes
	view["documents"] = docViews
	view["created_by"] = a.CreatedBy
	view["updated_by"] = a.UpdatedBy
	view["created_at"] = a.CreatedAt
	view["updated_at"] = a.UpdatedAt
	return view
}
