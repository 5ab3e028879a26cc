package database

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"asset-register/internal/assets"
	"asset-register/internal/models"
)

// AssetRepository is the gorm implementation of assets.Repository.
type AssetRepository struct {
	db *gorm.DB
}

func NewAssetRepository(db *gorm.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

func (r *AssetRepository) GetByID(id uint, includeDeleted bool) (*models.Asset, error) {
	q := r.db
	if includeDeleted {
		q = q.Unscoped()
	}
	var a models.Asset
	if err := q.First(&a, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, assets.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

// GetByIDLocked reads the row with SELECT ... FOR UPDATE so history
// appends stay atomic with the read they are based on. Meaningful only
// inside Transact, where the lock lives until commit or rollback.
func (r *AssetRepository) GetByIDLocked(id uint) (*models.Asset, error) {
	var a models.Asset
	err := r.db.Clauses(clause.Locking{Strength: "UPDATE"}).First(&a, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, assets.ErrNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AssetRepository) ListAssetIDs() ([]string, error) {
	var ids []string
	// Unscoped: soft-deleted assets keep their identifiers forever
	err := r.db.Unscoped().Model(&models.Asset{}).Pluck("asset_id", &ids).Error
	return ids, err
}

func (r *AssetRepository) AssetIDExists(assetID string) (bool, error) {
	var count int64
	err := r.db.Unscoped().Model(&models.Asset{}).
		Where("asset_id = ?", assetID).
		Count(&count).Error
	return count > 0, err
}

func (r *AssetRepository) Create(a *models.Asset) error {
	if err := r.db.Create(a).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return assets.ErrDuplicateAssetID
		}
		return err
	}
	return nil
}

func (r *AssetRepository) UpdateFields(id uint, fields map[string]any) error {
	return r.db.Model(&models.Asset{}).Where("id = ?", id).Updates(fields).Error
}

func (r *AssetRepository) SoftDelete(id uint) error {
	return r.db.Delete(&models.Asset{}, id).Error
}

func (r *AssetRepository) Transact(fn func(tx assets.Repository) error) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		return fn(&AssetRepository{db: tx})
	})
}

func (r *AssetRepository) Restore(id uint) error {
	return r.db.Unscoped().Model(&models.Asset{}).
		Where("id = ?", id).
		Update("deleted_at", nil).Error
}

// EmployeeDirectory is the gorm implementation of assets.EmployeeDirectory.
type EmployeeDirectory struct {
	db *gorm.DB
}

func NewEmployeeDirectory(db *gorm.DB) *EmployeeDirectory {
	return &EmployeeDirectory{db: db}
}

func (d *EmployeeDirectory) LookupByID(id uint) (*assets.EmployeeRef, error) {
	var e models.Employee
	if err := d.db.First(&e, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, assets.ErrNotFound
		}
		return nil, err
	}
	return &assets.EmployeeRef{
		ID:         e.ID,
		EmployeeNo: e.EmployeeNo,
		FullName:   e.FullName,
	}, nil
}

// UserDirectory is the gorm implementation of assets.UserDirectory.
type UserDirectory struct {
	db *gorm.DB
}

func NewUserDirectory(db *gorm.DB) *UserDirectory {
	return &UserDirectory{db: db}
}

func (d *UserDirectory) DisplayName(id uint) (string, error) {
	var u models.User
	if err := d.db.First(&u, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", assets.ErrNotFound
		}
		return "", err
	}
	if u.DisplayName != "" {
		return u.DisplayName, nil
	}
	return u.Username, nil
}
