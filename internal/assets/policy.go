package assets

import "asset-register/internal/models"

// Capability checks shared by the service and the HTTP boundary, so role
// branching lives in one place instead of being scattered per handler.

// CanManage reports whether the role may create or edit assets.
func CanManage(role models.UserRole) bool {
	return role == models.RoleAdmin || role == models.RoleEncoder
}

// CanDelete reports whether the role may soft-delete or restore assets.
// Encoders can register and edit equipment but never remove it.
func CanDelete(role models.UserRole) bool {
	return role == models.RoleAdmin
}

// CanComment reports whether the role may add comments to an asset.
func CanComment(role models.UserRole) bool {
	return role == models.RoleAdmin || role == models.RoleEncoder || role == models.RoleUser
}
