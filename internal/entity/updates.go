package entity

// IdentityUpdates 用户更新字段
type IdentityUpdates struct {
	Name         *string
	Role         *string
	PasswordHash *string
	Permissions  *StringArray
	IsSuperAdmin *bool
}

// ToMap 转换为 GORM 更新 map（内部使用）
func (u IdentityUpdates) ToMap() map[string]interface{} {
	updates := make(map[string]interface{})
	if u.Name != nil {
		updates["name"] = *u.Name
	}
	if u.Role != nil {
		updates["role"] = *u.Role
	}
	if u.PasswordHash != nil {
		updates["password_hash"] = *u.PasswordHash
	}
	if u.Permissions != nil {
		updates["permissions"] = *u.Permissions
	}
	if u.IsSuperAdmin != nil {
		updates["is_super_admin"] = *u.IsSuperAdmin
	}
	return updates
}

// IsEmpty 检查是否没有任何更新字段
func (u IdentityUpdates) IsEmpty() bool {
	return len(u.ToMap()) == 0
}
