// Package permission holds the fixed role to permission catalog.
package permission

import (
	"strings"

	"dockpanel/internal/entity"
)

const (
	DashboardView      = "dashboard:view"
	ContainersView     = "containers:view"
	ContainersManage   = "containers:manage"
	ContainersExec     = "containers:exec"
	ImagesManage       = "images:manage"
	MetricsView        = "metrics:view"
	ProxyManage        = "proxy:manage"
	DomainsManage      = "domains:manage"
	CertificatesManage = "certificates:manage"
	AuditView          = "audit:view"
	UsersManage        = "users:manage"
	SettingsManage     = "settings:manage"
)

// all is ordered; catalog output preserves this order.
var all = []string{
	DashboardView,
	ContainersView,
	ContainersManage,
	ContainersExec,
	ImagesManage,
	MetricsView,
	ProxyManage,
	DomainsManage,
	CertificatesManage,
	AuditView,
	UsersManage,
	SettingsManage,
}

var byRole = map[string][]string{
	entity.RoleAdmin: all,
	entity.RoleOperator: {
		DashboardView,
		ContainersView,
		ContainersManage,
		ContainersExec,
		ImagesManage,
		MetricsView,
		ProxyManage,
		DomainsManage,
		CertificatesManage,
	},
	entity.RoleViewer: {
		DashboardView,
		ContainersView,
		MetricsView,
	},
}

// Roles lists the valid roles, most privileged first.
var Roles = []string{entity.RoleAdmin, entity.RoleOperator, entity.RoleViewer}

var valid = func() map[string]struct{} {
	m := make(map[string]struct{}, len(all))
	for _, p := range all {
		m[p] = struct{}{}
	}
	return m
}()

// All returns every known permission tag in catalog order.
func All() []string {
	return append([]string(nil), all...)
}

// ForRole returns the permissions seeded for role. Unknown roles yield an empty set.
func ForRole(role string) []string {
	perms, ok := byRole[strings.ToLower(strings.TrimSpace(role))]
	if !ok {
		return []string{}
	}
	return append([]string(nil), perms...)
}

// IsValid reports whether tag is part of the closed permission set.
func IsValid(tag string) bool {
	_, ok := valid[tag]
	return ok
}

// IsValidRole reports whether role is one of Roles.
func IsValidRole(role string) bool {
	_, ok := byRole[role]
	return ok
}

// NormalizeRole trims and lowercases role, returning "" when it is unknown.
func NormalizeRole(role string) string {
	r := strings.ToLower(strings.TrimSpace(role))
	if !IsValidRole(r) {
		return ""
	}
	return r
}

// Sanitize deduplicates tags and orders them like the catalog. The second return
// lists every tag that is not part of the catalog; callers reject the input when it is non-empty.
func Sanitize(tags []string) ([]string, []string) {
	wanted := make(map[string]struct{}, len(tags))
	var unknown []string
	for _, tag := range tags {
		t := strings.TrimSpace(tag)
		if !IsValid(t) {
			unknown = append(unknown, tag)
			continue
		}
		wanted[t] = struct{}{}
	}
	out := make([]string, 0, len(wanted))
	for _, p := range all {
		if _, ok := wanted[p]; ok {
			out = append(out, p)
		}
	}
	return out, unknown
}

// Catalog returns a copy of the role mapping.
func Catalog() map[string][]string {
	out := make(map[string][]string, len(byRole))
	for role := range byRole {
		out[role] = ForRole(role)
	}
	return out
}
