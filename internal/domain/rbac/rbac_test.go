package rbac

import (
	"testing"
)

func TestEffectiveRole(t *testing.T) {
	tests := []struct {
		name         string
		idpRole      string
		roleOverride *string
		want         string
	}{
		{
			name:    "admin из IdP, без override",
			idpRole: RoleAdmin,
			want:    RoleAdmin,
		},
		{
			name:    "viewer из IdP, без override",
			idpRole: RoleViewer,
			want:    RoleViewer,
		},
		{
			name:         "viewer из IdP, одобрение до editor — повышение",
			idpRole:      RoleViewer,
			roleOverride: strPtr(RoleEditor),
			want:         RoleEditor,
		},
		{
			name:         "editor из IdP, одобрение до publisher — повышение",
			idpRole:      RoleEditor,
			roleOverride: strPtr(RolePublisher),
			want:         RolePublisher,
		},
		{
			name:         "admin из IdP, override до viewer — игнорируется (нельзя понизить)",
			idpRole:      RoleAdmin,
			roleOverride: strPtr(RoleViewer),
			want:         RoleAdmin,
		},
		{
			name:         "publisher из IdP, override editor — игнорируется",
			idpRole:      RolePublisher,
			roleOverride: strPtr(RoleEditor),
			want:         RolePublisher,
		},
		{
			name:         "admin из IdP, override admin — без изменений",
			idpRole:      RoleAdmin,
			roleOverride: strPtr(RoleAdmin),
			want:         RoleAdmin,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := EffectiveRole(tt.idpRole, tt.roleOverride)
			if got != tt.want {
				t.Errorf("EffectiveRole(%q, %v) = %q, хотели %q",
					tt.idpRole, fmtPtr(tt.roleOverride), got, tt.want)
			}
		})
	}
}

func TestHighestRole(t *testing.T) {
	tests := []struct {
		name  string
		roles []string
		want  string
	}{
		{name: "пустой набор", roles: nil, want: ""},
		{name: "один admin", roles: []string{RoleAdmin}, want: RoleAdmin},
		{name: "один viewer", roles: []string{RoleViewer}, want: RoleViewer},
		{name: "admin + viewer", roles: []string{RoleAdmin, RoleViewer}, want: RoleAdmin},
		{name: "viewer + editor + publisher", roles: []string{RoleViewer, RoleEditor, RolePublisher}, want: RolePublisher},
		{name: "editor + admin", roles: []string{RoleEditor, RoleAdmin}, want: RoleAdmin},
		{name: "все viewer", roles: []string{RoleViewer, RoleViewer}, want: RoleViewer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HighestRole(tt.roles)
			if got != tt.want {
				t.Errorf("HighestRole(%v) = %q, хотели %q", tt.roles, got, tt.want)
			}
		})
	}
}

func TestMapGroupsToRole(t *testing.T) {
	mapping := GroupMapping{
		AdminGroups:     []string{"crea-admins"},
		PublisherGroups: []string{"crea-publishers"},
		EditorGroups:    []string{"crea-editors"},
		ViewerGroups:    []string{"crea-viewers"},
	}

	tests := []struct {
		name   string
		groups []string
		want   string
	}{
		{
			name:   "группа admins -> admin",
			groups: []string{"crea-admins"},
			want:   RoleAdmin,
		},
		{
			name:   "группа viewers -> viewer",
			groups: []string{"crea-viewers"},
			want:   RoleViewer,
		},
		{
			name:   "группа editors -> editor",
			groups: []string{"crea-editors"},
			want:   RoleEditor,
		},
		{
			name:   "группа publishers -> publisher",
			groups: []string{"crea-publishers"},
			want:   RolePublisher,
		},
		{
			name:   "editors + admins -> admin (max)",
			groups: []string{"crea-editors", "crea-admins"},
			want:   RoleAdmin,
		},
		{
			name:   "viewers + publishers -> publisher (max)",
			groups: []string{"crea-viewers", "crea-publishers"},
			want:   RolePublisher,
		},
		{
			name:   "нет совпадений -> пустая строка",
			groups: []string{"other-group"},
			want:   "",
		},
		{
			name:   "пустой список групп -> пустая строка",
			groups: nil,
			want:   "",
		},
		{
			name:   "несколько групп, одна совпадает",
			groups: []string{"some-group", "crea-viewers", "another-group"},
			want:   RoleViewer,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapGroupsToRole(tt.groups, mapping)
			if got != tt.want {
				t.Errorf("MapGroupsToRole(%v, ...) = %q, хотели %q", tt.groups, got, tt.want)
			}
		})
	}
}

func TestAtLeast(t *testing.T) {
	tests := []struct {
		role    string
		minimum string
		want    bool
	}{
		{RoleAdmin, RoleViewer, true},
		{RoleAdmin, RoleAdmin, true},
		{RolePublisher, RoleEditor, true},
		{RoleEditor, RolePublisher, false},
		{RoleViewer, RoleEditor, false},
		{"", RoleViewer, false},
		{"invalid", RoleViewer, false},
	}

	for _, tt := range tests {
		t.Run(tt.role+"_"+tt.minimum, func(t *testing.T) {
			got := AtLeast(tt.role, tt.minimum)
			if got != tt.want {
				t.Errorf("AtLeast(%q, %q) = %v, хотели %v", tt.role, tt.minimum, got, tt.want)
			}
		})
	}
}

func TestIsValidRole(t *testing.T) {
	tests := []struct {
		role string
		want bool
	}{
		{RoleAdmin, true},
		{RolePublisher, true},
		{RoleEditor, true},
		{RoleViewer, true},
		{"invalid", false},
		{"", false},
		{"superadmin", false},
	}

	for _, tt := range tests {
		t.Run(tt.role, func(t *testing.T) {
			got := IsValidRole(tt.role)
			if got != tt.want {
				t.Errorf("IsValidRole(%q) = %v, хотели %v", tt.role, got, tt.want)
			}
		})
	}
}

// strPtr — вспомогательная функция для создания указателя на строку.
func strPtr(s string) *string {
	return &s
}

// fmtPtr — форматирование указателя для вывода в тестах.
func fmtPtr(p *string) string {
	if p == nil {
		return "nil"
	}
	return `"` + *p + `"`
}
