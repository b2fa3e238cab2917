package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolveRole(t *testing.T) {
	tests := []struct {
		name      string
		claims    Claims
		bootstrap string
		want      Role
	}{
		{name: "role claim wins", claims: Claims{Email: "t@test.cd", Role: RoleTeacher}, bootstrap: "t@test.cd", want: RoleTeacher},
		{name: "bootstrap grants admin", claims: Claims{Email: "admin@gmail.com"}, bootstrap: "admin@gmail.com", want: RoleAdmin},
		{name: "bootstrap is case-insensitive", claims: Claims{Email: "Admin@Gmail.com"}, bootstrap: "admin@gmail.com", want: RoleAdmin},
		{name: "other email stays roleless", claims: Claims{Email: "who@test.cd"}, bootstrap: "admin@gmail.com", want: ""},
		{name: "disabled when unset", claims: Claims{Email: "admin@gmail.com"}, bootstrap: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ResolveRole(tt.claims, tt.bootstrap))
		})
	}
}

func TestRoleValid(t *testing.T) {
	for _, r := range AllRoles {
		if !r.Valid() {
			t.Errorf("Valid() = false for %q", r)
		}
	}
	if Role("principal").Valid() {
		t.Error("Valid() = true for unknown role")
	}
}

func TestRoleDisplayName(t *testing.T) {
	assert.Equal(t, "Student User", RoleStudent.DisplayName())
	assert.Equal(t, "Admin User", RoleAdmin.DisplayName())
	assert.Equal(t, "User", Role("").DisplayName())
}
