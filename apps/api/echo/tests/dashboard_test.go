package tests

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	. "github.com/smartflows/shule/apps/api/echo"
	"github.com/smartflows/shule/core/admission"
	"github.com/smartflows/shule/core/auth"
	emailsvc "github.com/smartflows/shule/services/email"
	identitysvc "github.com/smartflows/shule/services/identity"
	testutil "github.com/smartflows/shule/tests"
)

func Test_dashboards(t *testing.T) {
	studentToken := getToken(t, auth.Claims{UID: "stud1", Email: "s1@test.com", Role: auth.RoleStudent})
	teacherToken := getToken(t, auth.Claims{UID: "teach1", Email: "t1@test.com", Role: auth.RoleTeacher})
	adminToken := getToken(t, auth.Claims{UID: "adm1", Email: "a1@test.com", Role: auth.RoleAdmin})
	bootstrapToken := getToken(t, auth.Claims{UID: "man1", Email: "admin@gmail.com"}) // no role claim
	noRoleToken := getToken(t, auth.Claims{UID: "nob1", Email: "n1@test.com"})

	studentData := marchallObj(t, DashboardResponse{
		Message: "Student dashboard data",
		User:    DashboardUser{Email: "s1@test.com", UID: "stud1"},
		Stats:   echo.Map{"courses": 5, "avgGrade": "A-", "attendance": "95%", "assignments": 3},
	})
	teacherData := marchallObj(t, DashboardResponse{
		Message: "Teacher dashboard data",
		User:    DashboardUser{Email: "t1@test.com", UID: "teach1"},
		Stats:   echo.Map{"classes": 6, "students": 120, "pendingGrades": 15, "upcoming": 2},
	})
	adminData := marchallObj(t, DashboardResponse{
		Message: "Admin dashboard data",
		User:    DashboardUser{Email: "a1@test.com", UID: "adm1"},
		Stats:   echo.Map{"totalStudents": 1250, "activeTeachers": 45, "pendingAdmissions": 23, "alerts": 2},
	})
	bootstrapData := marchallObj(t, DashboardResponse{
		Message: "Admin dashboard data",
		User:    DashboardUser{Email: "admin@gmail.com", UID: "man1"},
		Stats:   echo.Map{"totalStudents": 1250, "activeTeachers": 45, "pendingAdmissions": 23, "alerts": 2},
	})

	tests := []httpTest{
		{name: "student: no token", method: http.MethodGet, path: "/api/student/dashboard",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)},
		{name: "student: invalid token", method: http.MethodGet, path: "/api/student/dashboard", token: "not-a-token",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errInvalidToken)},
		{name: "student: wrong role", method: http.MethodGet, path: "/api/student/dashboard", token: teacherToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "Student access required"})},
		{name: "student: no role claim", method: http.MethodGet, path: "/api/student/dashboard", token: noRoleToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "Student access required"})},
		{name: "student: ok", method: http.MethodGet, path: "/api/student/dashboard", token: studentToken,
			wantCode: http.StatusOK, wantData: studentData},
		{name: "teacher: wrong role", method: http.MethodGet, path: "/api/teacher/dashboard", token: studentToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "Teacher access required"})},
		{name: "teacher: ok", method: http.MethodGet, path: "/api/teacher/dashboard", token: teacherToken,
			wantCode: http.StatusOK, wantData: teacherData},
		{name: "admin: wrong role", method: http.MethodGet, path: "/api/admin/dashboard", token: studentToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "Admin access required"})},
		{name: "admin: ok", method: http.MethodGet, path: "/api/admin/dashboard", token: adminToken,
			wantCode: http.StatusOK, wantData: adminData},
		{name: "admin: bootstrap email fallback", method: http.MethodGet, path: "/api/admin/dashboard", token: bootstrapToken,
			wantCode: http.StatusOK, wantData: bootstrapData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_createUser(t *testing.T) {
	adminToken := getToken(t, auth.Claims{UID: "adm1", Email: "a1@test.com", Role: auth.RoleAdmin})
	studentToken := getToken(t, auth.Claims{UID: "stud1", Email: "s1@test.com", Role: auth.RoleStudent})

	t.Run("no token", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/admin/create-user")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
	})

	t.Run("wrong role", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodPost, "/api/admin/create-user", studentToken)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "Admin access required"}),
		}, rec)
	})

	t.Run("invalid input", func(t *testing.T) {
		body := marchallObj(t, map[string]string{"email": "nope", "password": "123", "role": "boss"})
		req, rec := newAuthRequest(http.MethodPost, "/api/admin/create-user", adminToken, body)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var fldErrs map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fldErrs))
		assert.Contains(t, fldErrs, "email")
		assert.Contains(t, fldErrs, "password")
		assert.Contains(t, fldErrs, "role")
	})

	t.Run("ok", func(t *testing.T) {
		body := marchallObj(t, auth.NewUser{Email: "new.teacher@test.com", Password: "qwertyuiop", Role: auth.RoleTeacher})
		req, rec := newAuthRequest(http.MethodPost, "/api/admin/create-user", adminToken, body)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp CreateUserResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.True(t, resp.Success)
		assert.NotEmpty(t, resp.UID)
		assert.Equal(t, "User created successfully", resp.Message)

		// role claim travels with the minted token
		token, err := idp.CustomToken(context.Background(), resp.UID)
		require.NoError(t, err)
		claims, err := idp.VerifyToken(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, auth.RoleTeacher, claims.Role)
	})

	t.Run("duplicate email", func(t *testing.T) {
		body := marchallObj(t, auth.NewUser{Email: "new.teacher@test.com", Password: "qwertyuiop", Role: auth.RoleTeacher})
		req, rec := newAuthRequest(http.MethodPost, "/api/admin/create-user", adminToken, body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "email already exists"}),
		}, rec)
	})
}

func Test_setAdminRole(t *testing.T) {
	uid, err := idp.CreateUser(context.Background(), "manual@test.com", "qwertyuiop", auth.RoleStudent)
	require.NoError(t, err)

	t.Run("no secret", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/admin/set-admin-role")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "Wrong secret"}),
		}, rec)
	})

	t.Run("wrong secret", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/admin/set-admin-role")
		req.Header.Set("x-secret", "nope")
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "Wrong secret"}),
		}, rec)
	})

	t.Run("unknown uid", func(t *testing.T) {
		body := marchallObj(t, SetAdminRoleRequest{UID: "nope", Email: "manual@test.com"})
		req, rec := newRequest(http.MethodPost, "/api/admin/set-admin-role", body)
		req.Header.Set("x-secret", conf.SecurityCode)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, httpErr{Error: "user not found"}),
		}, rec)
	})

	t.Run("ok", func(t *testing.T) {
		body := marchallObj(t, SetAdminRoleRequest{UID: uid, Email: "manual@test.com"})
		req, rec := newRequest(http.MethodPost, "/api/admin/set-admin-role", body)
		req.Header.Set("x-secret", conf.SecurityCode)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusOK,
			wantData: marchallObj(t, SuccessResponse{Success: true, Message: "Admin role set for manual@test.com"}),
		}, rec)

		token, err := idp.CustomToken(context.Background(), uid)
		require.NoError(t, err)
		claims, err := idp.VerifyToken(context.Background(), token)
		require.NoError(t, err)
		assert.Equal(t, auth.RoleAdmin, claims.Role)
	})
}

func Test_refreshToken(t *testing.T) {
	t.Run("invalid token", func(t *testing.T) {
		body := marchallObj(t, RefreshTokenRequest{IDToken: "junk"})
		req, rec := newRequest(http.MethodPost, "/api/auth/refresh-token", body)
		app.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusUnauthorized,
			wantData: marchallObj(t, errInvalidToken),
		}, rec)
	})

	t.Run("missing token", func(t *testing.T) {
		req, rec := newRequest(http.MethodPost, "/api/auth/refresh-token", []byte("{}"))
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var fldErrs map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fldErrs))
		assert.Contains(t, fldErrs, "idToken")
	})

	t.Run("ok", func(t *testing.T) {
		uid, err := idp.CreateUser(context.Background(), "refresh@test.com", "qwertyuiop", auth.RoleStudent)
		require.NoError(t, err)
		idToken, err := idp.CustomToken(context.Background(), uid)
		require.NoError(t, err)

		body := marchallObj(t, RefreshTokenRequest{IDToken: idToken})
		req, rec := newRequest(http.MethodPost, "/api/auth/refresh-token", body)
		app.ServeHTTP(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)
		var resp TokenResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
		assert.NotEmpty(t, resp.Token)

		claims, err := idp.VerifyToken(context.Background(), resp.Token)
		require.NoError(t, err)
		assert.Equal(t, uid, claims.UID)
	})
}

// The shared-secret bootstrap and the admin email fallback are escape
// hatches: a deployment that clears their config must end up with them
// switched off, not wide open.
func Test_safeguardsOffWhenUnconfigured(t *testing.T) {
	bareConf := testutil.NewConfig()
	bareConf.SecurityCode = ""
	bareConf.BootstrapAdminEmail = ""

	validate, translator := testutil.NewValidator()
	logger := testutil.NopLogger{}
	bareIdp := identitysvc.NewDevClient(bareConf)
	bareApp := NewServer(
		ServerDeps{
			Conf:         bareConf,
			Logger:       logger,
			Verifier:     bareIdp,
			Directory:    bareIdp,
			Extractor:    &stubExtractor{},
			AdmissionSvc: admission.NewService(&stubExtractor{}, &stubSubmitter{}, emailsvc.NewConsoleServiceMock(bareConf), logger, bareConf),
			Validate:     validate,
			Translator:   translator,
		},
	)

	t.Run("empty security code disables set-admin-role", func(t *testing.T) {
		body := marchallObj(t, SetAdminRoleRequest{UID: "u1", Email: "u1@test.com"})
		for _, secret := range []string{"", "test-security-code"} {
			req, rec := newRequest(http.MethodPost, "/api/admin/set-admin-role", body)
			if secret != "" {
				req.Header.Set("x-secret", secret)
			}
			bareApp.ServeHTTP(rec, req)
			checkCodeAndData(t, httpTest{
				wantCode: http.StatusForbidden,
				wantData: marchallObj(t, httpErr{Error: "Wrong secret"}),
			}, rec)
		}
	})

	t.Run("empty bootstrap email grants no admin fallback", func(t *testing.T) {
		token, err := bareIdp.GenerateToken(auth.Claims{UID: "man1", Email: "admin@gmail.com"}) // no role claim
		require.NoError(t, err)

		req, rec := newAuthRequest(http.MethodGet, "/api/admin/dashboard", token)
		bareApp.ServeHTTP(rec, req)
		checkCodeAndData(t, httpTest{
			wantCode: http.StatusForbidden,
			wantData: marchallObj(t, httpErr{Error: "Admin access required"}),
		}, rec)
	})
}
