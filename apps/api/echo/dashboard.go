package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/smartflows/shule/core"
	"github.com/smartflows/shule/core/auth"
)

type dashboardApi struct {
	verifier   auth.Verifier
	directory  auth.Directory
	validate   *validator.Validate
	translator ut.Translator
	logger     core.Logger
}

func registerDashboardAPI(g *echo.Group, authed echo.MiddlewareFunc, deps ServerDeps) {
	api := dashboardApi{
		verifier:   deps.Verifier,
		directory:  deps.Directory,
		validate:   deps.Validate,
		translator: deps.Translator,
		logger:     deps.Logger,
	}

	g.GET("/student/dashboard", api.studentDashboard, authed, roleMiddleware(auth.RoleStudent))
	g.GET("/teacher/dashboard", api.teacherDashboard, authed, roleMiddleware(auth.RoleTeacher))

	ag := g.Group("/admin")
	ag.GET("/dashboard", api.adminDashboard, authed, roleMiddleware(auth.RoleAdmin))
	ag.POST("/create-user", api.createUser, authed, roleMiddleware(auth.RoleAdmin))
	ag.POST("/set-admin-role", api.setAdminRole, secretMiddleware(deps.Conf))

	g.POST("/auth/refresh-token", api.refreshToken)
}

// Handlers

func (api *dashboardApi) studentDashboard(ctx echo.Context) error {
	return api.dashboard(ctx, "Student dashboard data", echo.Map{
		"courses":     5,
		"avgGrade":    "A-",
		"attendance":  "95%",
		"assignments": 3,
	})
}

func (api *dashboardApi) teacherDashboard(ctx echo.Context) error {
	return api.dashboard(ctx, "Teacher dashboard data", echo.Map{
		"classes":       6,
		"students":      120,
		"pendingGrades": 15,
		"upcoming":      2,
	})
}

func (api *dashboardApi) adminDashboard(ctx echo.Context) error {
	return api.dashboard(ctx, "Admin dashboard data", echo.Map{
		"totalStudents":     1250,
		"activeTeachers":    45,
		"pendingAdmissions": 23,
		"alerts":            2,
	})
}

// dashboard stats are static until grading/attendance services land.
func (api *dashboardApi) dashboard(ctx echo.Context, message string, stats echo.Map) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context claims")
	}
	return ctx.JSON(http.StatusOK, DashboardResponse{
		Message: message,
		User:    DashboardUser{Email: claims.Email, UID: claims.UID},
		Stats:   stats,
	})
}

func (api *dashboardApi) createUser(ctx echo.Context) error {
	var data auth.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	uid, err := api.directory.CreateUser(ctx.Request().Context(), data.Email, data.Password, data.Role)
	if err != nil {
		return core.NewValidationError(errors.Cause(err))
	}

	return ctx.JSON(http.StatusOK, CreateUserResponse{
		Success: true,
		UID:     uid,
		Message: "User created successfully",
	})
}

func (api *dashboardApi) setAdminRole(ctx echo.Context) error {
	var data SetAdminRoleRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SetAdminRoleRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	if err := api.directory.SetRole(ctx.Request().Context(), data.UID, auth.RoleAdmin); err != nil {
		return core.NewValidationError(errors.Cause(err))
	}
	api.logger.Info("manual admin role set", data.UID)

	return ctx.JSON(http.StatusOK, SuccessResponse{
		Success: true,
		Message: "Admin role set for " + data.Email,
	})
}

// refreshToken verifies the supplied ID token then mints a custom token the
// client SDK exchanges for a fresh ID token, picking up any new role claims.
func (api *dashboardApi) refreshToken(ctx echo.Context) error {
	var data RefreshTokenRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RefreshTokenRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	claims, err := api.verifier.VerifyToken(ctx.Request().Context(), data.IDToken)
	if err != nil {
		return errInvalidToken
	}
	token, err := api.directory.CustomToken(ctx.Request().Context(), claims.UID)
	if err != nil {
		return errInvalidToken
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

type (
	DashboardUser struct {
		Email string `json:"email"`
		UID   string `json:"uid"`
	}

	DashboardResponse struct {
		Message string        `json:"message"`
		User    DashboardUser `json:"user"`
		Stats   echo.Map      `json:"stats"`
	}

	CreateUserResponse struct {
		Success bool   `json:"success"`
		UID     string `json:"uid"`
		Message string `json:"message"`
	}

	SetAdminRoleRequest struct {
		UID   string `json:"uid" validate:"required"`
		Email string `json:"email" validate:"required,email"`
	}

	SuccessResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
	}

	RefreshTokenRequest struct {
		IDToken string `json:"idToken" validate:"required"`
	}

	TokenResponse struct {
		Token string `json:"token"`
	}
)

func (r *SetAdminRoleRequest) Validate(validate *validator.Validate) error {
	r.Email = core.CleanString(r.Email, true /* lower */)
	return validate.Struct(r)
}

func (r *RefreshTokenRequest) Validate(validate *validator.Validate) error {
	return validate.Struct(r)
}
