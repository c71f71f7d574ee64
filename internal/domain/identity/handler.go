package identity

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/medisched/medisched/internal/platform/auth"
	"github.com/medisched/medisched/pkg/pagination"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the identity endpoints. authn authenticates the
// admin listing; the other routes are public or verify tokens themselves.
func (h *Handler) RegisterRoutes(api *echo.Group, authn echo.MiddlewareFunc) {
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)
	api.GET("/verify", h.Verify)
	api.GET("/users/by-username/:username", h.GetByUsername)

	admin := api.Group("", authn, auth.RequireRole(auth.RoleAdmin))
	admin.GET("/users", h.ListUsers)
}

func (h *Handler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	resp, err := h.svc.Register(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, resp)
}

func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	resp, err := h.svc.Login(c.Request().Context(), &req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

func (h *Handler) Verify(c echo.Context) error {
	token, err := auth.BearerToken(c.Request())
	if err != nil {
		return err
	}
	claims, err := h.svc.Verify(token)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, auth.VerifyResponse{Valid: true, User: claims})
}

func (h *Handler) GetByUsername(c echo.Context) error {
	info, err := h.svc.LookupUsername(c.Request().Context(), c.Param("username"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, info)
}

func (h *Handler) ListUsers(c echo.Context) error {
	pg := pagination.FromContext(c)
	users, total, err := h.svc.ListUsers(c.Request().Context(), pg.Limit, pg.Offset)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, pagination.NewResponse(users, total, pg))
}
