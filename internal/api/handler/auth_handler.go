package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/supplytrace/provenance/internal/api/middleware"
	"github.com/supplytrace/provenance/internal/core/domain"
	"github.com/supplytrace/provenance/internal/core/ports"
)

type AuthHandler struct {
	authService ports.AuthService
	resolver    CallerResolver
	tokenTTL    time.Duration
	secure      bool
}

func NewAuthHandler(authService ports.AuthService, resolver CallerResolver, tokenTTL time.Duration, secureCookie bool) *AuthHandler {
	return &AuthHandler{authService: authService, resolver: resolver, tokenTTL: tokenTTL, secure: secureCookie}
}

// profileFields is the union of the role-specific registration attributes.
type profileFields struct {
	Phone         string `json:"phone"`
	Address       string `json:"address"`
	CompanyName   string `json:"companyName,omitempty"`
	LicenseNumber string `json:"licenseNumber,omitempty"`
	Manager       string `json:"manager,omitempty"`
	Brand         string `json:"brand,omitempty"`
	FullName      string `json:"fullName,omitempty"`
}

func (p profileFields) contact() domain.Contact {
	return domain.Contact{Phone: p.Phone, Address: p.Address}
}

func (p profileFields) profile(role domain.Role) domain.Profile {
	switch role {
	case domain.RoleManufacturer:
		return domain.ManufacturerProfile{
			Contact:       p.contact(),
			CompanyName:   p.CompanyName,
			LicenseNumber: p.LicenseNumber,
			Manager:       p.Manager,
			Brand:         p.Brand,
		}
	case domain.RoleCustomer:
		return domain.CustomerProfile{Contact: p.contact(), FullName: p.FullName}
	case domain.RoleSeller:
		return p.seller()
	}
	return nil
}

func (p profileFields) seller() domain.SellerProfile {
	return domain.SellerProfile{
		Contact:     p.contact(),
		CompanyName: p.CompanyName,
		Manager:     p.Manager,
		Brand:       p.Brand,
	}
}

type registerRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required,oneof=Manufacturer Customer"`
	UserType string `json:"userType,omitempty"`
	profileFields
}

type addSellerRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	profileFields
}

type loginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
	Role     string `json:"role" validate:"required"`
	UserType string `json:"userType,omitempty"`
}

// roleOrAlias returns role, or the legacy userType key when role is absent.
func roleOrAlias(role, userType string) string {
	if role != "" {
		return role
	}
	return userType
}

// authResponse carries username and role at the top level for clients that
// keep them as their session.
type authResponse struct {
	Message  string       `json:"message,omitempty"`
	Token    string       `json:"token,omitempty"`
	Username string       `json:"username,omitempty"`
	Role     domain.Role  `json:"role,omitempty"`
	User     *domain.User `json:"user,omitempty"`
}

func newAuthResponse(message, token string, user *domain.User) authResponse {
	resp := authResponse{Message: message, Token: token, User: user}
	if user != nil {
		resp.Username = user.Username
		resp.Role = user.Role
	}
	return resp
}

// Register creates a Manufacturer or Customer account.
//
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "User registration details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      500   {object}  errorResponse
// @Router       /api/users/register [post]
func (h *AuthHandler) Register(c echo.Context) error {
	var req registerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	req.Role = roleOrAlias(req.Role, req.UserType)
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	user, err := h.authService.Register(c.Request().Context(), req.Username, req.Password, req.profile(domain.Role(req.Role)))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, newAuthResponse("User registered successfully", "", user))
}

// AddSeller onboards a Seller on behalf of the calling Manufacturer.
//
// @Summary      Add a seller
// @Tags         users
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      addSellerRequest  true  "Seller details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Router       /api/users/add-seller [post]
func (h *AuthHandler) AddSeller(c echo.Context) error {
	caller, err := ctxCaller(c, h.resolver)
	if err != nil {
		return err
	}

	var req addSellerRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}

	user, err := h.authService.AddSeller(c.Request().Context(), caller, req.Username, req.Password, req.seller())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, newAuthResponse("Seller added successfully", "", user))
}

// Login authenticates a user, returns a JWT and sets the session cookie.
//
// @Summary      Login
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Login credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Router       /api/users/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: "invalid payload"})
	}
	req.Role = roleOrAlias(req.Role, req.UserType)
	if err := c.Validate(&req); err != nil {
		return c.JSON(http.StatusBadRequest, errorResponse{Error: err.Error()})
	}
	role, err := domain.ParseRole(req.Role)
	if err != nil {
		return err
	}

	token, user, err := h.authService.Login(c.Request().Context(), req.Username, req.Password, role)
	if err != nil {
		return err
	}

	c.SetCookie(&http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(h.tokenTTL),
		HttpOnly: true,
		Secure:   h.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return c.JSON(http.StatusOK, newAuthResponse("Login successful", token, user))
}
