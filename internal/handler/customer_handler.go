package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/brianlane/bizblasts-sub001/internal/customer"
	"github.com/brianlane/bizblasts-sub001/internal/middleware"
	"github.com/brianlane/bizblasts-sub001/pkg/logger"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// CustomerHandler exposes customer identity resolution over HTTP
type CustomerHandler struct {
	linker      customer.Orchestrator
	lookupRoles []string
}

// NewCustomerHandler creates a handler backed by the given orchestrator.
// lookupRoles are the token roles allowed to search customers by phone.
func NewCustomerHandler(linker customer.Orchestrator, lookupRoles []string) *CustomerHandler {
	return &CustomerHandler{linker: linker, lookupRoles: lookupRoles}
}

// RegisterRoutes mounts the customer routes. auth must authenticate the bearer token.
func (h *CustomerHandler) RegisterRoutes(e *echo.Echo, auth echo.MiddlewareFunc) {
	api := e.Group("/api/customers", auth, middleware.RequireTenantContext)
	api.POST("/link", h.LinkCustomer)
	api.GET("", h.FindByPhone, middleware.RequireRoles(h.lookupRoles))

	public := e.Group("/public/businesses/:business_id")
	public.POST("/guest-customers", h.FindOrCreateGuest)
}

// LinkCustomer links the authenticated account to its customer record in the token's business
func (h *CustomerHandler) LinkCustomer(c echo.Context) error {
	log := logger.FromEcho(c)

	claims, ok := middleware.GetClaims(c)
	if !ok {
		log.Error("Failed to get claims from context")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}
	if claims.UserID == 0 {
		log.Warn("Token without user id", zap.String("email", claims.Email))
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	account := customer.Account{
		ID:        claims.UserID,
		Email:     claims.Email,
		Phone:     claims.Phone,
		Role:      claims.Role,
		FirstName: claims.FirstName,
		LastName:  claims.LastName,
	}

	resolved, err := h.linker.LinkUserToCustomer(c.Request().Context(), *claims.TenantID, account)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"customer": resolved})
}

type guestRequest struct {
	Email      string `json:"email"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Phone      string `json:"phone"`
	PhoneOptIn bool   `json:"phone_opt_in"`
}

// FindOrCreateGuest resolves a guest checkout to a customer record. The caller is
// anonymous, so only the record id is returned.
func (h *CustomerHandler) FindOrCreateGuest(c echo.Context) error {
	log := logger.FromEcho(c)

	businessID, err := strconv.ParseUint(c.Param("business_id"), 10, 32)
	if err != nil || businessID == 0 {
		log.Warn("Invalid business ID", zap.String("business_id", c.Param("business_id")))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid business ID"})
	}

	var req guestRequest
	if err := c.Bind(&req); err != nil {
		log.Warn("Failed to parse guest customer request", zap.Error(err))
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	}

	resolved, err := h.linker.FindOrCreateGuestCustomer(c.Request().Context(), uint(businessID), req.Email, customer.GuestAttributes{
		FirstName:  req.FirstName,
		LastName:   req.LastName,
		Phone:      req.Phone,
		PhoneOptIn: req.PhoneOptIn,
	})
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"customer_id": resolved.ID})
}

// FindByPhone lists the business's customers sharing a phone number
func (h *CustomerHandler) FindByPhone(c echo.Context) error {
	claims, ok := middleware.GetClaims(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	}

	phoneNumber := strings.TrimSpace(c.QueryParam("phone"))
	if phoneNumber == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "phone is required"})
	}

	customers, err := h.linker.FindCustomersByPhone(c.Request().Context(), *claims.TenantID, phoneNumber)
	if err != nil {
		return writeError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{"customers": customers, "count": len(customers)})
}

// writeError maps identity errors to responses that let clients act on them
func writeError(c echo.Context, err error) error {
	log := logger.FromEcho(c)

	var (
		differentUser *customer.DifferentUserConflictError
		guestConflict *customer.GuestIdentityConflictError
		invalidRole   *customer.InvalidAccountRoleError
		uniqueness    *customer.UniquenessViolationError
	)

	switch {
	case errors.As(err, &differentUser):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":             "this " + string(differentUser.Channel) + " is already linked to another account",
			"code":              "different_user_conflict",
			"identifier":        differentUser.Identifier,
			"channel":           differentUser.Channel,
			"business_id":       differentUser.BusinessID,
			"existing_user_id":  differentUser.ExistingUserID,
			"attempted_user_id": differentUser.AttemptedUserID,
		})
	case errors.As(err, &guestConflict):
		return c.JSON(http.StatusConflict, echo.Map{
			"error":            "this " + string(guestConflict.Channel) + " belongs to a registered account",
			"code":             "guest_identity_conflict",
			"identifier":       guestConflict.Identifier,
			"channel":          guestConflict.Channel,
			"business_id":      guestConflict.BusinessID,
			"existing_user_id": guestConflict.ExistingUserID,
			"suggestion":       guestConflict.Suggestion(),
		})
	case errors.As(err, &invalidRole):
		return c.JSON(http.StatusForbidden, echo.Map{
			"error": invalidRole.Error(),
			"code":  "invalid_account_role",
		})
	case errors.Is(err, customer.ErrBlankEmail):
		return c.JSON(http.StatusBadRequest, echo.Map{
			"error": err.Error(),
			"code":  "blank_email",
		})
	case errors.As(err, &uniqueness):
		log.Warn("Concurrent customer creation", zap.Error(err))
		return c.JSON(http.StatusConflict, echo.Map{
			"error":     "customer was created concurrently, please retry",
			"code":      "uniqueness_violation",
			"retryable": uniqueness.Retryable(),
		})
	default:
		log.Error("Customer identity resolution failed", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal server error"})
	}
}
