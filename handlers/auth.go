package handlers

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/mileusna/useragent"
	authmw "github.com/quilldesk/quilldesk/middleware/auth"
	"github.com/quilldesk/quilldesk/services/auth"
	"github.com/quilldesk/quilldesk/services/github"
	"github.com/quilldesk/quilldesk/services/logging"
	"github.com/quilldesk/quilldesk/services/user"
	"go.uber.org/zap"
)

type AuthHandler struct {
	auth   *auth.Service
	logger *logging.Service
}

func NewAuthHandler(authService *auth.Service, logger *logging.Service) *AuthHandler {
	return &AuthHandler{
		auth:   authService,
		logger: logger,
	}
}

type signInPasswordRequest struct {
	Email      string `json:"email"`
	Password   string `json:"password"`
	DeviceID   string `json:"device_id"`
	DeviceType string `json:"device_type"`
}

type signInCodeRequest struct {
	Email      string `json:"email"`
	Code       string `json:"code"`
	DeviceID   string `json:"device_id"`
	DeviceType string `json:"device_type"`
}

type signUpRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type githubSignInRequest struct {
	Code       string `json:"code"`
	DeviceID   string `json:"device_id"`
	DeviceType string `json:"device_type"`
}

type requestCodeRequest struct {
	Email string `json:"email"`
}

type logoutRequest struct {
	DeviceID string `json:"device_id"`
}

type githubSignInResponse struct {
	User        *user.User `json:"user"`
	AccessToken string     `json:"accessToken"`
}

func (h *AuthHandler) deviceInfo(c echo.Context, deviceID, deviceType string) auth.DeviceInfo {
	if deviceType == "" {
		ua := useragent.Parse(c.Request().UserAgent())
		switch {
		case ua.Mobile, ua.Tablet:
			deviceType = "mobile"
		case ua.Desktop:
			deviceType = "desktop"
		default:
			deviceType = "unknown"
		}
	}

	return auth.DeviceInfo{
		DeviceID:   deviceID,
		DeviceType: deviceType,
		ClientIP:   c.RealIP(),
	}
}

func (h *AuthHandler) SignInPassword(c echo.Context) error {
	var req signInPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Email == "" || req.Password == "" || req.DeviceID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email, password and device_id are required")
	}

	result, err := h.auth.SignInWithPassword(req.Email, req.Password, h.deviceInfo(c, req.DeviceID, req.DeviceType))
	if err != nil {
		return h.mapAuthError(err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *AuthHandler) SignInCode(c echo.Context) error {
	var req signInCodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Email == "" || req.Code == "" || req.DeviceID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email, code and device_id are required")
	}

	result, err := h.auth.SignInWithCode(req.Email, req.Code, h.deviceInfo(c, req.DeviceID, req.DeviceType))
	if err != nil {
		return h.mapAuthError(err)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *AuthHandler) SignUp(c echo.Context) error {
	var req signUpRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Username == "" || req.Email == "" || req.Password == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "username, email and password are required")
	}

	created, err := h.auth.SignUp(auth.SignUpParams{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return h.mapAuthError(err)
	}

	return c.JSON(http.StatusCreated, created)
}

func (h *AuthHandler) RequestCode(c echo.Context) error {
	var req requestCodeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Email == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "email is required")
	}

	if err := h.auth.RequestCode(req.Email); err != nil {
		if h.logger != nil {
			h.logger.Error("failed to issue one-time code", zap.Error(err))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to send verification code")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Refresh(c echo.Context) error {
	var req refreshRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.RefreshToken == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "refreshToken is required")
	}

	accessToken, err := h.auth.Refresh(req.RefreshToken)
	if err != nil {
		return h.mapAuthError(err)
	}

	return c.JSON(http.StatusOK, map[string]string{"accessToken": accessToken})
}

func (h *AuthHandler) GithubSignIn(c echo.Context) error {
	var req githubSignInRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if req.Code == "" || req.DeviceID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "code and device_id are required")
	}

	result, err := h.auth.SignInWithGithub(c.Request().Context(), req.Code, h.deviceInfo(c, req.DeviceID, req.DeviceType))
	if err != nil {
		return h.mapAuthError(err)
	}

	return c.JSON(http.StatusOK, githubSignInResponse{
		User:        result.User,
		AccessToken: result.AccessToken,
	})
}

func (h *AuthHandler) Logout(c echo.Context) error {
	var req logoutRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}

	deviceID := req.DeviceID
	if deviceID == "" {
		deviceID = authmw.GetDeviceID(c)
	}
	if deviceID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "device_id is required")
	}

	if err := h.auth.Logout(authmw.GetUserID(c), deviceID); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to log out")
	}

	return c.NoContent(http.StatusNoContent)
}

func (h *AuthHandler) Devices(c echo.Context) error {
	sessions, err := h.auth.Devices(authmw.GetUserID(c))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, "Failed to list devices")
	}

	return c.JSON(http.StatusOK, map[string]any{"devices": sessions})
}

// mapAuthError turns service sentinels into client-facing HTTP errors.
// Provider failures stay generic to the end user; the specific kind was
// already logged at the exchanger boundary.
func (h *AuthHandler) mapAuthError(err error) error {
	switch {
	case errors.Is(err, auth.ErrUserNotFound):
		return echo.NewHTTPError(http.StatusForbidden, "User does not exist, please sign up")
	case errors.Is(err, auth.ErrInvalidCredentials):
		return echo.NewHTTPError(http.StatusForbidden, "Incorrect email or password")
	case errors.Is(err, auth.ErrInvalidOrExpiredCode):
		return echo.NewHTTPError(http.StatusForbidden, "Verification code is invalid or has expired")
	case errors.Is(err, auth.ErrUserAlreadyExists):
		return echo.NewHTTPError(http.StatusForbidden, "User already exists")
	case errors.Is(err, auth.ErrInvalidRefreshToken):
		return echo.NewHTTPError(http.StatusUnauthorized, "Invalid refresh token")
	case errors.Is(err, github.ErrExchangeFailed), errors.Is(err, github.ErrProfileFetchFailed):
		return echo.NewHTTPError(http.StatusUnauthorized, "GitHub authorization failed")
	default:
		if h.logger != nil {
			h.logger.Error("auth request failed", zap.Error(err))
		}
		return echo.NewHTTPError(http.StatusInternalServerError, "Internal server error")
	}
}
