package http

import (
	"errors"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"clipstream/internal/apperr"
	"clipstream/internal/auth"
	"clipstream/internal/service"
)

const (
	accessCookie  = "accessToken"
	refreshCookie = "refreshToken"
)

// Handler wires HTTP routes to domain services.
type Handler struct {
	users       service.UserService
	sessions    *auth.SessionService
	tempDir     string
	corsOrigin  string
	bodyLimitKB int64
	logger      *logrus.Logger
}

func NewHandler(users service.UserService, sessions *auth.SessionService, tempDir, corsOrigin string, bodyLimitKB int64, logger *logrus.Logger) *Handler {
	return &Handler{
		users:       users,
		sessions:    sessions,
		tempDir:     tempDir,
		corsOrigin:  corsOrigin,
		bodyLimitKB: bodyLimitKB,
		logger:      logger,
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.Use(corsMiddleware(h.corsOrigin))
	router.Use(bodyLimitMiddleware(h.bodyLimitKB))

	api := router.Group("/api/v1")
	{
		api.GET("/health", func(ctx *gin.Context) {
			ctx.JSON(http.StatusOK, gin.H{"ok": "ok"})
		})

		users := api.Group("/users")
		users.POST("/register", h.register)
		users.POST("/login", h.login)
		users.POST("/refresh-token", h.refreshToken)

		secured := users.Group("")
		secured.Use(h.requireAuth())
		secured.POST("/logout", h.logout)
		secured.GET("/current-user", h.currentUser)
		secured.POST("/change-password", h.changePassword)
	}
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type changePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) register(c *gin.Context) {
	in := service.RegisterInput{
		Username: c.PostForm("username"),
		Email:    c.PostForm("email"),
		FullName: c.PostForm("fullName"),
		Password: c.PostForm("password"),
	}

	avatarPath, err := h.stageFile(c, "avatar")
	if err != nil {
		h.respondError(c, err)
		return
	}
	coverPath, err := h.stageFile(c, "coverImage")
	if err != nil {
		h.respondError(c, err)
		return
	}
	in.AvatarPath = avatarPath
	in.CoverImagePath = coverPath

	user, err := h.users.Register(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.respondOK(c, http.StatusOK, user, "user registered successfully")
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperr.Validation("malformed request body"))
		return
	}

	user, pair, err := h.users.Login(c.Request.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setTokenCookies(c, pair)
	h.respondOK(c, http.StatusOK, gin.H{
		"user":         user,
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "user logged in successfully")
}

func (h *Handler) logout(c *gin.Context) {
	userID := c.GetInt64(ctxUserIDKey)
	if err := h.users.Logout(c.Request.Context(), userID); err != nil {
		h.respondError(c, err)
		return
	}

	h.clearTokenCookies(c)
	h.respondOK(c, http.StatusOK, nil, "user logged out successfully")
}

func (h *Handler) refreshToken(c *gin.Context) {
	token, _ := c.Cookie(refreshCookie)
	if token == "" {
		var req refreshRequest
		if err := c.ShouldBindJSON(&req); err == nil {
			token = req.RefreshToken
		}
	}
	if token == "" {
		h.respondError(c, apperr.Unauthorized("refresh token is required"))
		return
	}

	pair, err := h.users.Refresh(c.Request.Context(), token)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.setTokenCookies(c, pair)
	h.respondOK(c, http.StatusOK, gin.H{
		"accessToken":  pair.AccessToken,
		"refreshToken": pair.RefreshToken,
	}, "access token refreshed")
}

func (h *Handler) currentUser(c *gin.Context) {
	user, err := h.users.CurrentUser(c.Request.Context(), c.GetInt64(ctxUserIDKey))
	if err != nil {
		h.respondError(c, err)
		return
	}
	h.respondOK(c, http.StatusOK, user, "current user fetched successfully")
}

func (h *Handler) changePassword(c *gin.Context) {
	var req changePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, apperr.Validation("malformed request body"))
		return
	}

	userID := c.GetInt64(ctxUserIDKey)
	if err := h.users.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		h.respondError(c, err)
		return
	}

	h.clearTokenCookies(c)
	h.respondOK(c, http.StatusOK, nil, "password changed successfully")
}

// stageFile writes the named multipart file into the local temp dir and
// returns its path. A missing file is not an error here; required files are
// enforced by the registration flow.
func (h *Handler) stageFile(c *gin.Context, field string) (string, error) {
	file, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", apperr.Validation("malformed multipart form")
	}
	return h.saveStaged(c, file)
}

func (h *Handler) saveStaged(c *gin.Context, file *multipart.FileHeader) (string, error) {
	name := uuid.NewString() + strings.ToLower(filepath.Ext(file.Filename))
	dst := filepath.Join(h.tempDir, name)
	if err := c.SaveUploadedFile(file, dst); err != nil {
		h.logger.WithError(err).Errorf("stage upload %s", file.Filename)
		return "", apperr.Internal("could not store the uploaded file")
	}
	return dst, nil
}

func (h *Handler) setTokenCookies(c *gin.Context, pair auth.TokenPair) {
	c.SetCookie(accessCookie, pair.AccessToken, 0, "/", "", true, true)
	c.SetCookie(refreshCookie, pair.RefreshToken, 0, "/", "", true, true)
}

func (h *Handler) clearTokenCookies(c *gin.Context) {
	c.SetCookie(accessCookie, "", -1, "/", "", true, true)
	c.SetCookie(refreshCookie, "", -1, "/", "", true, true)
}

type apiResponse struct {
	StatusCode int    `json:"statusCode"`
	Data       any    `json:"data"`
	Message    string `json:"message"`
	Success    bool   `json:"success"`
}

type apiError struct {
	StatusCode int      `json:"statusCode"`
	Message    string   `json:"message"`
	Success    bool     `json:"success"`
	Errors     []string `json:"errors"`
}

func (h *Handler) respondOK(c *gin.Context, status int, data any, message string) {
	c.JSON(status, apiResponse{
		StatusCode: status,
		Data:       data,
		Message:    message,
		Success:    true,
	})
}

func (h *Handler) respondError(c *gin.Context, err error) {
	var appErr *apperr.Error
	switch {
	case errors.As(err, &appErr):
		details := appErr.Details
		if details == nil {
			details = []string{}
		}
		c.JSON(appErr.Status, apiError{
			StatusCode: appErr.Status,
			Message:    appErr.Message,
			Success:    false,
			Errors:     details,
		})
	case errors.Is(err, auth.ErrTokenInvalid),
		errors.Is(err, auth.ErrTokenExpired),
		errors.Is(err, auth.ErrTokenReused):
		// token failures are indistinguishable to the client
		c.JSON(http.StatusUnauthorized, apiError{
			StatusCode: http.StatusUnauthorized,
			Message:    "invalid or expired token",
			Success:    false,
			Errors:     []string{},
		})
	default:
		h.logger.WithError(err).Error("request failed")
		c.JSON(http.StatusInternalServerError, apiError{
			StatusCode: http.StatusInternalServerError,
			Message:    "internal server error",
			Success:    false,
			Errors:     []string{},
		})
	}
}
