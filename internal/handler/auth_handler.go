package handler

import (
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/plantcare/internal/service"
)

type registerPayload struct {
	Name            string  `json:"name" binding:"required"`
	Email           string  `json:"email" binding:"required,email"`
	Password        string  `json:"password" binding:"required"`
	ConfirmPassword string  `json:"confirm_password" binding:"required"`
	City            *string `json:"city"`
	BirthDate       *string `json:"birth_date"`
}

type loginPayload struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register 处理注册请求
func (a *API) Register(c *gin.Context) {
	var payload registerPayload
	if !bindJSON(c, &payload, "invalid register payload") {
		return
	}

	res, err := a.auth.Register(c.Request.Context(), service.RegisterInput{
		Name:            payload.Name,
		Email:           payload.Email,
		Password:        payload.Password,
		ConfirmPassword: payload.ConfirmPassword,
		City:            payload.City,
		BirthDate:       payload.BirthDate,
	})
	if err != nil {
		a.respondServiceError(c, err, "failed to register user")
		return
	}

	a.rememberUser(c, res.User.ID)
	respondSuccess(c, http.StatusOK, "User registered successfully", res)
}

// Login 处理登录请求，同时写入会话以便浏览器客户端免带令牌
func (a *API) Login(c *gin.Context) {
	var payload loginPayload
	if !bindJSON(c, &payload, "invalid login payload") {
		return
	}

	res, err := a.auth.Login(c.Request.Context(), payload.Email, payload.Password)
	if err != nil {
		a.respondServiceError(c, err, "failed to log in")
		return
	}

	a.rememberUser(c, res.User.ID)
	respondSuccess(c, http.StatusOK, "Login successful", res)
}

// Logout 清除会话
func (a *API) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Delete(a.sessionKey())
	if err := session.Save(); err != nil {
		a.respondServiceError(c, err, "failed to clear session")
		return
	}
	respondSuccess(c, http.StatusOK, "Logged out", nil)
}

// Me 返回当前登录用户
func (a *API) Me(c *gin.Context) {
	user, err := a.auth.Me(c.Request.Context(), currentUserID(c))
	if err != nil {
		a.respondServiceError(c, err, "failed to load user")
		return
	}
	respondSuccess(c, http.StatusOK, "User data retrieved successfully", user)
}

// AuthRequired 校验 Bearer 令牌，缺失时回退到登录时写入的会话
func (a *API) AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := strings.TrimSpace(c.GetHeader("Authorization"))
		if header != "" {
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok {
				abortWithError(c, http.StatusUnauthorized, "invalid authorization format, use: Bearer <token>")
				return
			}
			userID, err := a.auth.Tokens().Verify(token)
			if err != nil {
				abortWithError(c, http.StatusUnauthorized, service.ErrInvalidToken.Error())
				return
			}
			c.Set(userIDContextKey, userID)
			c.Next()
			return
		}

		session := sessions.Default(c)
		raw, _ := session.Get(a.sessionKey()).(string)
		userID, err := uuid.Parse(raw)
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "authorization header required")
			return
		}
		c.Set(userIDContextKey, userID)
		c.Next()
	}
}

// rememberUser 写入会话；失败只记录日志，令牌仍然可用
func (a *API) rememberUser(c *gin.Context, userID uuid.UUID) {
	session := sessions.Default(c)
	session.Set(a.sessionKey(), userID.String())
	if err := session.Save(); err != nil {
		a.log.WithError(err).Warn("failed to save session")
	}
}
