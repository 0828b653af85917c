package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	jwt "github.com/golang-jwt/jwt/v5"
)

const tokenTTL = 72 * time.Hour

// generateJWT issues an operator token.
func (h *Handler) generateJWT() (string, error) {
	claims := jwt.MapClaims{
		"role": "operator",
		"exp":  time.Now().Add(tokenTTL).Unix(),
		"iss":  "cultgo-service",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(h.jwtSecret)
}

// validateJWT checks the signature and expiry of an operator token.
func (h *Handler) validateJWT(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrSignatureInvalid
		}
		return h.jwtSecret, nil
	})
	if err != nil {
		return err
	}
	if !token.Valid {
		return jwt.ErrTokenUnverifiable
	}
	return nil
}

// GetAdminToken exchanges the shared operator key for a JWT.
func (h *Handler) GetAdminToken(c *gin.Context) {
	var req struct {
		Key string `json:"key" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil || req.Key != h.adminKey {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid operator key"})
		return
	}

	token, err := h.generateJWT()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create token"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// RequireAdmin is the middleware guarding operator endpoints.
func (h *Handler) RequireAdmin(c *gin.Context) {
	authHeader := c.GetHeader("Authorization")
	if !strings.HasPrefix(authHeader, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization token missing"})
		return
	}
	if err := h.validateJWT(strings.TrimPrefix(authHeader, "Bearer ")); err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token or expired"})
		return
	}
	c.Next()
}

// SetScore force-sets a player's score in the ledger.
func (h *Handler) SetScore(c *gin.Context) {
	var req struct {
		UserID int64 `json:"user_id" binding:"required"`
		Score  int   `json:"score"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "user_id and score required"})
		return
	}

	if err := h.Scoring.ForceSet(req.UserID, req.Score); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to set score"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"user_id": req.UserID, "score": req.Score})
}
