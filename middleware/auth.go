package middleware

import (
	"net/http"
	"strings"
	"time"

	"courier-api/config"
	"courier-api/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

type Claims struct {
	UserID    uint            `json:"user_id"`
	Email     string          `json:"email"`
	Role      models.UserRole `json:"role"`
	IsManager bool            `json:"is_manager"`
	BranchID  *uint           `json:"branch_id"`
	jwt.RegisteredClaims
}

const actorKey = "actor"

// GenerateToken creates a signed JWT for a given user
func GenerateToken(user *models.User) (string, error) {
	claims := Claims{
		UserID:    user.ID,
		Email:     user.Email,
		Role:      user.Role,
		IsManager: user.IsManager,
		BranchID:  user.BranchID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(config.JWTSecret)
}

// AuthRequired validates the JWT and resolves the caller into a typed Actor.
// Capability is computed exactly once here; handlers never re-derive it from
// raw claim fields.
func AuthRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required (Bearer <token>)"})
			c.Abort()
			return
		}
		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
			return config.JWTSecret, nil
		})
		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}
		actor := models.Actor{
			UserID:     claims.UserID,
			BranchID:   claims.BranchID,
			Role:       claims.Role,
			IsManager:  claims.IsManager,
			Capability: models.CapabilityOf(claims.Role, claims.IsManager),
		}
		c.Set(actorKey, actor)
		c.Next()
	}
}

// RoleRequired enforces that caller has one of the allowed roles
func RoleRequired(roles ...models.UserRole) gin.HandlerFunc {
	return func(c *gin.Context) {
		val, exists := c.Get(actorKey)
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "Actor not found in context"})
			c.Abort()
			return
		}
		actor := val.(models.Actor)
		for _, r := range roles {
			if actor.Role == r {
				c.Next()
				return
			}
		}
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Access denied. Required role(s): " + rolesString(roles),
		})
		c.Abort()
	}
}

// BranchRequired rejects callers without a branch affiliation. Branch route
// groups stack this after RoleRequired so handlers can dereference
// actor.BranchID safely.
func BranchRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := GetActor(c)
		if actor.BranchID == nil {
			c.JSON(http.StatusForbidden, gin.H{"error": "This operation requires a branch affiliation"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func rolesString(roles []models.UserRole) string {
	s := ""
	for i, r := range roles {
		if i > 0 {
			s += ", "
		}
		s += string(r)
	}
	return s
}

// GetActor extracts the resolved caller from context
func GetActor(c *gin.Context) models.Actor {
	val, _ := c.Get(actorKey)
	return val.(models.Actor)
}
