package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"wagermatch/models"
	"wagermatch/service"
)

// Claims are the session token claims issued by the identity provider
type Claims struct {
	Email        string       `json:"email,omitempty"`
	UserMetadata UserMetadata `json:"user_metadata"`
	jwt.RegisteredClaims
}

// UserMetadata carries the profile fields the identity provider copies into the token
type UserMetadata struct {
	FullName  string `json:"full_name,omitempty"`
	Name      string `json:"name,omitempty"`
	AvatarURL string `json:"avatar_url,omitempty"`
}

// JWTVerifier validates HS256 session tokens and resolves them to an identity
type JWTVerifier struct {
	secret []byte
}

// NewJWTVerifier creates a verifier for tokens signed with secret
func NewJWTVerifier(secret string) *JWTVerifier {
	return &JWTVerifier{secret: []byte(secret)}
}

// Verify parses tokenString and returns the identity it names
func (v *JWTVerifier) Verify(tokenString string) (*models.Identity, error) {
	if len(v.secret) == 0 {
		return nil, fmt.Errorf("%w: JWT secret not configured", service.ErrUnauthenticated)
	}

	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", service.ErrUnauthenticated, err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("%w: invalid token", service.ErrUnauthenticated)
	}

	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, fmt.Errorf("%w: subject is not a user id", service.ErrUnauthenticated)
	}

	return claims.identity(userID), nil
}

func (c *Claims) identity(userID uuid.UUID) *models.Identity {
	identity := &models.Identity{
		UserID: userID,
		Email:  c.Email,
	}

	// Display name falls back to the local part of the email
	switch {
	case strings.TrimSpace(c.UserMetadata.FullName) != "":
		identity.DisplayName = strings.TrimSpace(c.UserMetadata.FullName)
	case strings.TrimSpace(c.UserMetadata.Name) != "":
		identity.DisplayName = strings.TrimSpace(c.UserMetadata.Name)
	case c.Email != "":
		identity.DisplayName, _, _ = strings.Cut(c.Email, "@")
	}

	if c.UserMetadata.AvatarURL != "" {
		avatar := c.UserMetadata.AvatarURL
		identity.AvatarURL = &avatar
	}

	return identity
}

// GenerateToken signs a session token for identity valid for ttl. Production tokens come
// from the identity provider; this backs the `wagermatch token` command for local use.
func (v *JWTVerifier) GenerateToken(identity *models.Identity, ttl time.Duration) (string, error) {
	if len(v.secret) == 0 {
		return "", errors.New("JWT secret not configured")
	}

	now := time.Now()
	claims := &Claims{
		Email: identity.Email,
		UserMetadata: UserMetadata{
			FullName: identity.DisplayName,
		},
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   identity.UserID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	if identity.AvatarURL != nil {
		claims.UserMetadata.AvatarURL = *identity.AvatarURL
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(v.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}
