package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/shiftdesk/workforce-api/pkg/database"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrInvalidKey   = errors.New("invalid api key")
	ErrKeyRevoked   = errors.New("api key revoked")
)

var jwtAlgorithm = jwt.SigningMethodHS256

// TokenTTL is how long an issued token stays valid
const TokenTTL = 24 * time.Hour

// DefaultRateLimit is the daily request limit of a key issued without one
const DefaultRateLimit = 10000

// Role grants access to a set of operations
type Role string

const (
	RoleEmployee Role = "employee"
	RoleManager  Role = "manager"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	switch r {
	case RoleEmployee, RoleManager, RoleAdmin:
		return true
	}
	return false
}

// HasRole reports whether have is one of allowed. Admins pass every check.
func HasRole(have Role, allowed ...Role) bool {
	if have == RoleAdmin {
		return true
	}
	for _, r := range allowed {
		if have == r {
			return true
		}
	}
	return false
}

// Claims represents the JWT claims
type Claims struct {
	UserID string `json:"user_id"`
	OrgID  string `json:"org_id"`
	Role   Role   `json:"role"`
	jwt.RegisteredClaims
}

// Authenticator issues and verifies bearer tokens and HMAC API keys
type Authenticator struct {
	jwtSecret    []byte
	masterSecret []byte
	now          func() time.Time
}

// New creates an Authenticator from the configured secrets
func New(jwtSecret, masterSecret string) *Authenticator {
	return &Authenticator{
		jwtSecret:    []byte(jwtSecret),
		masterSecret: []byte(masterSecret),
		now:          time.Now,
	}
}

// HashPassword hashes a password using bcrypt
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a password with its hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// CreateToken creates a new JWT token for a user
func (a *Authenticator) CreateToken(userID, orgID string, role Role) (string, error) {
	now := a.now()
	claims := &Claims{
		UserID: userID,
		OrgID:  orgID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwtAlgorithm, claims)
	return token.SignedString(a.jwtSecret)
}

// VerifyToken verifies a JWT token
func (a *Authenticator) VerifyToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if token.Method != jwtAlgorithm {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return a.jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	if !token.Valid || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GenerateHMACKey creates a signed API key using HMAC-SHA256
func (a *Authenticator) GenerateHMACKey(subject string) string {
	return subject + "." + a.sign(subject)
}

// VerifyHMACKey validates an HMAC-signed API key and returns its subject
func (a *Authenticator) VerifyHMACKey(key string) (string, error) {
	parts := strings.Split(key, ".")
	if len(parts) != 2 || parts[0] == "" {
		return "", fmt.Errorf("%w: invalid key format", ErrInvalidKey)
	}

	subject := parts[0]
	providedSignature := parts[1]

	// Use constant-time comparison to prevent timing attacks
	if !hmac.Equal([]byte(providedSignature), []byte(a.sign(subject))) {
		return "", fmt.Errorf("%w: invalid signature", ErrInvalidKey)
	}

	return subject, nil
}

func (a *Authenticator) sign(subject string) string {
	h := hmac.New(sha256.New, a.masterSecret)
	h.Write([]byte(subject))
	return hex.EncodeToString(h.Sum(nil))
}

// KeySubject joins an organization and key name into an HMAC subject
func KeySubject(orgID, name string) string {
	return orgID + ":" + name
}

// SplitKeySubject reverses KeySubject
func SplitKeySubject(subject string) (orgID, name string, err error) {
	orgID, name, ok := strings.Cut(subject, ":")
	if !ok || orgID == "" || name == "" {
		return "", "", fmt.Errorf("%w: malformed subject", ErrInvalidKey)
	}
	return orgID, name, nil
}

// ResolveAPIKey fetches or creates the usage record for a verified key and
// stamps its last use. A revoked record stays revoked even though its
// signature still verifies.
func ResolveAPIKey(db *gorm.DB, key, orgID, name string) (*database.APIKey, error) {
	var apiKey database.APIKey
	// Attrs only applies on create; the lookup matches the key alone
	err := db.Where(database.APIKey{Key: key}).Attrs(database.APIKey{
		Key:       key,
		Name:      name,
		OrgID:     orgID,
		RateLimit: DefaultRateLimit,
	}).FirstOrCreate(&apiKey).Error
	if err != nil {
		return nil, err
	}
	if apiKey.RevokedAt != nil {
		return nil, ErrKeyRevoked
	}

	now := time.Now()
	apiKey.LastUsed = &now
	if err := db.Model(&apiKey).Update("last_used", now).Error; err != nil {
		return nil, err
	}

	return &apiKey, nil
}

// EnsureAdminExists creates the bootstrap admin when no master user exists
func EnsureAdminExists(db *gorm.DB, username, password, orgID string, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	var count int64
	if err := db.Model(&database.MasterUser{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	if username == "" {
		username = "admin"
	}
	if password == "" {
		password = "admin123"
		logger.Warn("ADMIN_PASSWORD not set, using the default password")
	}

	hash, err := HashPassword(password)
	if err != nil {
		return err
	}

	user := database.MasterUser{
		Username:     username,
		PasswordHash: hash,
		OrgID:        orgID,
	}
	if err := db.Create(&user).Error; err != nil {
		return err
	}
	logger.Info("Default admin user created", zap.String("username", username))
	return nil
}
