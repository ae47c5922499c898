package echoapi

import (
	"time"

	"github.com/dgrijalva/jwt-go"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/MuhammadFarhanWebDeveloper/attendence-app/core"
)

const (
	tokenContextKey = "userToken"
	tokenAudience   = "attendance"
)

var (
	errInvalidRole    = errors.New("token has an invalid role")
	errTeacherNoClass = errors.New("teacher token has no class")
)

// Claims represents the authorization claims transmitted via a JWT.
type Claims struct {
	jwt.StandardClaims
	Name  string `json:"name,omitempty"`
	Role  string `json:"role"`
	Class string `json:"class,omitempty"` // teachers only
}

func (c *Claims) Valid() error {
	if err := c.StandardClaims.Valid(); err != nil {
		return err
	}
	if !core.ValidRole(c.Role) {
		return errInvalidRole
	}
	if c.Role == core.RoleTeacher && c.Class == "" {
		return errTeacherNoClass
	}
	return nil
}

func (c Claims) IsPrincipal() bool { return c.Role == core.RolePrincipal }

func (c Claims) Actor() core.Actor {
	return core.Actor{ID: c.Subject, Role: c.Role, Class: c.Class}
}

// NewClaims returns the claims of a token for subject valid for ttl from now.
func NewClaims(conf *core.Config, subject, name, role, class string, ttl time.Duration) *Claims {
	now := time.Now()
	if ttl <= 0 {
		ttl = conf.Server.JWTExpirationDelta
	}
	return &Claims{
		StandardClaims: jwt.StandardClaims{
			Issuer:    conf.AppName,
			Subject:   subject,
			Audience:  tokenAudience,
			ExpiresAt: now.Add(ttl).Unix(),
			IssuedAt:  now.Unix(),
		},
		Name:  name,
		Role:  role,
		Class: core.CollapseSpaces(class),
	}
}

// GenerateToken generates a signed JWT token string representing the Claims.
func GenerateToken(claims *Claims, secretKey string) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	ss, err := token.SignedString([]byte(secretKey))
	return ss, errors.Wrap(err, "signing token")
}

func newJWTConfig(secretKey string) middleware.JWTConfig {
	return middleware.JWTConfig{
		SigningKey:    []byte(secretKey),
		SigningMethod: middleware.AlgorithmHS256,
		ContextKey:    tokenContextKey,
		Claims:        new(Claims),
	}
}

func getContextClaims(ctx echo.Context) (Claims, error) {
	if token, ok := ctx.Get(tokenContextKey).(*jwt.Token); ok {
		if claims, ok := token.Claims.(*Claims); ok {
			return *claims, nil
		}
	}
	return Claims{}, middleware.ErrJWTMissing
}

// scopedClass returns the class a request may touch: any requested class (or all classes when
// empty) for a principal, the token's class for a teacher.
func scopedClass(ctx echo.Context, class string) (string, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return "", err
	}
	class = core.CollapseSpaces(class)
	if claims.IsPrincipal() {
		return class, nil
	}
	if class == "" || class == claims.Class {
		return claims.Class, nil
	}
	return "", errHttpForbidden
}
