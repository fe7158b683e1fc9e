package utils

import (
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"
)

// JwtKey signs and verifies tokens; loaded from the environment in main.
var JwtKey []byte

// Claims carried by every token issued here.
type Claims struct {
	Email string `json:"email"`
	Role  string `json:"role"`
	jwt.StandardClaims
}

// GenerateJWT issues an HS256 token for the account, valid for 24 hours.
func GenerateJWT(email, role string) (string, error) {
	claims := &Claims{
		Email: email,
		Role:  role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: time.Now().Add(24 * time.Hour).Unix(),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(JwtKey)
}

// Keyfunc releases the signing key to the parser only for HMAC tokens, so a
// token that names another algorithm (alg=none included) never verifies.
func Keyfunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return JwtKey, nil
}
