package utils

import (
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/labstack/echo/v4"
)

// CreateJWTToken issues a token shaped like the identity provider's session tokens. It is
// used by tests and local tooling; production tokens come from the provider.
func CreateJWTToken(userID string, userName string, jwtSecretKey string) (string, error) {
	claims := jwt.MapClaims{}
	claims["sub"] = userID
	claims["name"] = userName
	claims["exp"] = time.Now().Add(time.Hour * 24).Unix()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecretKey))
}

// ExtractTokenUser returns the buyer id and name from the token the JWT middleware stored.
func ExtractTokenUser(c echo.Context) (string, string) {
	user, ok := c.Get("user").(*jwt.Token)
	if !ok || !user.Valid {
		return "", ""
	}

	claims, ok := user.Claims.(jwt.MapClaims)
	if !ok {
		return "", ""
	}

	userID, _ := claims["sub"].(string)
	name, _ := claims["name"].(string)
	return userID, name
}
