package middleware

import (
	"strconv"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// UserID returns the authenticated user, or "" when JWTAuth did not run.
func UserID(c echo.Context) string {
	s, _ := c.Get(ContextUserID).(string)
	return s
}

// Email returns the email claim of the authenticated user, if any.
func Email(c echo.Context) string {
	s, _ := c.Get(ContextEmail).(string)
	return s
}

// claimString reads a claim that identity services emit either as a string
// or as a JSON number.
func claimString(claims jwt.MapClaims, key string) string {
	switch v := claims[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return ""
}

// rateSubject is the user part of a rate-limit key.
func rateSubject(c echo.Context) string {
	if uid := UserID(c); uid != "" {
		return uid
	}
	return "anon"
}
