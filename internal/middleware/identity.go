package middleware

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// Context keys set by JWTAuth.
const (
	KeyUserID     = "user_id"
	KeyRole       = "role"
	KeyEmployeeID = "employee_id"
)

// UserID returns the authenticated user's id, or false for anonymous
// requests.
func UserID(c echo.Context) (uint64, bool) {
	id, ok := c.Get(KeyUserID).(uint64)
	return id, ok && id != 0
}

// Role returns the authenticated user's role, or "" for anonymous requests.
func Role(c echo.Context) string {
	role, _ := c.Get(KeyRole).(string)
	return role
}

// currentUserID is the rate-limit identity: the user id, or "anon".
func currentUserID(c echo.Context) string {
	if id, ok := UserID(c); ok {
		return strconv.FormatUint(id, 10)
	}
	return "anon"
}
