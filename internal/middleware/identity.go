package middleware

import (
    "strconv"

    "github.com/golang-jwt/jwt/v5"
    "github.com/labstack/echo/v4"
)

// userID pulls a stable client identifier out of the JWT that JWTAuth
// stored in context.  The subject claim is signed as a number and
// comes back from JSON decoding as float64, so both forms are
// accepted.  Unauthenticated requests identify as "guest" so the rate
// limiter can fall back to the remote address.
func userID(c echo.Context) string {
    u := c.Get("user")
    if u == nil {
        return "guest"
    }
    if tok, ok := u.(*jwt.Token); ok {
        if cl, ok := tok.Claims.(jwt.MapClaims); ok {
            switch v := cl["sub"].(type) {
            case string:
                if v != "" {
                    return v
                }
            case float64:
                return strconv.FormatUint(uint64(v), 10)
            }
        }
    }
    return "guest"
}
