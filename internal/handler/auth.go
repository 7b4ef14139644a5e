package handler

import (
    "context"
    "database/sql"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"

    "github.com/iliyamo/bookstore-orders/internal/config"
    "github.com/iliyamo/bookstore-orders/internal/repository"
    "github.com/iliyamo/bookstore-orders/internal/utils"
)

// AuthHandler bundles dependencies for auth endpoints.  Customers
// self-register; staff accounts are provisioned out of band (the
// bootstrap admin, then admin-created accounts), so login is the only
// staff-facing auth operation.
//
// Refresh tokens are opaque random strings held in Redis under a TTL
// matching their lifetime, so a restart of the store does not log
// everyone out but flushing Redis does.
type AuthHandler struct {
    Cfg       config.Config
    Customers *repository.CustomerRepo
    Staff     *repository.StaffRepo
    Sessions  *redis.Client
}

func NewAuthHandler(cfg config.Config, customers *repository.CustomerRepo, staff *repository.StaffRepo, sessions *redis.Client) *AuthHandler {
    if customers == nil || staff == nil {
        panic("nil repository passed to NewAuthHandler")
    }
    return &AuthHandler{Cfg: cfg, Customers: customers, Staff: staff, Sessions: sessions}
}

// ----- DTOs -----

type registerReq struct {
    Name     string `json:"name"`
    Email    string `json:"email"`
    Password string `json:"password"`
    Phone    string `json:"phone"`
    Address  string `json:"address"`
}
type loginReq struct {
    Email    string `json:"email"`
    Password string `json:"password"`
}
type refreshReq struct {
    RefreshToken string `json:"refresh_token"`
}

type tokenPart struct {
    Token   string    `json:"token"`
    Expires time.Time `json:"expires"`
}
type accountPart struct {
    ID    uint64 `json:"id"`
    Name  string `json:"name"`
    Email string `json:"email"`
    Role  string `json:"role"`
}
type authResp struct {
    Account accountPart `json:"account"`
    Access  tokenPart   `json:"access"`
    Refresh tokenPart   `json:"refresh"`
}

func refreshKey(raw string) string { return "refresh:" + raw }

// issueTokens signs an access token and stores a fresh refresh token in
// Redis keyed by its raw value, with the account encoded as "ROLE:id".
func (h *AuthHandler) issueTokens(ctx context.Context, id uint64, role string) (utils.AccessToken, utils.RefreshToken, error) {
    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, id, role, h.Cfg.AccessTTLMin)
    if err != nil {
        return utils.AccessToken{}, utils.RefreshToken{}, err
    }
    refresh, err := utils.NewRefreshToken(h.Cfg.RefreshTTLDays)
    if err != nil {
        return utils.AccessToken{}, utils.RefreshToken{}, err
    }
    if h.Sessions != nil {
        val := role + ":" + strconv.FormatUint(id, 10)
        ttl := time.Until(refresh.Exp)
        if err := h.Sessions.Set(ctx, refreshKey(refresh.Raw), val, ttl).Err(); err != nil {
            return utils.AccessToken{}, utils.RefreshToken{}, err
        }
    }
    return access, refresh, nil
}

// Register: create a customer account and return tokens immediately.
func (h *AuthHandler) Register(c echo.Context) error {
    var req registerReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    req.Name = strings.TrimSpace(req.Name)
    if req.Name == "" || req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "name/email/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    uid, err := h.Customers.Create(ctx, req.Name, req.Email, req.Password, req.Phone, req.Address, h.Cfg.BcryptCost)
    if err != nil {
        if err == repository.ErrEmailExists {
            return c.JSON(http.StatusConflict, echo.Map{"error": "email already exists"})
        }
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create account failed"})
    }

    access, refresh, err := h.issueTokens(ctx, uid, "CUSTOMER")
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
    }
    return c.JSON(http.StatusCreated, authResp{
        Account: accountPart{ID: uid, Name: req.Name, Email: req.Email, Role: "CUSTOMER"},
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
    })
}

// Login: verify credentials and return a token pair.  The email is
// looked up among customers first, then staff, so the same endpoint
// serves both populations.
func (h *AuthHandler) Login(c echo.Context) error {
    var req loginReq
    if err := c.Bind(&req); err != nil {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
    }
    req.Email = strings.ToLower(strings.TrimSpace(req.Email))
    if req.Email == "" || req.Password == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "email/password required"})
    }

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    var (
        id     uint64
        name   string
        role   string
        hash   string
        active bool
    )
    cust, err := h.Customers.GetByEmail(ctx, req.Email)
    switch {
    case err == nil:
        id, name, role, hash, active = cust.ID, cust.Name, "CUSTOMER", cust.PasswordHash, cust.Active
    case err == sql.ErrNoRows:
        st, serr := h.Staff.GetByEmail(ctx, req.Email)
        if serr == sql.ErrNoRows {
            return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
        }
        if serr != nil {
            return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
        }
        id, name, role, hash, active = st.ID, st.Name, st.Role, st.PasswordHash, st.Active
    default:
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
    }

    if !active || !utils.VerifyPassword(hash, req.Password) {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
    }

    access, refresh, err := h.issueTokens(ctx, id, role)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue tokens failed"})
    }
    return c.JSON(http.StatusOK, authResp{
        Account: accountPart{ID: id, Name: name, Email: req.Email, Role: role},
        Access:  tokenPart{Token: access.Token, Expires: access.Exp},
        Refresh: tokenPart{Token: refresh.Raw, Expires: refresh.Exp},
    })
}

// Refresh: exchange a stored refresh token for a fresh access token.
// The refresh token itself is not rotated.
func (h *AuthHandler) Refresh(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    if h.Sessions == nil {
        return c.JSON(http.StatusServiceUnavailable, echo.Map{"error": "sessions unavailable"})
    }
    raw := strings.TrimSpace(req.RefreshToken)

    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()

    val, err := h.Sessions.Get(ctx, refreshKey(raw)).Result()
    if err == redis.Nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "session lookup failed"})
    }
    role, idStr, ok := strings.Cut(val, ":")
    if !ok {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }
    id, err := strconv.ParseUint(idStr, 10, 64)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid refresh"})
    }

    access, err := utils.NewAccessToken(h.Cfg.JWTSecret, id, role, h.Cfg.AccessTTLMin)
    if err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "issue access failed"})
    }
    return c.JSON(http.StatusOK, echo.Map{
        "access": tokenPart{Token: access.Token, Expires: access.Exp},
    })
}

// Logout: delete the presented refresh token so it can no longer mint
// access tokens.  Idempotent.
func (h *AuthHandler) Logout(c echo.Context) error {
    var req refreshReq
    if err := c.Bind(&req); err != nil || strings.TrimSpace(req.RefreshToken) == "" {
        return c.JSON(http.StatusBadRequest, echo.Map{"error": "refresh_token required"})
    }
    if h.Sessions == nil {
        return c.NoContent(http.StatusNoContent)
    }
    ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
    defer cancel()
    if err := h.Sessions.Del(ctx, refreshKey(strings.TrimSpace(req.RefreshToken))).Err(); err != nil {
        return c.JSON(http.StatusInternalServerError, echo.Map{"error": "logout failed"})
    }
    return c.NoContent(http.StatusNoContent)
}

// Me: simple protected endpoint.
func (h *AuthHandler) Me(c echo.Context) error {
    return c.JSON(http.StatusOK, echo.Map{
        "user_id": c.Get("user_id"),
        "role":    c.Get("role"),
    })
}
