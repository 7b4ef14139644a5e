package handler

import (
    "testing"

    "github.com/stretchr/testify/require"
)

func TestStaffCreateReqValidate(t *testing.T) {
    tests := []struct {
        name    string
        req     staffCreateReq
        wantMsg string
    }{
        {"defaults role to STAFF", staffCreateReq{Name: "Ana", Email: "ana@x.io", Password: "secret1"}, ""},
        {"accepts admin role", staffCreateReq{Name: "Ana", Email: "ana@x.io", Password: "secret1", Role: "admin"}, ""},
        {"missing name", staffCreateReq{Email: "ana@x.io", Password: "secret1"}, "name/email/password required"},
        {"missing password", staffCreateReq{Name: "Ana", Email: "ana@x.io"}, "name/email/password required"},
        {"short password", staffCreateReq{Name: "Ana", Email: "ana@x.io", Password: "abc"}, "password must be at least 6 characters"},
        {"unknown role", staffCreateReq{Name: "Ana", Email: "ana@x.io", Password: "secret1", Role: "OWNER"}, "role must be ADMIN or STAFF"},
    }
    for _, tt := range tests {
        t.Run(tt.name, func(t *testing.T) {
            require.Equal(t, tt.wantMsg, tt.req.validate())
        })
    }
}

func TestStaffCreateReqNormalizes(t *testing.T) {
    req := staffCreateReq{Name: "  Ana ", Email: " Ana@X.io ", Password: "secret1", Role: "staff"}
    require.Empty(t, req.validate())
    require.Equal(t, "Ana", req.Name)
    require.Equal(t, "ana@x.io", req.Email)
    require.Equal(t, "STAFF", req.Role)
}

func TestCustomerCreateReqValidate(t *testing.T) {
    req := customerCreateReq{Name: " Walk In ", Email: " WALKIN@x.io", Password: "secret1"}
    require.Empty(t, req.validate())
    require.Equal(t, "Walk In", req.Name)
    require.Equal(t, "walkin@x.io", req.Email)

    require.Equal(t, "name/email/password required",
        (&customerCreateReq{Email: "a@b.c", Password: "secret1"}).validate())
    require.Equal(t, "password must be at least 6 characters",
        (&customerCreateReq{Name: "A", Email: "a@b.c", Password: "abc"}).validate())
}
