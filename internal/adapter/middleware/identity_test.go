package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestRequireAccount(t *testing.T) {
	e := echo.New()
	e.POST("/x", func(c echo.Context) error {
		return c.String(http.StatusOK, AccountID(c))
	}, RequireAccount())

	cases := []struct {
		name     string
		account  string
		wantCode int
		wantBody string
	}{
		{"missing header", "", http.StatusBadRequest, ""},
		{"invalid characters", "ACCT!", http.StatusBadRequest, ""},
		{"valid", "acct-borrower", http.StatusOK, "acct-borrower"},
		{"valid with separator", "team:alice", http.StatusOK, "team:alice"},
		{"custody identity refused", "protocol:custody", http.StatusForbidden, ""},
		{"reserved namespace refused", "protocol:fees", http.StatusForbidden, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/x", nil)
			if tc.account != "" {
				req.Header.Set(HeaderAccountID, tc.account)
			}
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tc.wantCode {
				t.Fatalf("code = %d, want %d: %s", rec.Code, tc.wantCode, rec.Body.String())
			}
			if tc.wantBody != "" && rec.Body.String() != tc.wantBody {
				t.Fatalf("body = %q, want %q", rec.Body.String(), tc.wantBody)
			}
		})
	}
}

func TestAccountID_WithoutMiddleware(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, httptest.NewRecorder())
	if got := AccountID(c); got != "" {
		t.Fatalf("AccountID = %q, want empty", got)
	}
}
