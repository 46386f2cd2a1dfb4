package auth

import (
	"context"
	"strings"
	"testing"
	"time"
)

const testSecret = "0123456789abcdef-secret"

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"disabled", Config{}, false},
		{"valid", Config{Secret: testSecret}, false},
		{"short secret", Config{Secret: "short"}, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.cfg.ApplyDefaults()
			if err := tc.cfg.Validate(); (err != nil) != tc.wantErr {
				t.Errorf("expected error=%v, got %v", tc.wantErr, err)
			}
		})
	}
}

func TestNewServiceRequiresSecret(t *testing.T) {
	if _, err := NewService(Config{}); err == nil {
		t.Error("expected error without secret")
	}
}

func TestIssueAndParse(t *testing.T) {
	svc, err := NewService(Config{Secret: testSecret})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	token, err := svc.Issue("ci-bot", ScopeRead)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected compact JWT, got %q", token)
	}

	claims, err := svc.Parse(token)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Subject != "ci-bot" || claims.Issuer != "podscribe" {
		t.Errorf("unexpected claims %+v", claims)
	}
	if claims.CanWrite() {
		t.Error("read scope must not allow writes")
	}
}

func TestParseRejects(t *testing.T) {
	svc, _ := NewService(Config{Secret: testSecret})
	other, _ := NewService(Config{Secret: "another-secret-value!"})
	foreign, _ := NewService(Config{Secret: testSecret, Issuer: "someone-else"})

	fromOther, _ := other.Issue("x", "")
	fromForeign, _ := foreign.Issue("x", "")

	expiring, _ := NewService(Config{Secret: testSecret, TokenTTL: time.Minute})
	expiring.now = func() time.Time { return time.Now().Add(-time.Hour) }
	expired, _ := expiring.Issue("x", "")

	tests := []struct {
		name    string
		token   string
		expired bool
	}{
		{"garbage", "not-a-token", false},
		{"wrong secret", fromOther, false},
		{"wrong issuer", fromForeign, false},
		{"expired", expired, true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Parse(tc.token)
			if err == nil {
				t.Fatal("expected error")
			}
			if IsExpired(err) != tc.expired {
				t.Errorf("expected expired=%v, got %v", tc.expired, err)
			}
		})
	}
}

func TestClaimsContext(t *testing.T) {
	if _, ok := ClaimsFromContext(context.Background()); ok {
		t.Error("expected no claims")
	}
	ctx := WithClaims(context.Background(), &Claims{Scope: ScopeWrite})
	c, ok := ClaimsFromContext(ctx)
	if !ok || !c.CanWrite() {
		t.Errorf("expected write claims, got %+v", c)
	}
}
