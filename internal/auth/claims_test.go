package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret-key-for-jwt-signing"

func TestGenerateAndParseAccessToken(t *testing.T) {
	token, err := GenerateAccessToken("dashboard", RoleOperator, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}

	if claims.Subject != "dashboard" {
		t.Errorf("Subject = %q, want %q", claims.Subject, "dashboard")
	}
	if claims.Role != RoleOperator {
		t.Errorf("Role = %q, want %q", claims.Role, RoleOperator)
	}
	if claims.Issuer != Issuer {
		t.Errorf("Issuer = %q, want %q", claims.Issuer, Issuer)
	}
	if claims.ID == "" {
		t.Error("JTI (ID) should not be empty")
	}
}

func TestGenerateAccessToken_DefaultTTL(t *testing.T) {
	token, err := GenerateAccessToken("dashboard", RoleViewer, testSecret, 0)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}
	claims, err := ParseToken(token, testSecret)
	if err != nil {
		t.Fatalf("ParseToken() error = %v", err)
	}

	diff := claims.ExpiresAt.Time.Sub(time.Now().Add(defaultTTL))
	if diff < -time.Minute || diff > time.Minute {
		t.Errorf("default TTL off by %v", diff)
	}
}

func TestGenerateAccessToken_Rejects(t *testing.T) {
	if _, err := GenerateAccessToken("x", RoleViewer, "", time.Hour); !errors.Is(err, ErrEmptySecret) {
		t.Errorf("empty secret error = %v, want ErrEmptySecret", err)
	}
	if _, err := GenerateAccessToken("x", Role("admin"), testSecret, time.Hour); !errors.Is(err, ErrUnknownRole) {
		t.Errorf("unknown role error = %v, want ErrUnknownRole", err)
	}
}

// signRaw signs arbitrary claims so tests can build tokens the generator
// refuses to produce.
func signRaw(t *testing.T, method jwt.SigningMethod, claims jwt.Claims, key any) string {
	t.Helper()
	s, err := jwt.NewWithClaims(method, claims).SignedString(key)
	if err != nil {
		t.Fatalf("SignedString() error = %v", err)
	}
	return s
}

func TestParseToken_Invalid(t *testing.T) {
	valid, err := GenerateAccessToken("dashboard", RoleViewer, testSecret, time.Hour)
	if err != nil {
		t.Fatalf("GenerateAccessToken() error = %v", err)
	}

	now := time.Now()
	base := func() Claims {
		return Claims{
			RegisteredClaims: jwt.RegisteredClaims{
				Issuer:    Issuer,
				Subject:   "dashboard",
				ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
			},
			Role: RoleViewer,
		}
	}

	expired := base()
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
	wrongIssuer := base()
	wrongIssuer.Issuer = "someone-else"
	noSubject := base()
	noSubject.Subject = ""
	badRole := base()
	badRole.Role = "admin"
	noExpiry := base()
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name   string
		token  string
		secret string
	}{
		{"empty", "", testSecret},
		{"garbage", "not-a-valid-jwt", testSecret},
		{"two segments", "abc.def", testSecret},
		{"wrong secret", valid, "wrong-secret"},
		{"expired", signRaw(t, jwt.SigningMethodHS256, expired, []byte(testSecret)), testSecret},
		{"wrong issuer", signRaw(t, jwt.SigningMethodHS256, wrongIssuer, []byte(testSecret)), testSecret},
		{"missing subject", signRaw(t, jwt.SigningMethodHS256, noSubject, []byte(testSecret)), testSecret},
		{"unknown role", signRaw(t, jwt.SigningMethodHS256, badRole, []byte(testSecret)), testSecret},
		{"missing expiry", signRaw(t, jwt.SigningMethodHS256, noExpiry, []byte(testSecret)), testSecret},
		{"HS512", signRaw(t, jwt.SigningMethodHS512, base(), []byte(testSecret)), testSecret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseToken(tt.token, tt.secret)
			if !errors.Is(err, ErrTokenInvalid) {
				t.Errorf("ParseToken() error = %v, want ErrTokenInvalid", err)
			}
		})
	}
}
