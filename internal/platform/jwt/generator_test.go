package jwtmw

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func parseTestToken(t *testing.T, tokenStr string) jwt.MapClaims {
	t.Helper()

	token, err := jwt.Parse(tokenStr, func(tok *jwt.Token) (interface{}, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			t.Errorf("unexpected signing method: %v", tok.Header["alg"])
		}
		return []byte("test-secret"), nil
	})
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	if !token.Valid {
		t.Fatal("expected token to be valid")
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatal("expected MapClaims")
	}
	return claims
}

// TestNewGenerator は各種設定でGeneratorが正しく生成されることを検証します。
func TestNewGenerator(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		secret     string
		expiration time.Duration
	}{
		{"standard config", "my-secret-key", time.Hour},
		{"long expiration", "secret", 24 * time.Hour * 365},
		{"short expiration", "s", time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := NewGenerator(tt.secret, tt.expiration)

			if gen == nil {
				t.Fatal("expected generator to be non-nil")
			}
			if string(gen.secret) != tt.secret {
				t.Errorf("expected secret %q, got %q", tt.secret, string(gen.secret))
			}
			if gen.expiration != tt.expiration {
				t.Errorf("expected expiration %v, got %v", tt.expiration, gen.expiration)
			}
		})
	}
}

// TestGenerator_GenerateToken は生成されたJWTトークンが有効で正しいクレームを含むことを検証します。
func TestGenerator_GenerateToken(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		client string
	}{
		{"loom station", "loom-station-1"},
		{"dashboard", "qa-dashboard"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gen := NewGenerator("test-secret", time.Hour)
			tokenStr, err := gen.GenerateToken(tt.client)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}

			claims := parseTestToken(t, tokenStr)
			if sub, ok := claims["sub"].(string); !ok || sub != tt.client {
				t.Errorf("expected sub %q, got %v", tt.client, claims["sub"])
			}
			if _, ok := claims["exp"]; !ok {
				t.Error("expected exp claim to be set")
			}
			if _, ok := claims["iat"]; !ok {
				t.Error("expected iat claim to be set")
			}
		})
	}
}

// TestGenerator_GenerateToken_EmptyClient はクライアント名が空の場合にエラーになることを検証します。
func TestGenerator_GenerateToken_EmptyClient(t *testing.T) {
	t.Parallel()

	if _, err := NewGenerator("test-secret", time.Hour).GenerateToken(""); err == nil {
		t.Fatal("expected error for empty client name")
	}
}

// TestGenerator_GenerateToken_Expiration はトークンのexp・iatクレームが固定時刻から計算されることを検証します。
func TestGenerator_GenerateToken_Expiration(t *testing.T) {
	t.Parallel()

	fixed := time.Now().Truncate(time.Second)
	gen := NewGenerator("test-secret", 2*time.Hour)
	gen.now = func() time.Time { return fixed }

	tokenStr, err := gen.GenerateToken("loom-station-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	claims := parseTestToken(t, tokenStr)
	if exp := int64(claims["exp"].(float64)); exp != fixed.Add(2*time.Hour).Unix() {
		t.Errorf("expected exp %d, got %d", fixed.Add(2*time.Hour).Unix(), exp)
	}
	if iat := int64(claims["iat"].(float64)); iat != fixed.Unix() {
		t.Errorf("expected iat %d, got %d", fixed.Unix(), iat)
	}
}

// TestGenerator_GenerateToken_DifferentClientsProduceDifferentTokens は異なるクライアントに対して異なるトークンが生成されることを検証します。
func TestGenerator_GenerateToken_DifferentClientsProduceDifferentTokens(t *testing.T) {
	t.Parallel()

	gen := NewGenerator("test-secret", time.Hour)

	token1, _ := gen.GenerateToken("station-a")
	token2, _ := gen.GenerateToken("station-b")

	if token1 == token2 {
		t.Error("expected different tokens for different clients")
	}
}
