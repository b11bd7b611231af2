// Command apitoken はAPIクライアント用の署名付きベアラートークンを発行します。
//
//	go run ./cmd/apitoken -client loom-station-1 -expiry 720h
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	jwtmw "fabric_backend/internal/platform/jwt"
)

func main() {
	client := flag.String("client", "", "client name stored in the sub claim")
	expiry := flag.Duration("expiry", 30*24*time.Hour, "token lifetime")
	flag.Parse()

	_ = godotenv.Load(".env")

	secret := os.Getenv(jwtmw.EnvKeyJWTSecret)
	if secret == "" {
		slog.Error("JWT_SECRET is not set")
		os.Exit(1)
	}
	if *expiry <= 0 {
		slog.Error("expiry must be positive", "expiry", *expiry)
		os.Exit(2)
	}

	token, err := jwtmw.NewGenerator(secret, *expiry).GenerateToken(*client)
	if err != nil {
		slog.Error("failed to generate token", "error", err)
		os.Exit(1)
	}
	fmt.Println(token)
}
