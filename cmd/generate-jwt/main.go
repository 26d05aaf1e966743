package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// JWTClaims mirrors the session claims issued by the auth handler.
type JWTClaims struct {
	UserAddress string `json:"user_address"`
	ChainID     int64  `json:"chain_id"`
	jwt.RegisteredClaims
}

// Generates a test session token for exercising authenticated endpoints.
func main() {
	userAddress := flag.String("address", "0x742d35Cc6634C0532925a3b0F26750C66d78EB66", "wallet address for the token subject")
	chainID := flag.Int64("chain", 1, "chain ID claim")
	ttl := flag.Duration("ttl", 24*time.Hour, "token lifetime")
	flag.Parse()

	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		secret = "paybridge-jwt-secret-change-me"
	}

	now := time.Now()
	claims := JWTClaims{
		UserAddress: *userAddress,
		ChainID:     *chainID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(*ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    "paybridge",
			Subject:   *userAddress,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(secret))
	if err != nil {
		fmt.Printf("Error generating token: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("============================================================")
	fmt.Println("JWT Token Generated for Testing")
	fmt.Println("============================================================")
	fmt.Println()
	fmt.Println(tokenString)
	fmt.Println()
	fmt.Printf("  User Address: %s\n", *userAddress)
	fmt.Printf("  Chain ID: %d\n", *chainID)
	fmt.Printf("  Expires: %s\n", claims.ExpiresAt.Time)
	fmt.Println()
	fmt.Printf("curl -H \"Authorization: Bearer %s\" http://localhost:8080/api/v1/executions/<id>\n", tokenString)
}
