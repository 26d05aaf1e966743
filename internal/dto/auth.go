package dto

import "github.com/golang-jwt/jwt/v5"

// ==================== Auth DTOs ====================

// AuthRequest carries a wallet-signature login.
type AuthRequest struct {
	UserAddress string `json:"user_address" binding:"required"` // wallet address
	Message     string `json:"message" binding:"required"`      // signed message (from /auth/nonce)
	Signature   string `json:"signature" binding:"required"`    // personal_sign signature
	ChainID     int64  `json:"chain_id" binding:"required"`     // EVM chain ID the wallet is on
}

// AuthResponse is the login result.
type AuthResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
	Message string `json:"message"`
}

// JWTClaims are the session claims embedded in user tokens.
type JWTClaims struct {
	UserAddress string `json:"user_address"`
	ChainID     int64  `json:"chain_id"`
	jwt.RegisteredClaims
}
