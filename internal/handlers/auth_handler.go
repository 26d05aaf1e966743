package handlers

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"paybridge/internal/dto"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

var jwtSecret = func() []byte {
	if secret := os.Getenv("JWT_SECRET"); secret != "" {
		return []byte(secret)
	}
	return []byte("paybridge-jwt-secret-change-me")
}()

// AuthHandler issues session tokens against wallet signatures.
type AuthHandler struct{}

type AuthRequest = dto.AuthRequest
type AuthResponse = dto.AuthResponse
type JWTClaims = dto.JWTClaims

func NewAuthHandler() *AuthHandler {
	return &AuthHandler{}
}

// GenerateNonceHandler hands out a one-time message to sign.
func (h *AuthHandler) GenerateNonceHandler(c *gin.Context) {
	nonce := make([]byte, 16)
	if _, err := rand.Read(nonce); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"message": "Failed to generate nonce",
		})
		return
	}

	nonceStr := hex.EncodeToString(nonce)
	timestamp := time.Now().Unix()
	message := fmt.Sprintf("PayBridge Authentication\nNonce: %s\nTimestamp: %d", nonceStr, timestamp)

	c.JSON(http.StatusOK, gin.H{
		"success":   true,
		"nonce":     nonceStr,
		"message":   message,
		"timestamp": timestamp,
	})
}

// AuthenticateHandler verifies a personal_sign signature over the nonce
// message and returns a 24h session token.
func (h *AuthHandler) AuthenticateHandler(c *gin.Context) {
	var req AuthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, AuthResponse{
			Success: false,
			Message: fmt.Sprintf("Invalid request: %v", err),
		})
		return
	}

	if !h.validateSignature(req.UserAddress, req.Message, req.Signature) {
		c.JSON(http.StatusUnauthorized, AuthResponse{
			Success: false,
			Message: "Signature verification failed",
		})
		return
	}

	token, err := h.generateJWTToken(req.UserAddress, req.ChainID)
	if err != nil {
		log.Printf("❌ Failed to issue JWT: %v", err)
		c.JSON(http.StatusInternalServerError, AuthResponse{
			Success: false,
			Message: "Token generation failed",
		})
		return
	}

	log.Printf("✅ User authenticated: %s (chain %d)", req.UserAddress, req.ChainID)
	c.JSON(http.StatusOK, AuthResponse{
		Success: true,
		Token:   token,
		Message: "Authentication successful",
	})
}

// validateSignature recovers the signer of an EIP-191 personal_sign
// payload and compares it to the claimed address.
func (h *AuthHandler) validateSignature(userAddress, message, signature string) bool {
	sig, err := hexutil.Decode(signature)
	if err != nil || len(sig) != 65 {
		return false
	}

	// Wallets return V as 27/28; crypto.SigToPub expects 0/1.
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	hash := accounts.TextHash([]byte(message))
	pubKey, err := crypto.SigToPub(hash, sig)
	if err != nil {
		return false
	}

	recovered := crypto.PubkeyToAddress(*pubKey)
	return strings.EqualFold(recovered.Hex(), userAddress)
}

func (h *AuthHandler) generateJWTToken(userAddress string, chainID int64) (string, error) {
	claims := JWTClaims{
		UserAddress: userAddress,
		ChainID:     chainID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			NotBefore: jwt.NewNumericDate(time.Now()),
			Issuer:    "paybridge",
			Subject:   userAddress,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return tokenString, nil
}

// ValidateJWTToken verifies a user session token.
func ValidateJWTToken(tokenString string) (*JWTClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &JWTClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("token parsing failed: %w", err)
	}

	if claims, ok := token.Claims.(*JWTClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}
