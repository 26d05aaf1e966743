package services

import (
	"errors"
	"fmt"
	"testing"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/stretchr/testify/assert"
)

func TestReceiptPending(t *testing.T) {
	assert.True(t, receiptPending(ethereum.NotFound))
	assert.True(t, receiptPending(fmt.Errorf("receipt lookup: %w", ethereum.NotFound)),
		"wrapped not-found must still read as pending")
	assert.False(t, receiptPending(errors.New("connection refused")))
	assert.False(t, receiptPending(nil))
}
