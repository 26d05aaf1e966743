package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/big"
	"sync"

	"paybridge/internal/config"
	"paybridge/internal/utils"

	ethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

// ChainClientService maintains one RPC client per configured network.
type ChainClientService struct {
	clients map[int64]*ethclient.Client
	mu      sync.RWMutex
}

// NewChainClientService creates an empty client pool; call
// InitializeClients before use.
func NewChainClientService() *ChainClientService {
	return &ChainClientService{
		clients: make(map[int64]*ethclient.Client),
	}
}

// InitializeClients dials every configured network, falling back through
// its endpoint list, and verifies the reported chain ID.
func (s *ChainClientService) InitializeClients(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, network := range config.AppConfig.Networks {
		endpoints := network.RPCEndpoints
		if len(endpoints) == 0 {
			if endpoint, err := utils.GlobalChainRegistry.GetRPCEndpoint(network.ChainID); err == nil {
				endpoints = []string{endpoint}
			}
		}

		var connected bool
		for _, endpoint := range endpoints {
			client, err := ethclient.DialContext(ctx, endpoint)
			if err != nil {
				log.Printf("⚠️ Failed to dial %s (%s): %v", network.Name, endpoint, err)
				continue
			}

			chainID, err := client.ChainID(ctx)
			if err != nil || chainID.Int64() != network.ChainID {
				log.Printf("⚠️ Chain ID mismatch on %s: want %d, got %v", endpoint, network.ChainID, chainID)
				client.Close()
				continue
			}

			s.clients[network.ChainID] = client
			log.Printf("✅ Connected to %s (chain %d) via %s", network.Name, network.ChainID, endpoint)
			connected = true
			break
		}
		if !connected {
			log.Printf("❌ No working RPC endpoint for %s (chain %d)", network.Name, network.ChainID)
		}
	}

	if len(s.clients) == 0 {
		return fmt.Errorf("no chain clients could be initialized")
	}
	return nil
}

// DialChain connects a chain on demand, falling back through the given
// endpoints. Used when a chain outside the static config is added at
// runtime.
func (s *ChainClientService) DialChain(ctx context.Context, chainID int64, endpoints []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.clients[chainID]; ok {
		return nil
	}

	for _, endpoint := range endpoints {
		client, err := ethclient.DialContext(ctx, endpoint)
		if err != nil {
			log.Printf("⚠️ Failed to dial chain %d (%s): %v", chainID, endpoint, err)
			continue
		}

		reported, err := client.ChainID(ctx)
		if err != nil || reported.Int64() != chainID {
			log.Printf("⚠️ Chain ID mismatch on %s: want %d, got %v", endpoint, chainID, reported)
			client.Close()
			continue
		}

		s.clients[chainID] = client
		log.Printf("✅ Connected to chain %d via %s", chainID, endpoint)
		return nil
	}
	return fmt.Errorf("no working RPC endpoint for chain %d", chainID)
}

// GetClient returns the RPC client for a chain.
func (s *ChainClientService) GetClient(chainID int64) (*ethclient.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	client, ok := s.clients[chainID]
	if !ok {
		return nil, fmt.Errorf("no client for chain %d", chainID)
	}
	return client, nil
}

// TransactionReceipt fetches the receipt for a hash, nil while pending.
func (s *ChainClientService) TransactionReceipt(ctx context.Context, chainID int64, txHash string) (*types.Receipt, error) {
	client, err := s.GetClient(chainID)
	if err != nil {
		return nil, err
	}

	receipt, err := client.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		// Not mined yet is not an error for pollers.
		if receiptPending(err) {
			return nil, nil
		}
		return nil, err
	}
	return receipt, nil
}

// receiptPending reports whether the RPC error means the transaction is
// not yet mined, surviving any wrapping the client layers add.
func receiptPending(err error) bool {
	return errors.Is(err, ethereum.NotFound)
}

// NativeBalance reads the account balance at the latest block.
func (s *ChainClientService) NativeBalance(ctx context.Context, chainID int64, account string) (*big.Int, error) {
	client, err := s.GetClient(chainID)
	if err != nil {
		return nil, err
	}
	return client.BalanceAt(ctx, common.HexToAddress(account), nil)
}

// CallContract performs a read-only contract call at the latest block.
func (s *ChainClientService) CallContract(ctx context.Context, chainID int64, to string, data []byte) ([]byte, error) {
	client, err := s.GetClient(chainID)
	if err != nil {
		return nil, err
	}

	toAddr := common.HexToAddress(to)
	return client.CallContract(ctx, ethereum.CallMsg{To: &toAddr, Data: data}, nil)
}

// Close closes every dialed client.
func (s *ChainClientService) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for chainID, client := range s.clients {
		client.Close()
		delete(s.clients, chainID)
	}
}
