package services

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"log"
	"math/big"
	"os"
	"strings"
	"sync"

	"paybridge/internal/models"
	"paybridge/internal/utils"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
)

// LocalWallet signs and submits transactions with a server-held key.
// It implements the wallet provider contract the executor drives, with
// chain switching mapped onto the shared RPC client pool.
type LocalWallet struct {
	privateKey *ecdsa.PrivateKey
	address    common.Address
	chains     *ChainClientService

	mu            sync.Mutex
	activeChainID int64
	extraChains   map[int64]models.AddChainParams
}

// NewLocalWallet builds a wallet from a hex-encoded private key.
func NewLocalWallet(privateKeyHex string, chains *ChainClientService) (*LocalWallet, error) {
	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &LocalWallet{
		privateKey:  key,
		address:     crypto.PubkeyToAddress(key.PublicKey),
		chains:      chains,
		extraChains: make(map[int64]models.AddChainParams),
	}, nil
}

func (w *LocalWallet) Address() string {
	return w.address.Hex()
}

func (w *LocalWallet) ChainID(ctx context.Context) (int64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.activeChainID, nil
}

// SwitchChain activates chainID. An unregistered chain reports the
// wallet-standard unknown-chain error so callers fall back to AddChain.
func (w *LocalWallet) SwitchChain(ctx context.Context, chainID int64) error {
	if _, err := w.chains.GetClient(chainID); err != nil {
		w.mu.Lock()
		_, added := w.extraChains[chainID]
		w.mu.Unlock()
		if !added {
			return &models.WalletRPCError{
				Code:    models.WalletErrUnknownChain,
				Message: fmt.Sprintf("unrecognized chain ID %d", chainID),
			}
		}
	}

	w.mu.Lock()
	w.activeChainID = chainID
	w.mu.Unlock()
	return nil
}

// AddChain registers a chain definition and dials its RPC endpoint.
func (w *LocalWallet) AddChain(ctx context.Context, params models.AddChainParams) error {
	if len(params.RPCURLs) == 0 {
		return fmt.Errorf("chain %d has no RPC endpoints", params.ChainID)
	}
	if err := w.chains.DialChain(ctx, params.ChainID, params.RPCURLs); err != nil {
		return err
	}

	w.mu.Lock()
	w.extraChains[params.ChainID] = params
	w.mu.Unlock()
	log.Printf("🔗 Added chain %d (%s) to wallet", params.ChainID, params.Name)
	return nil
}

// SendTransaction signs req with EIP-155 on the active chain and
// broadcasts it.
func (w *LocalWallet) SendTransaction(ctx context.Context, req models.TxRequest) (string, error) {
	w.mu.Lock()
	chainID := w.activeChainID
	w.mu.Unlock()
	if chainID == 0 {
		return "", fmt.Errorf("no active chain; switch chains first")
	}

	client, err := w.chains.GetClient(chainID)
	if err != nil {
		return "", err
	}

	nonce, err := client.PendingNonceAt(ctx, w.address)
	if err != nil {
		return "", fmt.Errorf("failed to fetch nonce: %w", err)
	}

	gasPrice, err := client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to fetch gas price: %w", err)
	}

	to := common.HexToAddress(req.To)
	value := req.Value
	if value == nil {
		value = new(big.Int)
	}

	gasLimit := req.GasLimit
	if gasLimit == 0 {
		estimated, err := client.EstimateGas(ctx, ethereum.CallMsg{
			From:  w.address,
			To:    &to,
			Value: value,
			Data:  req.Data,
		})
		if err != nil {
			return "", fmt.Errorf("gas estimation failed: %w", err)
		}
		gasLimit = estimated + estimated/5
	}

	tx := types.NewTransaction(nonce, to, value, gasLimit, gasPrice, req.Data)
	signedTx, err := types.SignTx(tx, types.NewEIP155Signer(big.NewInt(chainID)), w.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := client.SendTransaction(ctx, signedTx); err != nil {
		return "", fmt.Errorf("failed to broadcast transaction: %w", err)
	}

	hash := signedTx.Hash().Hex()
	log.Printf("📤 Transaction submitted: chain=%d, hash=%s, nonce=%d", chainID, hash, nonce)
	return hash, nil
}

// LocalWalletConnector hands out the configured server wallet.
type LocalWalletConnector struct {
	wallet *LocalWallet
}

// NewLocalWalletConnector builds the connector from the WALLET_PRIVATE_KEY
// environment variable; nil wallet means connection attempts fail until
// a key is configured.
func NewLocalWalletConnector(chains *ChainClientService) *LocalWalletConnector {
	keyHex := os.Getenv("WALLET_PRIVATE_KEY")
	if keyHex == "" {
		log.Printf("⚠️ WALLET_PRIVATE_KEY not set; executor wallet unavailable")
		return &LocalWalletConnector{}
	}

	wallet, err := NewLocalWallet(keyHex, chains)
	if err != nil {
		log.Printf("❌ Failed to load wallet key: %v", err)
		return &LocalWalletConnector{}
	}

	log.Printf("🔐 Executor wallet loaded: %s", wallet.Address())
	return &LocalWalletConnector{wallet: wallet}
}

// Connect returns the server wallet.
func (c *LocalWalletConnector) Connect(ctx context.Context) (models.WalletProvider, error) {
	if c.wallet == nil {
		return nil, &models.WalletRPCError{
			Code:    models.WalletErrUserRejected,
			Message: "no wallet configured",
		}
	}
	return c.wallet, nil
}

// ChainParamsFromRegistry builds wallet add-chain parameters from the
// registry record.
func ChainParamsFromRegistry(chainID int64) (models.AddChainParams, bool) {
	info, ok := utils.GlobalChainRegistry.Get(chainID)
	if !ok {
		return models.AddChainParams{}, false
	}
	return models.AddChainParams{
		ChainID:        info.ChainID,
		Name:           info.Name,
		NativeCurrency: info.NativeCurrency,
		RPCURLs:        info.RPCEndpoints,
		ExplorerURL:    info.ExplorerURL,
	}, true
}
