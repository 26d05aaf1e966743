package utils

import (
	"fmt"
	"strings"
)

// NativeTokenAddress is the sentinel token address meaning the chain's
// native asset rather than an ERC-20 contract.
const NativeTokenAddress = "0xEeeeeEeeeEeEeeEeEeEeeEEEeeeeEeeeeeeeEEeE"

// IsNativeToken reports whether addr is the native-asset sentinel.
func IsNativeToken(addr string) bool {
	return strings.EqualFold(addr, NativeTokenAddress)
}

// ChainInfo is immutable reference data for one supported chain.
type ChainInfo struct {
	ChainID        int64    `json:"chain_id"`
	Name           string   `json:"name"`
	NativeCurrency string   `json:"native_currency"`
	NativeDecimals int      `json:"native_decimals"`
	RPCEndpoints   []string `json:"rpc_endpoints"`
	ExplorerURL    string   `json:"explorer_url"`
}

// ChainRegistry indexes supported chains by chain ID.
type ChainRegistry struct {
	byID map[int64]*ChainInfo
}

// GlobalChainRegistry holds every chain the service understands.
var GlobalChainRegistry *ChainRegistry

func init() {
	GlobalChainRegistry = &ChainRegistry{
		byID: make(map[int64]*ChainInfo),
	}

	chains := []*ChainInfo{
		{
			ChainID:        1,
			Name:           "Ethereum",
			NativeCurrency: "ETH",
			NativeDecimals: 18,
			RPCEndpoints:   []string{"https://eth.llamarpc.com", "https://rpc.ankr.com/eth"},
			ExplorerURL:    "https://etherscan.io",
		},
		{
			ChainID:        56,
			Name:           "BSC",
			NativeCurrency: "BNB",
			NativeDecimals: 18,
			RPCEndpoints:   []string{"https://bsc-dataseed1.binance.org", "https://bsc-dataseed2.binance.org"},
			ExplorerURL:    "https://bscscan.com",
		},
		{
			ChainID:        137,
			Name:           "Polygon",
			NativeCurrency: "MATIC",
			NativeDecimals: 18,
			RPCEndpoints:   []string{"https://polygon-rpc.com", "https://rpc.ankr.com/polygon"},
			ExplorerURL:    "https://polygonscan.com",
		},
		{
			ChainID:        42161,
			Name:           "Arbitrum",
			NativeCurrency: "ETH",
			NativeDecimals: 18,
			RPCEndpoints:   []string{"https://arb1.arbitrum.io/rpc", "https://rpc.ankr.com/arbitrum"},
			ExplorerURL:    "https://arbiscan.io",
		},
		{
			ChainID:        10,
			Name:           "Optimism",
			NativeCurrency: "ETH",
			NativeDecimals: 18,
			RPCEndpoints:   []string{"https://mainnet.optimism.io", "https://rpc.ankr.com/optimism"},
			ExplorerURL:    "https://optimistic.etherscan.io",
		},
		{
			ChainID:        8453,
			Name:           "Base",
			NativeCurrency: "ETH",
			NativeDecimals: 18,
			RPCEndpoints:   []string{"https://mainnet.base.org", "https://base.llamarpc.com"},
			ExplorerURL:    "https://basescan.org",
		},
		{
			ChainID:        43114,
			Name:           "Avalanche",
			NativeCurrency: "AVAX",
			NativeDecimals: 18,
			RPCEndpoints:   []string{"https://api.avax.network/ext/bc/C/rpc"},
			ExplorerURL:    "https://snowtrace.io",
		},
	}

	for _, chain := range chains {
		GlobalChainRegistry.byID[chain.ChainID] = chain
	}
}

// Get returns the chain record for a chain ID.
func (r *ChainRegistry) Get(chainID int64) (*ChainInfo, bool) {
	info, ok := r.byID[chainID]
	return info, ok
}

// GetRPCEndpoint returns the primary RPC endpoint for a chain.
func (r *ChainRegistry) GetRPCEndpoint(chainID int64) (string, error) {
	info, ok := r.Get(chainID)
	if !ok || len(info.RPCEndpoints) == 0 {
		return "", fmt.Errorf("no RPC endpoint for chain: %d", chainID)
	}
	return info.RPCEndpoints[0], nil
}

// GetAllChains returns every registered chain.
func (r *ChainRegistry) GetAllChains() []*ChainInfo {
	chains := make([]*ChainInfo, 0, len(r.byID))
	for _, chain := range r.byID {
		chains = append(chains, chain)
	}
	return chains
}

// IsSupported reports whether the chain is known to the registry.
func (r *ChainRegistry) IsSupported(chainID int64) bool {
	_, ok := r.Get(chainID)
	return ok
}
