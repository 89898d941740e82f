package chain

import (
	"context"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"
)

// BalanceChecker answers whether a wallet holds any balance of a token
// contract. The chain is treated as a trusted oracle, call failures
// propagate to the caller without retries.
type BalanceChecker interface {
	TokenBalance(ctx context.Context, contractAddress, walletAddress string) (*big.Int, error)
}

// RpcBalanceChecker performs an ERC-20 balanceOf eth_call against a JSON-RPC
// endpoint.
type RpcBalanceChecker struct {
	client *ethclient.Client
}

func NewRpcBalanceChecker(rpcUrl string) (*RpcBalanceChecker, error) {
	client, err := ethclient.Dial(rpcUrl)
	if err != nil {
		return nil, err
	}
	return &RpcBalanceChecker{client: client}, nil
}

// balanceOf(address)
var balanceOfSelector = crypto.Keccak256([]byte("balanceOf(address)"))[:4]

func (c *RpcBalanceChecker) TokenBalance(ctx context.Context, contractAddress, walletAddress string) (*big.Int, error) {
	contract := common.HexToAddress(contractAddress)
	wallet := common.HexToAddress(walletAddress)
	data := make([]byte, 0, 36)
	data = append(data, balanceOfSelector...)
	data = append(data, common.LeftPadBytes(wallet.Bytes(), 32)...)
	res, err := c.client.CallContract(ctx, ethereum.CallMsg{To: &contract, Data: data}, nil)
	if err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(res), nil
}

func (c *RpcBalanceChecker) Close() {
	c.client.Close()
}
