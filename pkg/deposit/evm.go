package deposit

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"anonswap/config"
)

const erc20ABI = `[
{"constant":false,"inputs":[{"name":"_to","type":"address"},{"name":"_value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"},
{"constant":true,"inputs":[{"name":"_owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"balance","type":"uint256"}],"type":"function"},
{"constant":true,"inputs":[],"name":"decimals","outputs":[{"name":"","type":"uint8"}],"type":"function"}
]`

const (
	nativeTransferGas = uint64(21000)
	erc20TransferGas  = uint64(100000)
)

var parsedERC20 = mustParseABI(erc20ABI)

func mustParseABI(def string) abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(def))
	if err != nil {
		panic(err)
	}
	return parsed
}

// EVMDepositor handles deposits on EVM-compatible blockchains
type EVMDepositor struct {
	chainID    string
	network    config.EVMNetwork
	client     *ethclient.Client
	privateKey *ecdsa.PrivateKey
	from       common.Address
}

// NewEVMDepositor connects to the network's RPC endpoint
func NewEVMDepositor(ctx context.Context, chainID string, network config.EVMNetwork) (*EVMDepositor, error) {
	if network.RPCUrl == "" {
		return nil, fmt.Errorf("RPC URL not configured for network %s", chainID)
	}
	if network.PrivateKey == "" {
		return nil, fmt.Errorf("private key not configured for network %s", chainID)
	}

	privateKey, err := crypto.HexToECDSA(strings.TrimPrefix(network.PrivateKey, "0x"))
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	client, err := ethclient.DialContext(ctx, network.RPCUrl)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RPC endpoint: %w", err)
	}

	if network.ChainID == 0 {
		id, err := client.ChainID(ctx)
		if err != nil {
			client.Close()
			return nil, fmt.Errorf("failed to get chain id: %w", err)
		}
		network.ChainID = id.Int64()
	}

	return &EVMDepositor{
		chainID:    chainID,
		network:    network,
		client:     client,
		privateKey: privateKey,
		from:       crypto.PubkeyToAddress(privateKey.PublicKey),
	}, nil
}

// SendDeposit signs and broadcasts t, returning the transaction hash
func (e *EVMDepositor) SendDeposit(ctx context.Context, t Transfer) (string, error) {
	if !common.IsHexAddress(t.To) {
		return "", fmt.Errorf("invalid recipient address: %s", t.To)
	}

	nonce, err := e.client.PendingNonceAt(ctx, e.from)
	if err != nil {
		return "", fmt.Errorf("failed to get nonce: %w", err)
	}

	gasPrice, err := e.client.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to get gas price: %w", err)
	}

	var tx *types.Transaction
	if t.TokenContract == "" {
		tx, err = e.nativeTransfer(ctx, common.HexToAddress(t.To), t.Amount, nonce, gasPrice)
	} else {
		tx, err = e.erc20Transfer(ctx, common.HexToAddress(t.To), t.TokenContract, t.Amount, nonce, gasPrice)
	}
	if err != nil {
		return "", err
	}

	signed, err := types.SignTx(tx, types.NewEIP155Signer(big.NewInt(e.network.ChainID)), e.privateKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign transaction: %w", err)
	}

	if err := e.client.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("failed to send transaction: %w", err)
	}

	return signed.Hash().Hex(), nil
}

func (e *EVMDepositor) nativeTransfer(ctx context.Context, to common.Address, amount string, nonce uint64, gasPrice *big.Int) (*types.Transaction, error) {
	value, err := toBaseUnits(amount, 18)
	if err != nil {
		return nil, err
	}

	gasLimit := nativeTransferGas
	if e.network.GasLimit != 0 {
		gasLimit = e.network.GasLimit
	}

	balance, err := e.client.BalanceAt(ctx, e.from, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}
	need := new(big.Int).Add(value, new(big.Int).Mul(gasPrice, new(big.Int).SetUint64(gasLimit)))
	if balance.Cmp(need) < 0 {
		return nil, fmt.Errorf("insufficient balance: have %s wei, need %s wei", balance, need)
	}

	return types.NewTransaction(nonce, to, value, gasLimit, gasPrice, nil), nil
}

func (e *EVMDepositor) erc20Transfer(ctx context.Context, to common.Address, contract, amount string, nonce uint64, gasPrice *big.Int) (*types.Transaction, error) {
	if !common.IsHexAddress(contract) {
		return nil, fmt.Errorf("invalid token contract address: %s", contract)
	}
	token := common.HexToAddress(contract)

	decimals, err := e.tokenDecimals(ctx, token)
	if err != nil {
		return nil, err
	}
	value, err := toBaseUnits(amount, int32(decimals))
	if err != nil {
		return nil, err
	}

	balance, err := e.tokenBalance(ctx, token)
	if err != nil {
		return nil, err
	}
	if balance.Cmp(value) < 0 {
		return nil, fmt.Errorf("insufficient token balance: have %s, need %s", balance, value)
	}

	data, err := parsedERC20.Pack("transfer", to, value)
	if err != nil {
		return nil, fmt.Errorf("failed to pack transfer data: %w", err)
	}

	gasLimit := e.network.GasLimit
	if gasLimit == 0 {
		gasLimit = erc20TransferGas
		estimated, err := e.client.EstimateGas(ctx, ethereum.CallMsg{From: e.from, To: &token, Data: data})
		if err == nil {
			gasLimit = estimated * 120 / 100
		}
	}

	return types.NewTransaction(nonce, token, big.NewInt(0), gasLimit, gasPrice, data), nil
}

func (e *EVMDepositor) call(ctx context.Context, token common.Address, method string, args ...interface{}) ([]interface{}, error) {
	data, err := parsedERC20.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to pack %s: %w", method, err)
	}

	result, err := e.client.CallContract(ctx, ethereum.CallMsg{To: &token, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to call %s: %w", method, err)
	}

	out, err := parsedERC20.Unpack(method, result)
	if err != nil || len(out) == 0 {
		return nil, fmt.Errorf("failed to decode %s result", method)
	}
	return out, nil
}

func (e *EVMDepositor) tokenDecimals(ctx context.Context, token common.Address) (uint8, error) {
	out, err := e.call(ctx, token, "decimals")
	if err != nil {
		return 0, err
	}
	decimals, ok := out[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("unexpected decimals type %T", out[0])
	}
	return decimals, nil
}

func (e *EVMDepositor) tokenBalance(ctx context.Context, token common.Address) (*big.Int, error) {
	out, err := e.call(ctx, token, "balanceOf", e.from)
	if err != nil {
		return nil, err
	}
	balance, ok := out[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("unexpected balance type %T", out[0])
	}
	return balance, nil
}

// Close closes the client connection
func (e *EVMDepositor) Close() {
	if e.client != nil {
		e.client.Close()
	}
}
