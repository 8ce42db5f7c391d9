package deposit

import (
	"context"
	"fmt"
	"math/big"
	"strconv"

	"github.com/gagliardetto/solana-go"
	associatedtokenaccount "github.com/gagliardetto/solana-go/programs/associated-token-account"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"

	"anonswap/config"
)

const (
	lamportDecimals = 9
	signatureFee    = 5000
)

// SolanaDepositor handles deposits on Solana
type SolanaDepositor struct {
	client     *rpc.Client
	privateKey solana.PrivateKey
	publicKey  solana.PublicKey
}

// NewSolanaDepositor creates a new Solana depositor
func NewSolanaDepositor(cfg config.SolanaConfig) (*SolanaDepositor, error) {
	if cfg.RPCUrl == "" {
		return nil, fmt.Errorf("RPC URL not configured for Solana")
	}
	if cfg.PrivateKey == "" {
		return nil, fmt.Errorf("private key not configured for Solana")
	}

	privateKey, err := solana.PrivateKeyFromBase58(cfg.PrivateKey)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}

	return &SolanaDepositor{
		client:     rpc.New(cfg.RPCUrl),
		privateKey: privateKey,
		publicKey:  privateKey.PublicKey(),
	}, nil
}

// SendDeposit sends native SOL, or the SPL token named by t.TokenContract
func (s *SolanaDepositor) SendDeposit(ctx context.Context, t Transfer) (string, error) {
	recipient, err := solana.PublicKeyFromBase58(t.To)
	if err != nil {
		return "", fmt.Errorf("invalid recipient address: %w", err)
	}

	var instructions []solana.Instruction
	if t.TokenContract == "" {
		instructions, err = s.nativeTransfer(ctx, recipient, t.Amount)
	} else {
		instructions, err = s.splTransfer(ctx, recipient, t.TokenContract, t.Amount)
	}
	if err != nil {
		return "", err
	}

	sig, err := s.send(ctx, instructions)
	if err != nil {
		return "", err
	}
	return sig.String(), nil
}

func (s *SolanaDepositor) nativeTransfer(ctx context.Context, recipient solana.PublicKey, amount string) ([]solana.Instruction, error) {
	lamports, err := toBaseUnits(amount, lamportDecimals)
	if err != nil {
		return nil, err
	}
	if !lamports.IsUint64() {
		return nil, fmt.Errorf("amount too large: %s", amount)
	}

	balance, err := s.client.GetBalance(ctx, s.publicKey, rpc.CommitmentFinalized)
	if err != nil {
		return nil, fmt.Errorf("failed to get balance: %w", err)
	}

	need := new(big.Int).Add(lamports, big.NewInt(signatureFee))
	if new(big.Int).SetUint64(balance.Value).Cmp(need) < 0 {
		return nil, fmt.Errorf("insufficient balance: have %d lamports, need %s lamports (including fees)", balance.Value, need)
	}

	return []solana.Instruction{
		system.NewTransferInstruction(lamports.Uint64(), s.publicKey, recipient).Build(),
	}, nil
}

func (s *SolanaDepositor) splTransfer(ctx context.Context, recipient solana.PublicKey, mintStr, amount string) ([]solana.Instruction, error) {
	mint, err := solana.PublicKeyFromBase58(mintStr)
	if err != nil {
		return nil, fmt.Errorf("invalid token mint address: %w", err)
	}

	decimals, err := s.mintDecimals(ctx, mint)
	if err != nil {
		return nil, err
	}
	units, err := toBaseUnits(amount, int32(decimals))
	if err != nil {
		return nil, err
	}
	if !units.IsUint64() {
		return nil, fmt.Errorf("amount too large: %s", amount)
	}

	source, _, err := solana.FindAssociatedTokenAddress(s.publicKey, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive source token account: %w", err)
	}
	dest, _, err := solana.FindAssociatedTokenAddress(recipient, mint)
	if err != nil {
		return nil, fmt.Errorf("failed to derive destination token account: %w", err)
	}

	bal, err := s.client.GetTokenAccountBalance(ctx, source, rpc.CommitmentFinalized)
	if err != nil {
		return nil, fmt.Errorf("failed to get token balance: %w", err)
	}
	have, err := strconv.ParseUint(bal.Value.Amount, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("failed to parse token balance: %w", err)
	}
	if have < units.Uint64() {
		return nil, fmt.Errorf("insufficient token balance: have %d, need %s", have, units)
	}

	var instructions []solana.Instruction
	exists, err := s.accountExists(ctx, dest)
	if err != nil {
		return nil, fmt.Errorf("failed to check destination account: %w", err)
	}
	if !exists {
		instructions = append(instructions,
			associatedtokenaccount.NewCreateInstruction(s.publicKey, recipient, mint).Build())
	}

	instructions = append(instructions,
		token.NewTransferInstruction(units.Uint64(), source, dest, s.publicKey, []solana.PublicKey{}).Build())
	return instructions, nil
}

func (s *SolanaDepositor) send(ctx context.Context, instructions []solana.Instruction) (solana.Signature, error) {
	recent, err := s.client.GetLatestBlockhash(ctx, rpc.CommitmentFinalized)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to get recent blockhash: %w", err)
	}

	tx, err := solana.NewTransaction(instructions, recent.Value.Blockhash, solana.TransactionPayer(s.publicKey))
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to create transaction: %w", err)
	}

	_, err = tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.publicKey) {
			return &s.privateKey
		}
		return nil
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to sign transaction: %w", err)
	}

	sig, err := s.client.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		PreflightCommitment: rpc.CommitmentConfirmed,
	})
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
	}
	return sig, nil
}

// The decimals byte sits at offset 44 of an SPL mint account
func (s *SolanaDepositor) mintDecimals(ctx context.Context, mint solana.PublicKey) (uint8, error) {
	info, err := s.client.GetAccountInfo(ctx, mint)
	if err != nil {
		return 0, fmt.Errorf("failed to get mint account info: %w", err)
	}
	if info.Value == nil {
		return 0, fmt.Errorf("mint account not found")
	}

	data := info.Value.Data.GetBinary()
	if len(data) < 45 {
		return 0, fmt.Errorf("invalid mint account data")
	}
	return data[44], nil
}

func (s *SolanaDepositor) accountExists(ctx context.Context, account solana.PublicKey) (bool, error) {
	info, err := s.client.GetAccountInfo(ctx, account)
	if err == rpc.ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return info.Value != nil, nil
}

// Close is a no-op; the RPC client holds no connection
func (s *SolanaDepositor) Close() {}
