package chains

import (
	"regexp"
	"strings"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/btcutil/base58"
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/ethereum/go-ethereum/common"
	"github.com/gagliardetto/solana-go"
)

const (
	tronVersion = 0x41

	zcashVersionLead = 0x1C
	zcashP2PKHSecond = 0xB8
	zcashP2SHSecond  = 0xBD
)

var (
	nearImplicit = regexp.MustCompile(`^[0-9a-f]{64}$`)
	nearNamed    = regexp.MustCompile(`^(([a-z\d]+[-_])*[a-z\d]+\.)*([a-z\d]+[-_])*[a-z\d]+$`)
	moneroAddr   = regexp.MustCompile(`^[48][1-9A-HJ-NP-Za-km-z]{94}$|^4[1-9A-HJ-NP-Za-km-z]{105}$`)
)

// ValidateAddress checks address against the chain family's format rules
func ValidateAddress(address string, c Chain) bool {
	address = strings.TrimSpace(address)
	if address == "" {
		return false
	}

	switch c.Family {
	case FamilyEVM:
		return isEVMAddress(address)
	case FamilyBitcoin:
		return isBitcoinAddress(address)
	case FamilySolana:
		return isSolanaAddress(address)
	case FamilyNear:
		return isNearAccount(address)
	case FamilyTron:
		return isTronAddress(address)
	case FamilyZcash:
		return isZcashTransparent(address)
	case FamilyMonero:
		return moneroAddr.MatchString(address)
	default:
		return false
	}
}

func isEVMAddress(address string) bool {
	if !strings.HasPrefix(address, "0x") && !strings.HasPrefix(address, "0X") {
		return false
	}
	if !common.IsHexAddress(address) {
		return false
	}

	// Mixed-case input carries an EIP-55 checksum and must match it.
	body := address[2:]
	if strings.ToLower(body) == body || strings.ToUpper(body) == body {
		return true
	}
	return common.HexToAddress(address).Hex() == "0x"+body
}

func isBitcoinAddress(address string) bool {
	params := &chaincfg.MainNetParams
	decoded, err := btcutil.DecodeAddress(address, params)
	if err != nil {
		return false
	}

	// DecodeAddress also accepts hex public keys, which cannot be paid to.
	switch decoded.(type) {
	case *btcutil.AddressPubKeyHash, *btcutil.AddressScriptHash,
		*btcutil.AddressWitnessPubKeyHash, *btcutil.AddressWitnessScriptHash,
		*btcutil.AddressTaproot:
		return decoded.IsForNet(params)
	default:
		return false
	}
}

// CanonicalContract normalises a token contract address for comparison.
// EVM addresses are reported in mixed or lower case by different sources and
// are rendered in their EIP-55 form; other families are case-sensitive.
func CanonicalContract(c Chain, address string) string {
	address = strings.TrimSpace(address)
	if c.Family == FamilyEVM && common.IsHexAddress(address) {
		return common.HexToAddress(address).Hex()
	}
	return address
}

func isSolanaAddress(address string) bool {
	_, err := solana.PublicKeyFromBase58(address)
	return err == nil
}

func isNearAccount(address string) bool {
	if nearImplicit.MatchString(address) {
		return true
	}
	if len(address) < 2 || len(address) > 64 {
		return false
	}
	return nearNamed.MatchString(address)
}

func isTronAddress(address string) bool {
	if len(address) != 34 || address[0] != 'T' {
		return false
	}
	payload, version, err := base58.CheckDecode(address)
	if err != nil {
		return false
	}
	return version == tronVersion && len(payload) == 20
}

// Only transparent addresses are accepted; shielded addresses are not
// supported by the exchange.
func isZcashTransparent(address string) bool {
	payload, version, err := base58.CheckDecode(address)
	if err != nil || version != zcashVersionLead || len(payload) != 21 {
		return false
	}
	return payload[0] == zcashP2PKHSecond || payload[0] == zcashP2SHSecond
}
