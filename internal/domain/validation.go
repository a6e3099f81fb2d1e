package domain

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Validation errors
var (
	ErrInvalidToken     = errors.New("unsupported token symbol")
	ErrInvalidNetwork   = errors.New("unsupported blockchain network")
	ErrInvalidReference = errors.New("invalid provider reference")
	ErrAmountTooLarge   = errors.New("amount exceeds maximum allowed")
	ErrAmountTooSmall   = errors.New("amount below minimum allowed")
	ErrMetadataTooLarge = errors.New("metadata size exceeds limit")
)

// Validation constants
const (
	MaxMetadataSize     = 10240 // 10KB
	MaxWithdrawalAmount = "1000000000" // 1 billion fiat units
	MinWithdrawalAmount = "0.01"
	MaxReferenceLength  = 128
)

// Tokens the offramp provider settles.
var validTokens = map[string]bool{
	"USDC": true, "USDT": true, "ETH": true, "BTC": true, "SOL": true,
}

// Networks the wallet provider issues deposit addresses on.
var validNetworks = map[string]bool{
	"ethereum": true, "polygon": true, "base": true,
	"solana": true, "tron": true, "bitcoin": true,
}

// Chain families the supported networks belong to. A network added to
// validNetworks needs an entry here too.
var networkChainTypes = map[string]string{
	"ethereum": "evm",
	"polygon":  "evm",
	"base":     "evm",
	"solana":   "svm",
	"tron":     "tvm",
	"bitcoin":  "utxo",
}

var referenceRegex = regexp.MustCompile(`^[A-Za-z0-9_\-]+$`)

// ValidateToken validates a token symbol.
func ValidateToken(symbol string) error {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	if !validTokens[symbol] {
		return fmt.Errorf("%w: %s", ErrInvalidToken, symbol)
	}

	return nil
}

// ChainTypeForNetwork returns the chain family a network belongs to.
// Unknown networks fall back to "evm", the dominant family.
func ChainTypeForNetwork(network string) string {
	network = strings.ToLower(strings.TrimSpace(network))
	if ct, ok := networkChainTypes[network]; ok {
		return ct
	}
	return "evm"
}

// ValidateNetwork validates a blockchain network name.
func ValidateNetwork(network string) error {
	network = strings.ToLower(strings.TrimSpace(network))

	if !validNetworks[network] {
		return fmt.Errorf("%w: %s", ErrInvalidNetwork, network)
	}

	return nil
}

// ValidateReference validates a provider reference used as an idempotency key.
func ValidateReference(reference string) error {
	reference = strings.TrimSpace(reference)

	if reference == "" || len(reference) > MaxReferenceLength {
		return ErrInvalidReference
	}

	if !referenceRegex.MatchString(reference) {
		return fmt.Errorf("%w: contains forbidden characters", ErrInvalidReference)
	}

	return nil
}

// ValidateAmount validates a withdrawal/spend amount.
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	minAmount, _ := decimal.NewFromString(MinWithdrawalAmount)
	if amount.LessThan(minAmount) {
		return fmt.Errorf("%w: minimum amount is %s", ErrAmountTooSmall, MinWithdrawalAmount)
	}

	maxAmount, _ := decimal.NewFromString(MaxWithdrawalAmount)
	if amount.GreaterThan(maxAmount) {
		return fmt.Errorf("%w: maximum amount is %s", ErrAmountTooLarge, MaxWithdrawalAmount)
	}

	return nil
}

// ValidateMetadata validates metadata size.
func ValidateMetadata(metadata map[string]any) error {
	if metadata == nil {
		return nil
	}

	// Estimate size (rough approximation)
	size := 0
	for k, v := range metadata {
		size += len(k)
		size += len(fmt.Sprintf("%v", v))
	}

	if size > MaxMetadataSize {
		return fmt.Errorf("%w: metadata size %d bytes exceeds limit of %d bytes", ErrMetadataTooLarge, size, MaxMetadataSize)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters
func ValidatePagination(limit, offset int) (int, int, error) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset, nil
}
