package network

import "context"

// MockChainService is a test double for ChainService.
// All function fields must be set before the corresponding method is called.
type MockChainService struct {
	ListUnspentFn func(ctx context.Context, address string) ([]*UTXO, error)
	FeeRateFn     func(ctx context.Context) (float64, error)
	BroadcastTxFn func(ctx context.Context, rawTxHex string) (string, error)
}

// Compile-time interface check.
var _ ChainService = (*MockChainService)(nil)

func (m *MockChainService) ListUnspent(ctx context.Context, address string) ([]*UTXO, error) {
	return m.ListUnspentFn(ctx, address)
}

func (m *MockChainService) FeeRate(ctx context.Context) (float64, error) {
	return m.FeeRateFn(ctx)
}

func (m *MockChainService) BroadcastTx(ctx context.Context, rawTxHex string) (string, error) {
	return m.BroadcastTxFn(ctx, rawTxHex)
}
