package solana

import "context"

// RPCClient defines the Solana RPC HTTP interface used by the pipeline:
// transaction lookup for normalization, submission and status observation
// for the executor.
type RPCClient interface {
	// GetTransaction retrieves a transaction by signature.
	// Returns (nil, nil) when the transaction is not found.
	GetTransaction(ctx context.Context, signature string) (*Transaction, error)

	// GetSignaturesForAddress retrieves signatures for an address with
	// pagination. Used for bounded backfill after reconnect.
	GetSignaturesForAddress(ctx context.Context, address string, opts *SignaturesOpts) ([]SignatureInfo, error)

	// GetLatestBlockhash returns the most recent blockhash for transaction
	// building.
	GetLatestBlockhash(ctx context.Context) (string, error)

	// SendTransaction submits a signed, serialized transaction and returns
	// its signature.
	SendTransaction(ctx context.Context, signedTx []byte, opts *SubmitOpts) (string, error)

	// SimulateTransaction runs the transaction against current state without
	// broadcasting it.
	SimulateTransaction(ctx context.Context, signedTx []byte) (*SimulationResult, error)

	// GetSignatureStatuses returns the current status of each signature.
	GetSignatureStatuses(ctx context.Context, signatures []string) ([]SignatureStatus, error)
}
