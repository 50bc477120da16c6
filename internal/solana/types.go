package solana

// Transaction represents a Solana transaction.
type Transaction struct {
	Slot      int64
	Signature string
	BlockTime int64 // Unix timestamp (seconds)
	Meta      *TransactionMeta
	Message   *TransactionMessage
}

// TransactionMeta contains transaction metadata.
type TransactionMeta struct {
	Err         interface{}
	LogMessages []string
}

// TransactionMessage contains parsed transaction message.
type TransactionMessage struct {
	AccountKeys []string
}

// SignatureInfo from getSignaturesForAddress.
type SignatureInfo struct {
	Signature string
	Slot      int64
	BlockTime *int64
	Err       interface{}
}

// SignaturesOpts defines optional pagination parameters for getSignaturesForAddress.
type SignaturesOpts struct {
	Before string // Start searching backwards from this signature
	Until  string // Search until this signature
	Limit  int    // Maximum number of signatures to return
}

// TxStatus is the observed status of a submitted transaction.
type TxStatus string

const (
	TxPending   TxStatus = "PENDING"
	TxConfirmed TxStatus = "CONFIRMED"
	TxReverted  TxStatus = "REVERTED"
	TxUnknown   TxStatus = "UNKNOWN"
)

// SignatureStatus is one entry of a getSignatureStatuses response.
type SignatureStatus struct {
	Signature string
	Status    TxStatus
	Slot      int64
}

// SimulationResult from simulateTransaction.
type SimulationResult struct {
	Err  interface{} // non-nil when the transaction would fail
	Logs []string
}

// Failed reports whether the simulated transaction would fail on chain.
func (r *SimulationResult) Failed() bool {
	return r != nil && r.Err != nil
}

// SubmitOpts controls sendTransaction behavior.
type SubmitOpts struct {
	SkipPreflight bool
	// ComputeUnitPrice attaches a priority fee in micro-lamports when > 0.
	ComputeUnitPrice uint64
}
