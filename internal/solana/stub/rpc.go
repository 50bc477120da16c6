// Package stub provides in-memory fakes of the Solana transport for tests.
package stub

import (
	"context"
	"fmt"
	"sync"

	"github.com/skadziol/sando-seer/internal/solana"
)

// RPCClient implements solana.RPCClient for testing. Submission behavior is
// scriptable: queue errors with FailNextSend, set terminal statuses with
// SetStatus.
type RPCClient struct {
	mu sync.Mutex

	Transactions map[string]*solana.Transaction
	Signatures   map[string][]solana.SignatureInfo

	statuses     map[string]solana.TxStatus
	sendErrs     []error
	simFailure   bool
	sendCount    int
	submitted    []string
	nextSigIndex int
}

// NewRPCClient creates a new stub RPC client.
func NewRPCClient() *RPCClient {
	return &RPCClient{
		Transactions: make(map[string]*solana.Transaction),
		Signatures:   make(map[string][]solana.SignatureInfo),
		statuses:     make(map[string]solana.TxStatus),
	}
}

// AddTransaction adds a transaction to the stub store.
func (c *RPCClient) AddTransaction(tx *solana.Transaction) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Transactions[tx.Signature] = tx
}

// AddSignatures adds backfill signatures for an address.
func (c *RPCClient) AddSignatures(address string, sigs []solana.SignatureInfo) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Signatures[address] = sigs
}

// FailNextSend queues an error for the next SendTransaction call.
func (c *RPCClient) FailNextSend(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendErrs = append(c.sendErrs, err)
}

// SetSimulationFailure makes SimulateTransaction report an on-chain failure.
func (c *RPCClient) SetSimulationFailure(fail bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.simFailure = fail
}

// SetStatus sets the status reported for a signature.
func (c *RPCClient) SetStatus(signature string, status solana.TxStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.statuses[signature] = status
}

// Submitted returns the signatures of all accepted submissions.
func (c *RPCClient) Submitted() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.submitted))
	copy(out, c.submitted)
	return out
}

// SendCount returns the number of SendTransaction calls, including failures.
func (c *RPCClient) SendCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.sendCount
}

// GetTransaction retrieves a transaction by signature from the stub store.
func (c *RPCClient) GetTransaction(_ context.Context, signature string) (*solana.Transaction, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Transactions[signature], nil
}

// GetSignaturesForAddress retrieves signatures for an address from the stub store.
func (c *RPCClient) GetSignaturesForAddress(_ context.Context, address string, opts *solana.SignaturesOpts) ([]solana.SignatureInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	sigs := c.Signatures[address]
	if opts != nil && opts.Limit > 0 && opts.Limit < len(sigs) {
		return sigs[:opts.Limit], nil
	}
	return sigs, nil
}

// GetLatestBlockhash returns a fixed blockhash.
func (c *RPCClient) GetLatestBlockhash(_ context.Context) (string, error) {
	return "StubB1ockhash1111111111111111111111111111111", nil
}

// SendTransaction records the submission and returns a synthetic signature,
// or the next queued error.
func (c *RPCClient) SendTransaction(_ context.Context, signedTx []byte, _ *solana.SubmitOpts) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.sendCount++
	if len(c.sendErrs) > 0 {
		err := c.sendErrs[0]
		c.sendErrs = c.sendErrs[1:]
		return "", err
	}

	c.nextSigIndex++
	sig := fmt.Sprintf("StubSig%04d", c.nextSigIndex)
	c.submitted = append(c.submitted, sig)
	if _, ok := c.statuses[sig]; !ok {
		c.statuses[sig] = solana.TxPending
	}
	return sig, nil
}

// SimulateTransaction reports success unless a failure was scripted.
func (c *RPCClient) SimulateTransaction(_ context.Context, _ []byte) (*solana.SimulationResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.simFailure {
		return &solana.SimulationResult{Err: "InstructionError"}, nil
	}
	return &solana.SimulationResult{}, nil
}

// GetSignatureStatuses returns the scripted status per signature.
func (c *RPCClient) GetSignatureStatuses(_ context.Context, signatures []string) ([]solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]solana.SignatureStatus, len(signatures))
	for i, sig := range signatures {
		status, ok := c.statuses[sig]
		if !ok {
			status = solana.TxUnknown
		}
		out[i] = solana.SignatureStatus{Signature: sig, Status: status}
	}
	return out, nil
}

// Verify interface compliance at compile time.
var _ solana.RPCClient = (*RPCClient)(nil)
