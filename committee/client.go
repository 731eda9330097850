// Package committee is a client for the committee's JSON-RPC 2.0 interface.
// All methods live in the "fc" namespace.
package committee

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/btcjson"
	"github.com/davecgh/go-spew/spew"
	"github.com/fiamma-chain/fcli/protocol"
)

const (
	// DefaultTimeout is the HTTP timeout of a single call.
	DefaultTimeout = 60 * time.Second

	methodPrefix = "fc_"
)

// RPCError is an error object returned by the committee.
type RPCError struct {
	Method  string
	Code    int
	Message string
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("committee call %s failed with code %d: %s",
		e.Method, e.Code, e.Message)
}

// Client calls the committee over HTTP. It is safe for concurrent use.
type Client struct {
	url        string
	httpClient *http.Client
	nextID     atomic.Uint64
}

// NewClient creates a client for the given endpoint URL.
func NewClient(url string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		url:        strings.TrimSuffix(url, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// call performs one JSON-RPC request. Every method takes its arguments as a
// positional array.
func (c *Client) call(ctx context.Context, method string, result interface{},
	params ...interface{}) error {

	method = methodPrefix + method

	rawParams := make([]json.RawMessage, 0, len(params))
	for _, param := range params {
		raw, err := json.Marshal(param)
		if err != nil {
			return fmt.Errorf("error encoding %s params: %w", method,
				err)
		}
		rawParams = append(rawParams, raw)
	}

	id := c.nextID.Add(1)
	reqBody, err := json.Marshal(&btcjson.Request{
		Jsonrpc: "2.0",
		Method:  method,
		Params:  rawParams,
		ID:      id,
	})
	if err != nil {
		return fmt.Errorf("error encoding %s request: %w", method, err)
	}

	log.Debugf("Calling %s (id %d)", method, id)
	log.Tracef("Request %s", reqBody)

	req, err := http.NewRequestWithContext(
		ctx, http.MethodPost, c.url, bytes.NewReader(reqBody),
	)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("error calling %s: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("error reading %s response: %w", method, err)
	}

	var rpcResp btcjson.Response
	if err := json.Unmarshal(respBody, &rpcResp); err != nil {
		return fmt.Errorf("invalid %s response (HTTP %d): %w", method,
			resp.StatusCode, err)
	}

	if rpcResp.Error != nil {
		return &RPCError{
			Method:  method,
			Code:    int(rpcResp.Error.Code),
			Message: rpcResp.Error.Message,
		}
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s returned HTTP status %d", method,
			resp.StatusCode)
	}

	if result == nil {
		return nil
	}

	if err := json.Unmarshal(rpcResp.Result, result); err != nil {
		return fmt.Errorf("error decoding %s result: %w", method, err)
	}

	log.Tracef("Result of %s: %v", method, spew.Sdump(result))

	return nil
}

// MultiSigScript returns the committee multisig witness script for a
// validator's public key.
func (c *Client) MultiSigScript(ctx context.Context,
	registerPubKey string) ([]byte, error) {

	return c.script(ctx, "getMultiSigAddress", registerPubKey)
}

// MultiSigScriptOfProof returns the witness script a proof's challenge is
// locked to.
func (c *Client) MultiSigScriptOfProof(ctx context.Context,
	proofID string) ([]byte, error) {

	return c.script(ctx, "getMultiSigAddressOfProof", proofID)
}

func (c *Client) script(ctx context.Context, method,
	param string) ([]byte, error) {

	var scriptHex string
	if err := c.call(ctx, method, &scriptHex, param); err != nil {
		return nil, err
	}

	script, err := hex.DecodeString(scriptHex)
	if err != nil {
		return nil, fmt.Errorf("invalid witness script from %s: %w",
			method, err)
	}
	if len(script) == 0 {
		return nil, errors.New("committee returned an empty witness " +
			"script")
	}

	return script, nil
}

// StartRegister submits the validator's presigned transactions and returns the
// register id.
func (c *Client) StartRegister(ctx context.Context,
	req *protocol.RegisterRequest) (uint32, error) {

	var id uint32
	err := c.call(ctx, "startRegister", &id, req)

	return id, err
}

// FinishRegister submits the disprove transactions of a validator.
func (c *Client) FinishRegister(ctx context.Context,
	req *protocol.FinishRegisterRequest) (uint32, error) {

	var id uint32
	err := c.call(ctx, "finishRegister", &id, req)

	return id, err
}

// StartChallenge opens a challenge against a proof.
func (c *Client) StartChallenge(ctx context.Context,
	req *protocol.ChallengeRequest) (uint32, error) {

	var id uint32
	err := c.call(ctx, "startChallenge", &id, req)

	return id, err
}

// ChallengeStatus returns the state of a challenge.
func (c *Client) ChallengeStatus(ctx context.Context,
	req *protocol.ChallengeRequest) (protocol.ChallengeStatus, error) {

	var status protocol.ChallengeStatus
	err := c.call(ctx, "challengeStatus", &status, req)

	return status, err
}

// ChallengeInfo returns the state of a challenge and the ids of the
// transactions involved so far.
func (c *Client) ChallengeInfo(ctx context.Context,
	req *protocol.ChallengeRequest) (*protocol.ChallengeInfoRes, error) {

	info := &protocol.ChallengeInfoRes{}
	if err := c.call(ctx, "challengeInfo", info, req); err != nil {
		return nil, err
	}

	return info, nil
}

// CommitteeChallengeTx returns the committee-signed challenge transaction a
// challenger has to fill.
func (c *Client) CommitteeChallengeTx(ctx context.Context,
	req *protocol.ChallengeRequest) (string, error) {

	var txHex string
	err := c.call(ctx, "getCommitteeChallengeTx", &txHex, req)

	return txHex, err
}

// CommitteeAssertTxs returns the committee-signed assert transaction of a
// validator for each registered circuit.
func (c *Client) CommitteeAssertTxs(ctx context.Context,
	req *protocol.QueryAssertTxReq) ([]protocol.CircuitTx, error) {

	var txs []protocol.CircuitTx
	if err := c.call(ctx, "getCommitteeAssertTxs", &txs, req); err != nil {
		return nil, err
	}

	return txs, nil
}

// FinishChallenge hands in the filled challenge transaction and returns the
// txid the committee broadcast it under.
func (c *Client) FinishChallenge(ctx context.Context,
	req *protocol.FinishChallengeRequest) (string, error) {

	var txid string
	err := c.call(ctx, "finishChallenge", &txid, req)

	return txid, err
}

// Disprove asks the committee to disprove an assertion.
func (c *Client) Disprove(ctx context.Context,
	req *protocol.DisproveRequest) error {

	return c.call(ctx, "disprove", nil, req)
}

// RegisterCircuit registers a verifying key.
func (c *Client) RegisterCircuit(ctx context.Context,
	req *protocol.RegisterCircuitRequest) (uint32, error) {

	var id uint32
	err := c.call(ctx, "registerCircuit", &id, req)

	return id, err
}
