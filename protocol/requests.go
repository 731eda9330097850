package protocol

import (
	"encoding/json"
	"fmt"
)

// ByteArray is a byte slice that is encoded as a JSON array of numbers
// instead of base64, which is how the committee expects raw bytes.
type ByteArray []byte

func (b ByteArray) MarshalJSON() ([]byte, error) {
	ints := make([]uint16, len(b))
	for i, v := range b {
		ints[i] = uint16(v)
	}

	return json.Marshal(ints)
}

func (b *ByteArray) UnmarshalJSON(data []byte) error {
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return fmt.Errorf("byte array must be a list of numbers: %w",
			err)
	}

	out := make([]byte, len(ints))
	for i, v := range ints {
		if v < 0 || v > 255 {
			return fmt.Errorf("byte array value %d at index %d out "+
				"of range", v, i)
		}
		out[i] = byte(v)
	}
	*b = out

	return nil
}

// RegisterRequest starts a validator registration. The transactions are the
// hex strings of the signed stake, assert and challenge transactions.
type RegisterRequest struct {
	ValidatorKey string    `json:"validator_key"`
	PublicKey    string    `json:"public_key"`
	StakeTx      ByteArray `json:"stake_tx"`
	AssertTx     ByteArray `json:"assert_tx"`
	ChallengeTx  ByteArray `json:"challenge_tx"`
}

// NewRegisterRequest creates a register request from hex encoded
// transactions.
func NewRegisterRequest(validatorKey, publicKey, stakeTxHex, assertTxHex,
	challengeTxHex string) *RegisterRequest {

	return &RegisterRequest{
		ValidatorKey: validatorKey,
		PublicKey:    publicKey,
		StakeTx:      ByteArray(stakeTxHex),
		AssertTx:     ByteArray(assertTxHex),
		ChallengeTx:  ByteArray(challengeTxHex),
	}
}

// CircuitTx is a transaction bound to one registered circuit.
type CircuitTx struct {
	VKHash string `json:"vk_hash"`
	TxHex  string `json:"tx_hex"`
}

// FinishRegisterRequest completes a registration with one disprove
// transaction per circuit.
type FinishRegisterRequest struct {
	ValidatorKey string      `json:"validator_key"`
	DisproveTxs  []CircuitTx `json:"disprove_txs"`
}

// QueryAssertTxReq asks for the committee-signed assert transactions of a
// validator.
type QueryAssertTxReq struct {
	ValidatorKey string `json:"validator_key"`
}

// ChallengeRequest identifies a challenge by the proof it contests and the
// circuit the proof was made for.
type ChallengeRequest struct {
	ProofID string `json:"proof_id"`
	VKHash  string `json:"vk_hash"`
}

// FinishChallengeRequest hands the filled challenge transaction back to the
// committee.
type FinishChallengeRequest struct {
	ProofID           string `json:"proof_id"`
	FilledChallengeTx string `json:"filled_challenge_tx"`
}

// DisproveRequest asks the committee to disprove an assertion with the given
// disprove script.
type DisproveRequest struct {
	ProofID     string `json:"proof_id"`
	ScriptIndex uint64 `json:"script_index"`
	RewardAddr  string `json:"reward_addr"`
}

// RegisterCircuitRequest registers a verifying key with the committee.
type RegisterCircuitRequest struct {
	VK          ByteArray   `json:"vk"`
	CircuitType CircuitType `json:"circuit_type"`
}

// ChallengeInfoRes is the committee's summary of a challenge.
type ChallengeInfoRes struct {
	ProofID       string          `json:"proof_id"`
	Status        ChallengeStatus `json:"status"`
	ChallengeTxid *string         `json:"challenge_txid"`
	AssertTxid    *string         `json:"assert_txid"`
	DisproveTxid  *string         `json:"disprove_txid"`
}
