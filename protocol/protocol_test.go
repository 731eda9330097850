package protocol

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/btcsuite/btcd/btcutil"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/stretchr/testify/require"
)

func TestSchema(t *testing.T) {
	s := Schema()

	require.EqualValues(t, 0, s.StakeValue)
	require.EqualValues(t, 1, s.UnstakeTimelock)
	require.EqualValues(t, 2, s.ConnectorA)
	require.EqualValues(t, 3, s.ConnectorB)
	require.EqualValues(t, 4, s.StakeChange)
	require.EqualValues(t, 1, s.ConnectorC)
	require.EqualValues(t, 4, s.ChallengeChange)

	txid := chainhash.Hash{1, 2, 3}
	op := s.ConnectorB.OutPoint(txid)
	require.Equal(t, txid, op.Hash)
	require.EqualValues(t, 3, op.Index)

	op = s.ConnectorC.OutPoint(txid)
	require.EqualValues(t, 1, op.Index)
}

func TestCosts(t *testing.T) {
	require.Equal(t, btcutil.Amount(6_700), StakeTxCost())
	require.Equal(t, btcutil.Amount(3_400), StakeValueAmount)
	require.Equal(t, btcutil.Amount(1_300), ChallengeCost())

	// Amounts only the committee spends with, pinned so both sides keep
	// agreeing on them.
	require.Equal(t, btcutil.Amount(1_000), DisproveFeeAmount)
	require.Equal(t, btcutil.Amount(1_000), CommitteeReserveAmount)
}

var checkedSubTestCases = []struct {
	name      string
	available btcutil.Amount
	required  btcutil.Amount
	result    btcutil.Amount
	shortfall btcutil.Amount
}{{
	name:      "plenty",
	available: 10_000_000,
	required:  StakeTxCost(),
	result:    9_993_300,
}, {
	name:      "exact",
	available: 6_700,
	required:  StakeTxCost(),
	result:    0,
}, {
	name:      "one short",
	available: 6_699,
	required:  StakeTxCost(),
	shortfall: 1,
}, {
	name:      "empty",
	available: 0,
	required:  ChallengeCost(),
	shortfall: 1_300,
}}

func TestCheckedSub(t *testing.T) {
	for _, tc := range checkedSubTestCases {
		t.Run(tc.name, func(t *testing.T) {
			res, err := CheckedSub(tc.available, tc.required)
			if tc.shortfall == 0 {
				require.NoError(t, err)
				require.Equal(t, tc.result, res)
				return
			}

			require.ErrorIs(t, err, ErrInsufficientFunds)

			var fundsErr *InsufficientFundsError
			require.True(t, errors.As(err, &fundsErr))
			require.Equal(t, tc.shortfall, fundsErr.Shortfall())
			require.Zero(t, res)
		})
	}
}

func TestShapeError(t *testing.T) {
	err := NewShapeError(AssertTx, InvalidVersion, "%d", 2)
	require.Equal(t, "assert tx has invalid version 2", err.Error())

	err = NewShapeError(ChallengeTx, OutputNotEmpty, "")
	require.Equal(t, "challenge tx output not empty", err.Error())

	err = NewShapeError(
		DisproveTx, WitnessInvalidScriptPubKey, "%s", "0014ab",
	)
	require.Equal(
		t, "disprove tx's witness has invalid script pubkey 0014ab",
		err.Error(),
	)

	err = NewShapeError(ChallengeTx, InvalidOutputCount, "%d", 5)
	require.Equal(
		t, "challenge tx has invalid output count 5", err.Error(),
	)

	wrapped := errors.Join(errors.New("outer"), err)
	require.True(t, IsShapeViolation(wrapped, WitnessInvalidScriptPubKey))
	require.False(t, IsShapeViolation(wrapped, InvalidVersion))
}

func TestRegisterStatusNames(t *testing.T) {
	for s := RegisterNotExist; s <= RegisterFailed; s++ {
		parsed, err := ParseRegisterStatus(s.String())
		require.NoError(t, err)
		require.Equal(t, s, parsed)
	}

	require.Equal(t, "stake_tx_ready_to_submit",
		StakeTxReadyToSubmit.String())

	_, err := ParseRegisterStatus("bogus")
	require.ErrorIs(t, err, ErrInvalidStatus)
}

var registerTransitionTestCases = []struct {
	from RegisterStatus
	to   RegisterStatus
	ok   bool
}{
	{RegisterNotExist, StakeTxReadyToSubmit, true},
	{RegisterUnsigned, StakeTxReadyToSubmit, true},
	{StakeTxReadyToSubmit, StakeTxSubmitted, true},
	{StakeTxSubmitted, Registered, true},
	{StakeTxConfirmed, StakeTxSubmitted, false},
	{StakeTxConfirmed, RegisterFailed, true},
	{Registered, Challenging, true},
	{Registered, Slashed, false},
	{Challenging, Slashed, true},
	{Challenging, Redeemed, true},
	{Slashed, Redeemed, false},
	{Slashed, Removed, true},
	{Removed, RegisterNotExist, false},
	{RegisterFailed, Registered, false},
}

func TestRegisterStatusTransitions(t *testing.T) {
	for _, tc := range registerTransitionTestCases {
		require.Equal(
			t, tc.ok, tc.from.CanAdvanceTo(tc.to), "%v -> %v",
			tc.from, tc.to,
		)
	}
}

func TestRegisterStatusExpectedTransaction(t *testing.T) {
	txType, ok := StakeTxSubmitted.ExpectedTransaction()
	require.True(t, ok)
	require.Equal(t, StakeTx, txType)

	txType, ok = Challenging.ExpectedTransaction()
	require.True(t, ok)
	require.Equal(t, ChallengeTx, txType)

	txType, ok = Slashed.ExpectedTransaction()
	require.True(t, ok)
	require.Equal(t, DisproveTx, txType)

	_, ok = Registered.ExpectedTransaction()
	require.False(t, ok)
}

func TestChallengeStatus(t *testing.T) {
	for s := ChallengeNotExist; s <= ChallengeFailed; s++ {
		parsed, err := ParseChallengeStatus(s.String())
		require.NoError(t, err)
		require.Equal(t, s, parsed)
	}

	require.True(t, ChallengeCreated.CanAdvanceTo(PartialAssertTxReady))
	require.True(t, ChallengeCreated.CanAdvanceTo(AssertTxSubmitted))
	require.False(t, AssertTxSubmitted.CanAdvanceTo(ChallengeTxSubmitted))
	require.True(t, DisproveTxConfirmed.CanAdvanceTo(ChallengeSucceed))
	require.False(t, AssertTxConfirmed.CanAdvanceTo(ChallengeSucceed))
	require.True(t, DisproveTxHandling.CanAdvanceTo(DisproveTxFailed))
	require.False(t, ChallengeTxSubmitted.CanAdvanceTo(DisproveTxFailed))
	require.False(t, DisproveTxFailed.CanAdvanceTo(DisproveTxConfirmed))
	require.True(t, DisproveTxFailed.CanAdvanceTo(ChallengeFailed))
	require.False(t, ChallengeSucceed.CanAdvanceTo(ChallengeFailed))

	txType, ok := PartialAssertTxReady.ExpectedTransaction()
	require.True(t, ok)
	require.Equal(t, AssertTx, txType)

	txType, ok = ChallengeTxConfirmed.ExpectedTransaction()
	require.True(t, ok)
	require.Equal(t, ChallengeTx, txType)

	txType, ok = DisproveTxReadyToHandle.ExpectedTransaction()
	require.True(t, ok)
	require.Equal(t, DisproveTx, txType)

	_, ok = ChallengeCreated.ExpectedTransaction()
	require.False(t, ok)
}

func TestChallengeInfoJSON(t *testing.T) {
	raw := `{"proof_id":"p1","status":"AssertTxSubmitted",` +
		`"challenge_txid":"aa","assert_txid":null,"disprove_txid":null}`

	var info ChallengeInfoRes
	require.NoError(t, json.Unmarshal([]byte(raw), &info))
	require.Equal(t, AssertTxSubmitted, info.Status)
	require.Equal(t, "aa", *info.ChallengeTxid)
	require.Nil(t, info.AssertTxid)

	// The snake case spelling is accepted as well.
	raw = `{"proof_id":"p1","status":"challenge_failed"}`
	require.NoError(t, json.Unmarshal([]byte(raw), &info))
	require.Equal(t, ChallengeFailed, info.Status)

	raw = `{"proof_id":"p1","status":"nope"}`
	require.ErrorIs(
		t, json.Unmarshal([]byte(raw), &info), ErrInvalidStatus,
	)
}

func TestTransactionType(t *testing.T) {
	for i := 0; i < 4; i++ {
		txType, err := TransactionTypeFromInt(i)
		require.NoError(t, err)
		require.EqualValues(t, i, txType)
	}

	_, err := TransactionTypeFromInt(4)
	require.Error(t, err)

	require.Equal(t, "disprove_tx", DisproveTx.String())
	require.Equal(t, "disprove tx", DisproveTx.Label())

	txType, err := ParseTransactionType("ChallengeTx")
	require.NoError(t, err)
	require.Equal(t, ChallengeTx, txType)

	status, err := ParseTransactionStatus("to_be_submitted")
	require.NoError(t, err)
	require.Equal(t, TxToBeSubmitted, status)
	require.False(t, status.IsFinal())
	require.True(t, TxConfirmed.IsFinal())
}

func TestRegisterRequestJSON(t *testing.T) {
	req := NewRegisterRequest("val", "02ab", "0a", "0b", "0c")

	raw, err := json.Marshal(req)
	require.NoError(t, err)
	require.JSONEq(t, `{
		"validator_key": "val",
		"public_key": "02ab",
		"stake_tx": [48, 97],
		"assert_tx": [48, 98],
		"challenge_tx": [48, 99]
	}`, string(raw))

	var decoded RegisterRequest
	require.NoError(t, json.Unmarshal(raw, &decoded))
	require.Equal(t, *req, decoded)

	var b ByteArray
	require.Error(t, json.Unmarshal([]byte(`[256]`), &b))
	require.Error(t, json.Unmarshal([]byte(`"AQID"`), &b))
}

func TestRequestShapes(t *testing.T) {
	testCases := []struct {
		name     string
		request  interface{}
		expected string
	}{{
		name: "finish register",
		request: &FinishRegisterRequest{
			ValidatorKey: "val",
			DisproveTxs: []CircuitTx{{
				VKHash: "h1", TxHex: "01",
			}},
		},
		expected: `{"validator_key":"val","disprove_txs":[` +
			`{"vk_hash":"h1","tx_hex":"01"}]}`,
	}, {
		name:     "challenge",
		request:  &ChallengeRequest{ProofID: "p", VKHash: "h"},
		expected: `{"proof_id":"p","vk_hash":"h"}`,
	}, {
		name: "finish challenge",
		request: &FinishChallengeRequest{
			ProofID: "p", FilledChallengeTx: "02",
		},
		expected: `{"proof_id":"p","filled_challenge_tx":"02"}`,
	}, {
		name: "disprove",
		request: &DisproveRequest{
			ProofID: "p", ScriptIndex: 7, RewardAddr: "bcrt1q",
		},
		expected: `{"proof_id":"p","script_index":7,` +
			`"reward_addr":"bcrt1q"}`,
	}, {
		name:     "query assert",
		request:  &QueryAssertTxReq{ValidatorKey: "val"},
		expected: `{"validator_key":"val"}`,
	}, {
		name: "register circuit",
		request: &RegisterCircuitRequest{
			VK: []byte{1, 2}, CircuitType: Fflonk,
		},
		expected: `{"vk":[1,2],"circuit_type":"Fflonk"}`,
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			raw, err := json.Marshal(tc.request)
			require.NoError(t, err)
			require.JSONEq(t, tc.expected, string(raw))
		})
	}
}

func TestCircuitHash(t *testing.T) {
	vk := []byte("verifying key bytes")

	expected := sha256.Sum256(append(vk, []byte("groth16")...))
	info := NewCircuitInfo(vk, Groth16)
	require.Equal(t, hex.EncodeToString(expected[:]), info.VKHash)
	require.NotEqual(t, info.VKHash, CircuitHash(vk, Fflonk))

	_, err := ParseCircuitType("plonk")
	require.ErrorIs(t, err, ErrInvalidCircuitType)

	ct, err := ParseCircuitType("Fflonk")
	require.NoError(t, err)
	require.Equal(t, Fflonk, ct)
}

func TestLoadCircuit(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "verify-key")
	require.NoError(t, os.WriteFile(path, []byte{9, 9, 9}, 0600))

	info, err := LoadCircuit(path, "groth16")
	require.NoError(t, err)
	require.Equal(t, []byte{9, 9, 9}, info.VK)
	require.Equal(t, CircuitHash([]byte{9, 9, 9}, Groth16), info.VKHash)

	_, err = LoadCircuit(filepath.Join(dir, "missing"), "groth16")
	require.ErrorIs(t, err, ErrCircuitNotExists)

	_, err = LoadCircuit(path, "stark")
	require.ErrorIs(t, err, ErrInvalidCircuitType)
}
