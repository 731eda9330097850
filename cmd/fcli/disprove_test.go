package main

import (
	"testing"

	"github.com/fiamma-chain/fcli/config"
	"github.com/fiamma-chain/fcli/protocol"
	"github.com/stretchr/testify/require"
)

func TestDisprove(t *testing.T) {
	h := newHarness(t)

	rewardAddr := h.keyInfo(h.challenger).Address.String()
	disprove := &disproveCommand{
		ProofID:     testProofID,
		ScriptIndex: 12,
		RewardAddr:  rewardAddr,
	}
	require.NoError(t, disprove.Execute(nil, nil))
	h.assertLogContains("You have sent a disprove request for the proof " +
		testProofID)

	var req protocol.DisproveRequest
	h.rpc.param(t, "fc_disprove", &req)
	require.Equal(t, protocol.DisproveRequest{
		ProofID:     testProofID,
		ScriptIndex: 12,
		RewardAddr:  rewardAddr,
	}, req)

	disprove.RewardAddr = "BURN"
	require.NoError(t, disprove.Execute(nil, nil))

	burnAddr, err := config.BurnAddress(cfg.Params)
	require.NoError(t, err)
	h.rpc.param(t, "fc_disprove", &req)
	require.Equal(t, burnAddr, req.RewardAddr)
}

func TestDisproveErrors(t *testing.T) {
	h := newHarness(t)

	testCases := []struct {
		name     string
		disprove *disproveCommand
		msg      string
	}{{
		name:     "no proof id",
		disprove: &disproveCommand{RewardAddr: "burn"},
		msg:      "proof id must be specified",
	}, {
		name:     "no reward address",
		disprove: &disproveCommand{ProofID: testProofID},
		msg:      "reward address must be specified",
	}, {
		name: "mainnet reward address",
		disprove: &disproveCommand{
			ProofID:    testProofID,
			RewardAddr: "1BitcoinEaterAddressDontSendf59kuE",
		},
		msg: "invalid reward address",
	}}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			require.ErrorContains(t, tc.disprove.Execute(nil, nil),
				tc.msg)
		})
	}

	h.rpc.setError("fc_disprove", "proof not challenged")
	err := (&disproveCommand{
		ProofID:    testProofID,
		RewardAddr: "burn",
	}).Execute(nil, nil)
	require.ErrorContains(t, err, "proof not challenged")
}
