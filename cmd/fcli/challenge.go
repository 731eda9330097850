package main

import (
	"errors"
	"fmt"

	"github.com/fiamma-chain/fcli/protocol"
	"github.com/fiamma-chain/fcli/txbuilder"
	"github.com/spf13/cobra"
)

func newChallengeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "challenge",
		Short: "Challenge a proof asserted by a validator",
	}
	cmd.AddCommand(
		newChallengeStartCommand(),
		newChallengeStatusCommand(),
		newChallengeInfoCommand(),
		newChallengeFinishCommand(),
	)

	return cmd
}

// proofFlags identify a challenge by the proof and the circuit it was made
// for.
type proofFlags struct {
	ProofID string

	circuit *circuitFlags
}

func newProofFlags(cmd *cobra.Command) *proofFlags {
	p := &proofFlags{}
	cmd.Flags().StringVarP(
		&p.ProofID, "proofid", "p", "", "proof id of the challenged "+
			"proof",
	)
	p.circuit = newCircuitFlags(cmd)

	return p
}

func (p *proofFlags) request() (*protocol.ChallengeRequest, error) {
	if p.ProofID == "" {
		return nil, errors.New("proof id must be specified")
	}

	circuit, err := p.circuit.load()
	if err != nil {
		return nil, err
	}

	log.Debugf("Circuit %s of type %v", circuit.VKHash,
		circuit.CircuitType)

	return &protocol.ChallengeRequest{
		ProofID: p.ProofID,
		VKHash:  circuit.VKHash,
	}, nil
}

type challengeStartCommand struct {
	proof *proofFlags
	cmd   *cobra.Command
}

func newChallengeStartCommand() *cobra.Command {
	cc := &challengeStartCommand{}
	cc.cmd = &cobra.Command{
		Use:   "start",
		Short: "Start a challenge",
		Example: `fcli challenge start --proofid 0x1234... \
	--vkpath ./groth16_vk.bin --circuittype groth16`,
		RunE: cc.Execute,
	}
	cc.proof = newProofFlags(cc.cmd)

	return cc.cmd
}

func (c *challengeStartCommand) Execute(_ *cobra.Command, _ []string) error {
	req, err := c.proof.request()
	if err != nil {
		return err
	}

	client, err := newCommitteeClient()
	if err != nil {
		return err
	}

	ctx, cancel := callContext()
	defer cancel()

	challengeID, err := client.StartChallenge(ctx, req)
	if err != nil {
		return fmt.Errorf("error starting challenge: %w", err)
	}

	printResult("You have started to challenge the proof %s (challenge "+
		"number %d).\nNow please use `challenge status` to query the "+
		"status of the challenge.", req.ProofID, challengeID)

	return nil
}

type challengeStatusCommand struct {
	proof *proofFlags
	cmd   *cobra.Command
}

func newChallengeStatusCommand() *cobra.Command {
	cc := &challengeStatusCommand{}
	cc.cmd = &cobra.Command{
		Use:   "status",
		Short: "Query the status of a started challenge",
		Example: `fcli challenge status --proofid 0x1234... \
	--vkpath ./groth16_vk.bin --circuittype groth16`,
		RunE: cc.Execute,
	}
	cc.proof = newProofFlags(cc.cmd)

	return cc.cmd
}

func (c *challengeStatusCommand) Execute(_ *cobra.Command, _ []string) error {
	req, err := c.proof.request()
	if err != nil {
		return err
	}

	client, err := newCommitteeClient()
	if err != nil {
		return err
	}

	ctx, cancel := callContext()
	defer cancel()

	status, err := client.ChallengeStatus(ctx, req)
	if err != nil {
		return fmt.Errorf("error querying challenge status: %w", err)
	}

	result := status.String()
	if next, ok := status.ExpectedTransaction(); ok {
		result += fmt.Sprintf(" (%v stage)", next.Label())
	}
	printResult("%s", result)

	return nil
}

type challengeInfoCommand struct {
	proof *proofFlags
	cmd   *cobra.Command
}

func newChallengeInfoCommand() *cobra.Command {
	cc := &challengeInfoCommand{}
	cc.cmd = &cobra.Command{
		Use:   "info",
		Short: "Show a challenge and the transactions involved so far",
		Example: `fcli challenge info --proofid 0x1234... \
	--vkpath ./groth16_vk.bin --circuittype groth16`,
		RunE: cc.Execute,
	}
	cc.proof = newProofFlags(cc.cmd)

	return cc.cmd
}

func (c *challengeInfoCommand) Execute(_ *cobra.Command, _ []string) error {
	req, err := c.proof.request()
	if err != nil {
		return err
	}

	client, err := newCommitteeClient()
	if err != nil {
		return err
	}

	ctx, cancel := callContext()
	defer cancel()

	info, err := client.ChallengeInfo(ctx, req)
	if err != nil {
		return fmt.Errorf("error querying challenge info: %w", err)
	}

	printResult("Proof: %s\nStatus: %v\nChallenge tx: %s\nAssert tx: %s\n"+
		"Disprove tx: %s", info.ProofID, info.Status,
		optionalTxid(info.ChallengeTxid), optionalTxid(info.AssertTxid),
		optionalTxid(info.DisproveTxid))

	return nil
}

func optionalTxid(txid *string) string {
	if txid == nil || *txid == "" {
		return "-"
	}

	return *txid
}

type challengeFinishCommand struct {
	proof   *proofFlags
	signer  *signerFlags
	funding *fundingFlags
	cmd     *cobra.Command
}

func newChallengeFinishCommand() *cobra.Command {
	cc := &challengeFinishCommand{}
	cc.cmd = &cobra.Command{
		Use:   "finish",
		Short: "Fund the committee's challenge transaction",
		Long: `Fetches the challenge transaction the committee signed for
the proof, adds the challenger's funding input and change output and signs the
new input. The committee's signature only commits to its own input, so it
stays valid. The filled transaction is handed back to the committee which
broadcasts it.`,
		Example: `fcli challenge finish --proofid 0x1234... \
	--vkpath ./groth16_vk.bin --circuittype groth16 \
	--txid 3a0c...e1 --vout 1 --privkey cVt4o7...`,
		RunE: cc.Execute,
	}
	cc.proof = newProofFlags(cc.cmd)
	cc.signer = newSignerFlags(cc.cmd, "the challenger input")
	cc.funding = newFundingFlags(cc.cmd, "challenger funding output")

	return cc.cmd
}

func (c *challengeFinishCommand) Execute(_ *cobra.Command, _ []string) error {
	req, err := c.proof.request()
	if err != nil {
		return err
	}

	privKey, keyInfo, err := c.signer.parse()
	if err != nil {
		return err
	}

	funding, err := c.funding.resolve(keyInfo, privKey)
	if err != nil {
		return err
	}

	client, err := newCommitteeClient()
	if err != nil {
		return err
	}

	ctx, cancel := callContext()
	defer cancel()

	challengeHex, err := client.CommitteeChallengeTx(ctx, req)
	if err != nil {
		return fmt.Errorf("error fetching challenge tx: %w", err)
	}

	script, err := client.MultiSigScriptOfProof(ctx, req.ProofID)
	if err != nil {
		return fmt.Errorf("error fetching multisig script of proof: %w",
			err)
	}

	committeeTx, err := txbuilder.DecodeTx(challengeHex)
	if err != nil {
		return err
	}
	err = txbuilder.ValidatePresignedTx(
		committeeTx, txbuilder.CommitteeChallengeRules(script),
	)
	if err != nil {
		return err
	}

	filledTx, err := txbuilder.FillChallengeTx(
		committeeTx, privKey.Key, funding, script,
	)
	if err != nil {
		return err
	}

	filledHex, err := txbuilder.EncodeTx(filledTx)
	if err != nil {
		return err
	}

	txid, err := client.FinishChallenge(
		ctx, &protocol.FinishChallengeRequest{
			ProofID:           req.ProofID,
			FilledChallengeTx: filledHex,
		},
	)
	if err != nil {
		return fmt.Errorf("error finishing challenge: %w", err)
	}

	printResult("You have finished the challenge, please check the "+
		"status of the challenge transaction %s on bitcoin.", txid)

	return nil
}
