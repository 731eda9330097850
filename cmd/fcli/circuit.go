package main

import (
	"fmt"

	"github.com/fiamma-chain/fcli/protocol"
	"github.com/spf13/cobra"
)

func newCircuitCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "circuit",
		Short: "Register and identify circuits",
	}
	cmd.AddCommand(
		newCircuitRegisterCommand(),
		newCircuitHashCommand(),
	)

	return cmd
}

type circuitRegisterCommand struct {
	circuit *circuitFlags
	cmd     *cobra.Command
}

func newCircuitRegisterCommand() *cobra.Command {
	cc := &circuitRegisterCommand{}
	cc.cmd = &cobra.Command{
		Use:   "register",
		Short: "Register a circuit's verifying key with the committee",
		Example: `fcli circuit register --vkpath ./groth16_vk.bin \
	--circuittype groth16`,
		RunE: cc.Execute,
	}
	cc.circuit = newCircuitFlags(cc.cmd)

	return cc.cmd
}

func (c *circuitRegisterCommand) Execute(_ *cobra.Command, _ []string) error {
	circuit, err := c.circuit.load()
	if err != nil {
		return err
	}

	client, err := newCommitteeClient()
	if err != nil {
		return err
	}

	ctx, cancel := callContext()
	defer cancel()

	circuitID, err := client.RegisterCircuit(
		ctx, &protocol.RegisterCircuitRequest{
			VK:          circuit.VK,
			CircuitType: circuit.CircuitType,
		},
	)
	if err != nil {
		return fmt.Errorf("error registering circuit: %w", err)
	}

	printResult("Registered %v circuit %s with number %d",
		circuit.CircuitType, circuit.VKHash, circuitID)

	return nil
}

type circuitHashCommand struct {
	circuit *circuitFlags
	cmd     *cobra.Command
}

func newCircuitHashCommand() *cobra.Command {
	cc := &circuitHashCommand{}
	cc.cmd = &cobra.Command{
		Use:   "hash",
		Short: "Show the hash a circuit is identified by",
		Long: `Computes the hash of a verifying key and its circuit type
the same way the committee does. Challenges refer to circuits by this hash.`,
		Example: `fcli circuit hash --vkpath ./groth16_vk.bin \
	--circuittype groth16`,
		RunE: cc.Execute,
	}
	cc.circuit = newCircuitFlags(cc.cmd)

	return cc.cmd
}

func (c *circuitHashCommand) Execute(_ *cobra.Command, _ []string) error {
	circuit, err := c.circuit.load()
	if err != nil {
		return err
	}

	printResult("%s", circuit.VKHash)

	return nil
}
