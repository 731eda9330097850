package protocol

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
)

// CircuitType is the proof system of a registered circuit.
type CircuitType uint8

const (
	Groth16 CircuitType = iota
	Fflonk
)

var circuitTypeNames = &enumNames{
	kind:    "circuit type",
	wire:    []string{"groth16", "fflonk"},
	variant: []string{"Groth16", "Fflonk"},
}

func (c CircuitType) String() string {
	return circuitTypeNames.name(int(c))
}

// ParseCircuitType parses a circuit type name like "groth16".
func ParseCircuitType(s string) (CircuitType, error) {
	i, err := circuitTypeNames.parse(s)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidCircuitType, s)
	}

	return CircuitType(i), nil
}

func (c CircuitType) MarshalJSON() ([]byte, error) {
	return circuitTypeNames.marshal(int(c))
}

func (c *CircuitType) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("circuit type must be a string: %w", err)
	}

	parsed, err := ParseCircuitType(s)
	if err != nil {
		return err
	}
	*c = parsed

	return nil
}

// CircuitInfo identifies a circuit by the hash of its verifying key.
type CircuitInfo struct {
	VKHash      string
	VK          []byte
	CircuitType CircuitType
}

// NewCircuitInfo computes the circuit hash of the given verifying key.
func NewCircuitInfo(vk []byte, circuitType CircuitType) *CircuitInfo {
	return &CircuitInfo{
		VKHash:      CircuitHash(vk, circuitType),
		VK:          append([]byte(nil), vk...),
		CircuitType: circuitType,
	}
}

// CircuitHash is hex(sha256(vk || circuit type name)).
func CircuitHash(vk []byte, circuitType CircuitType) string {
	h := sha256.New()
	_, _ = h.Write(vk)
	_, _ = h.Write([]byte(circuitType.String()))

	return hex.EncodeToString(h.Sum(nil))
}

// ReadVerifyingKey reads a circuit's verifying key file.
func ReadVerifyingKey(path string) ([]byte, error) {
	vk, err := os.ReadFile(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return nil, fmt.Errorf("%w: %s", ErrCircuitNotExists, path)

	case err != nil:
		return nil, fmt.Errorf("error reading verifying key %s: %w",
			path, err)
	}

	return vk, nil
}

// LoadCircuit reads a verifying key and computes its circuit info.
func LoadCircuit(path, circuitType string) (*CircuitInfo, error) {
	ct, err := ParseCircuitType(circuitType)
	if err != nil {
		return nil, err
	}

	vk, err := ReadVerifyingKey(path)
	if err != nil {
		return nil, err
	}

	return NewCircuitInfo(vk, ct), nil
}
