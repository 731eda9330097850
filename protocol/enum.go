package protocol

import (
	"encoding/json"
	"fmt"
)

// enumNames holds the two spellings of a status value. The committee emits
// the snake_case wire name in plain string responses and the variant name
// inside JSON objects.
type enumNames struct {
	kind    string
	wire    []string
	variant []string
}

func (n *enumNames) name(i int) string {
	if i < 0 || i >= len(n.wire) {
		return fmt.Sprintf("unknown_%s(%d)", n.kind, i)
	}

	return n.wire[i]
}

func (n *enumNames) parse(s string) (int, error) {
	for i := range n.wire {
		if n.wire[i] == s || n.variant[i] == s {
			return i, nil
		}
	}

	return 0, fmt.Errorf("%w: unknown %s '%s'", ErrInvalidStatus, n.kind,
		s)
}

func (n *enumNames) marshal(i int) ([]byte, error) {
	if i < 0 || i >= len(n.variant) {
		return nil, fmt.Errorf("%w: %s %d", ErrInvalidStatus, n.kind, i)
	}

	return json.Marshal(n.variant[i])
}

func (n *enumNames) unmarshal(data []byte) (int, error) {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return 0, fmt.Errorf("%s must be a string: %w", n.kind, err)
	}

	return n.parse(s)
}
