package protocol

// RegisterStatus is the committee's view of a validator registration.
type RegisterStatus uint8

const (
	RegisterNotExist RegisterStatus = iota
	RegisterUnsigned
	StakeTxReadyToSubmit
	StakeTxSubmitted
	StakeTxConfirmed
	Registered
	Challenging
	Slashed
	Redeemed
	Unregistered
	Removed
	RegisterFailed
)

var registerStatusNames = &enumNames{
	kind: "register status",
	wire: []string{
		"not_exist", "unsigned", "stake_tx_ready_to_submit",
		"stake_tx_submitted", "stake_tx_confirmed", "registered",
		"challenging", "slashed", "redeemed", "unregistered", "removed",
		"failed",
	},
	variant: []string{
		"NotExist", "Unsigned", "StakeTxReadyToSubmit",
		"StakeTxSubmitted", "StakeTxConfirmed", "Registered",
		"Challenging", "Slashed", "Redeemed", "Unregistered", "Removed",
		"Failed",
	},
}

func (s RegisterStatus) String() string {
	return registerStatusNames.name(int(s))
}

// ParseRegisterStatus parses either spelling of a register status.
func ParseRegisterStatus(s string) (RegisterStatus, error) {
	i, err := registerStatusNames.parse(s)
	return RegisterStatus(i), err
}

func (s RegisterStatus) MarshalJSON() ([]byte, error) {
	return registerStatusNames.marshal(int(s))
}

func (s *RegisterStatus) UnmarshalJSON(data []byte) error {
	i, err := registerStatusNames.unmarshal(data)
	if err != nil {
		return err
	}
	*s = RegisterStatus(i)

	return nil
}

// IsTerminal reports whether no further transition is possible.
func (s RegisterStatus) IsTerminal() bool {
	return s == Removed || s == RegisterFailed
}

// registerEdges lists the statuses reachable in one step. Statuses up to
// Registered may also be skipped forward since the committee only reports
// the latest state it observed.
var registerEdges = map[RegisterStatus][]RegisterStatus{
	Registered:   {Challenging, Redeemed, Unregistered, Removed},
	Challenging:  {Slashed, Redeemed},
	Slashed:      {Removed},
	Redeemed:     {Removed},
	Unregistered: {Removed},
}

// CanAdvanceTo reports whether next is a valid successor of s.
func (s RegisterStatus) CanAdvanceTo(next RegisterStatus) bool {
	if s.IsTerminal() {
		return false
	}

	if s < Registered {
		return next > s && next <= Registered ||
			next == RegisterFailed
	}

	for _, candidate := range registerEdges[s] {
		if candidate == next {
			return true
		}
	}

	return false
}

// ExpectedTransaction returns the transaction type whose broadcast or
// confirmation moves a registration into this status.
func (s RegisterStatus) ExpectedTransaction() (TransactionType, bool) {
	switch s {
	case StakeTxReadyToSubmit, StakeTxSubmitted, StakeTxConfirmed:
		return StakeTx, true

	case Challenging:
		return ChallengeTx, true

	case Redeemed:
		return AssertTx, true

	case Slashed:
		return DisproveTx, true

	default:
		return 0, false
	}
}

// ChallengeStatus is the committee's view of a challenge against a proof.
type ChallengeStatus uint8

const (
	ChallengeNotExist ChallengeStatus = iota
	ChallengeCreated
	PartialAssertTxReady
	ChallengeTxReadyToSubmit
	ChallengeTxSubmitted
	ChallengeTxConfirmed
	AssertTxReadyToSubmit
	AssertTxSubmitted
	AssertTxConfirmed
	DisproveTxReadyToHandle
	DisproveTxHandling
	DisproveTxReadyToSubmit
	DisproveTxSubmitted
	DisproveTxConfirmed
	DisproveTxFailed
	ChallengeSucceed
	ChallengeFailed
)

var challengeStatusNames = &enumNames{
	kind: "challenge status",
	wire: []string{
		"challenge_not_exist", "challenge_created",
		"partial_assert_tx_ready", "challenge_tx_ready_to_submit",
		"challenge_tx_submitted", "challenge_tx_confirmed",
		"assert_tx_ready_to_submit", "assert_tx_submitted",
		"assert_tx_confirmed", "disprove_tx_ready_to_handle",
		"disprove_tx_handling", "disprove_tx_ready_to_submit",
		"disprove_tx_submitted", "disprove_tx_confirmed",
		"disprove_tx_failed", "challenge_succeed", "challenge_failed",
	},
	variant: []string{
		"ChallengeNotExist", "ChallengeCreated",
		"PartialAssertTxReady", "ChallengeTxReadyToSubmit",
		"ChallengeTxSubmitted", "ChallengeTxConfirmed",
		"AssertTxReadyToSubmit", "AssertTxSubmitted",
		"AssertTxConfirmed", "DisproveTxReadyToHandle",
		"DisproveTxHandling", "DisproveTxReadyToSubmit",
		"DisproveTxSubmitted", "DisproveTxConfirmed",
		"DisproveTxFailed", "ChallengeSucceed", "ChallengeFailed",
	},
}

func (s ChallengeStatus) String() string {
	return challengeStatusNames.name(int(s))
}

// ParseChallengeStatus parses either spelling of a challenge status.
func ParseChallengeStatus(s string) (ChallengeStatus, error) {
	i, err := challengeStatusNames.parse(s)
	return ChallengeStatus(i), err
}

func (s ChallengeStatus) MarshalJSON() ([]byte, error) {
	return challengeStatusNames.marshal(int(s))
}

func (s *ChallengeStatus) UnmarshalJSON(data []byte) error {
	i, err := challengeStatusNames.unmarshal(data)
	if err != nil {
		return err
	}
	*s = ChallengeStatus(i)

	return nil
}

// IsTerminal reports whether the challenge has been decided.
func (s ChallengeStatus) IsTerminal() bool {
	return s == ChallengeSucceed || s == ChallengeFailed
}

// CanAdvanceTo reports whether next is a valid successor of s. Intermediate
// statuses of the main chain may be skipped.
func (s ChallengeStatus) CanAdvanceTo(next ChallengeStatus) bool {
	if s.IsTerminal() {
		return false
	}

	switch next {
	case ChallengeSucceed:
		return s == DisproveTxConfirmed

	case ChallengeFailed:
		return true

	case DisproveTxFailed:
		return s >= DisproveTxReadyToHandle && s <= DisproveTxSubmitted
	}

	return s != DisproveTxFailed && next > s && next <= DisproveTxConfirmed
}

// ExpectedTransaction returns the transaction type the status is waiting
// for or has just observed.
func (s ChallengeStatus) ExpectedTransaction() (TransactionType, bool) {
	switch {
	case s >= ChallengeTxReadyToSubmit && s <= ChallengeTxConfirmed:
		return ChallengeTx, true

	case s == PartialAssertTxReady,
		s >= AssertTxReadyToSubmit && s <= AssertTxConfirmed:

		return AssertTx, true

	case s >= DisproveTxReadyToHandle && s <= DisproveTxFailed:
		return DisproveTx, true

	default:
		return 0, false
	}
}

// CircuitStatus is the committee's view of a registered circuit.
type CircuitStatus uint8

const (
	CircuitNotExist CircuitStatus = iota
	CircuitInitial
	CircuitHandling
	CircuitSplitted
	CircuitRegistered
	CircuitRemoved
	CircuitFailed
)

var circuitStatusNames = &enumNames{
	kind: "circuit status",
	wire: []string{
		"not_exist", "initial", "handling", "splitted", "registered",
		"removed", "failed",
	},
	variant: []string{
		"NotExist", "Initial", "Handling", "Splitted", "Registered",
		"Removed", "Failed",
	},
}

func (s CircuitStatus) String() string {
	return circuitStatusNames.name(int(s))
}

// ParseCircuitStatus parses either spelling of a circuit status.
func ParseCircuitStatus(s string) (CircuitStatus, error) {
	i, err := circuitStatusNames.parse(s)
	return CircuitStatus(i), err
}
