package btc

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/btcsuite/btcd/btcec/v2/schnorr"
)

const (
	descriptorCharset = "0123456789()[],'/*abcdefgh@:$%{}" +
		"IJKLMNOPQRSTUVWXYZ&+-.;<=>?!^_|~" +
		"ijklmnopqrstuvwxyzABCDEFGH`#\"\\ "
	checksumCharset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"
	checksumLen     = 8
)

var polymodGenerator = [5]uint64{
	0xf5dee51989, 0xa9fdca3312, 0x1bab10e32d, 0x3706b1677a, 0x644d626ffd,
}

func polymod(symbols []uint64) uint64 {
	chk := uint64(1)
	for _, value := range symbols {
		top := chk >> 35
		chk = (chk&0x7ffffffff)<<5 ^ value
		for i, gen := range polymodGenerator {
			if (top>>i)&1 != 0 {
				chk ^= gen
			}
		}
	}

	return chk
}

// expandDescriptor maps a descriptor to checksum symbols. Each character
// contributes its low five bits, the high bits of three characters are
// packed into one extra symbol.
func expandDescriptor(desc string) ([]uint64, error) {
	var (
		symbols []uint64
		groups  []uint64
	)
	for _, c := range desc {
		pos := strings.IndexRune(descriptorCharset, c)
		if pos < 0 {
			return nil, fmt.Errorf("invalid descriptor character %q",
				c)
		}

		symbols = append(symbols, uint64(pos&31))
		groups = append(groups, uint64(pos>>5))
		if len(groups) == 3 {
			symbols = append(
				symbols, groups[0]*9+groups[1]*3+groups[2],
			)
			groups = groups[:0]
		}
	}

	switch len(groups) {
	case 1:
		symbols = append(symbols, groups[0])
	case 2:
		symbols = append(symbols, groups[0]*3+groups[1])
	}

	return symbols, nil
}

// DescriptorChecksum computes the eight character checksum of an output
// descriptor.
func DescriptorChecksum(desc string) (string, error) {
	symbols, err := expandDescriptor(desc)
	if err != nil {
		return "", err
	}

	symbols = append(symbols, make([]uint64, checksumLen)...)
	sum := polymod(symbols) ^ 1

	var checksum strings.Builder
	for i := 0; i < checksumLen; i++ {
		shift := 5 * (checksumLen - 1 - i)
		checksum.WriteByte(checksumCharset[(sum>>shift)&31])
	}

	return checksum.String(), nil
}

// AddDescriptorChecksum appends "#checksum" to a descriptor.
func AddDescriptorChecksum(desc string) (string, error) {
	checksum, err := DescriptorChecksum(desc)
	if err != nil {
		return "", err
	}

	return desc + "#" + checksum, nil
}

// VerifyDescriptorChecksum checks the checksum of a descriptor. A descriptor
// without checksum only passes if required is false.
func VerifyDescriptorChecksum(desc string, required bool) bool {
	body, checksum, found := strings.Cut(desc, "#")
	if !found {
		return !required
	}

	if len(checksum) != checksumLen {
		return false
	}

	expected, err := DescriptorChecksum(body)
	if err != nil {
		return false
	}

	return expected == checksum
}

// TaprootDescriptor returns the tr() descriptor of the BIP86 output of the
// given internal key, with checksum.
func TaprootDescriptor(internalKey *btcec.PublicKey) (string, error) {
	desc := fmt.Sprintf(
		"tr(%s)", hex.EncodeToString(schnorr.SerializePubKey(internalKey)),
	)

	return AddDescriptorChecksum(desc)
}
