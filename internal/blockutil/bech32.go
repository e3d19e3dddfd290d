package blockutil

import "fmt"

// AddressToScript converts a bech32/bech32m witness address to its
// scriptPubKey. Only segwit (P2WPKH/P2WSH/taproot witness program) addresses
// are supported, matching what a coinbase payout needs.
func AddressToScript(address, network string) ([]byte, error) {
	prefix := "tb1"
	switch network {
	case "mainnet":
		prefix = "bc1"
	case "regtest":
		prefix = "bcrt1"
	}

	if len(address) > len(prefix) && address[:len(prefix)] == prefix {
		return bech32AddressToScript(address)
	}

	return nil, fmt.Errorf("unsupported address format: %s (only bech32 witness addresses supported)", address)
}

// ValidateAddress reports whether address decodes cleanly for network.
func ValidateAddress(address, network string) error {
	_, err := AddressToScript(address, network)
	return err
}

func bech32AddressToScript(address string) ([]byte, error) {
	_, data, err := bech32Decode(address)
	if err != nil {
		return nil, fmt.Errorf("bech32 decode: %w", err)
	}
	if len(data) < 1 {
		return nil, fmt.Errorf("empty bech32 data")
	}

	witnessVersion := data[0]
	witnessProgram, err := convertBits(data[1:], 5, 8, false)
	if err != nil {
		return nil, fmt.Errorf("convert bits: %w", err)
	}

	var script []byte
	if witnessVersion == 0 {
		script = append(script, 0x00)
	} else {
		script = append(script, 0x50+witnessVersion)
	}
	script = append(script, byte(len(witnessProgram)))
	script = append(script, witnessProgram...)

	return script, nil
}

// bech32Decode decodes a bech32/bech32m string with full checksum
// verification, returning the human-readable part and the 5-bit data
// words (checksum stripped).
func bech32Decode(s string) (string, []byte, error) {
	sepIdx := -1
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '1' {
			sepIdx = i
			break
		}
	}
	if sepIdx < 1 || sepIdx+7 > len(s) {
		return "", nil, fmt.Errorf("invalid bech32 separator position")
	}

	hrp := s[:sepIdx]
	dataStr := s[sepIdx+1:]

	const charset = "qpzry9x8gf2tvdw0s3jn54khce6mua7l"
	charMap := make(map[byte]byte, len(charset))
	for i, c := range charset {
		charMap[byte(c)] = byte(i)
	}

	data := make([]byte, len(dataStr))
	for i := 0; i < len(dataStr); i++ {
		c := dataStr[i]
		if c >= 'A' && c <= 'Z' {
			c = c - 'A' + 'a'
		}
		val, ok := charMap[c]
		if !ok {
			return "", nil, fmt.Errorf("invalid bech32 character: %c", c)
		}
		data[i] = val
	}

	if len(data) < 6 {
		return "", nil, fmt.Errorf("bech32 data too short")
	}

	check := bech32Polymod(bech32HRPExpand(hrp), data)
	if check != 1 && check != 0x2bc830a3 {
		return "", nil, fmt.Errorf("invalid bech32 checksum")
	}

	return hrp, data[:len(data)-6], nil
}

func bech32Polymod(hrpExp, data []byte) uint32 {
	gen := [5]uint32{0x3b6a57b2, 0x26508e6d, 0x1ea119fa, 0x3d4233dd, 0x2a1462b3}
	chk := uint32(1)
	step := func(v byte) {
		b := chk >> 25
		chk = (chk&0x1ffffff)<<5 ^ uint32(v)
		for i := 0; i < 5; i++ {
			if (b>>uint(i))&1 == 1 {
				chk ^= gen[i]
			}
		}
	}
	for _, v := range hrpExp {
		step(v)
	}
	for _, v := range data {
		step(v)
	}
	return chk
}

func bech32HRPExpand(hrp string) []byte {
	ret := make([]byte, 0, len(hrp)*2+1)
	for _, c := range hrp {
		ret = append(ret, byte(c>>5))
	}
	ret = append(ret, 0)
	for _, c := range hrp {
		ret = append(ret, byte(c&31))
	}
	return ret
}

func convertBits(data []byte, fromBits, toBits uint, pad bool) ([]byte, error) {
	acc := uint32(0)
	bits := uint(0)
	var result []byte
	maxv := uint32((1 << toBits) - 1)

	for _, val := range data {
		acc = (acc << fromBits) | uint32(val)
		bits += fromBits
		for bits >= toBits {
			bits -= toBits
			result = append(result, byte((acc>>bits)&maxv))
		}
	}

	if pad {
		if bits > 0 {
			result = append(result, byte((acc<<(toBits-bits))&maxv))
		}
	} else if bits >= fromBits {
		return nil, fmt.Errorf("invalid padding")
	} else if (acc<<(toBits-bits))&maxv != 0 {
		return nil, fmt.Errorf("non-zero padding")
	}

	return result, nil
}
