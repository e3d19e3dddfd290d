package types

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"github.com/sudo696/ring/internal/blockutil"
)

// CoinbaseBuilder assembles the coinbase transaction for a block template.
// Construction is hand-rolled at the byte level (no transaction library)
// the same way the original pool coinbase builder worked: a bytes.Buffer
// and manual varints. Payout scriptPubKeys are supplied by the caller.
type CoinbaseBuilder struct {
	network string
}

// NewCoinbaseBuilder creates a builder for the given network ("mainnet",
// "testnet3", or "regtest"). The network is recorded on the builder;
// BuildCoinbase does not consult it.
func NewCoinbaseBuilder(network string) *CoinbaseBuilder {
	return &CoinbaseBuilder{network: network}
}

// BuildCoinbase builds the full coinbase transaction for one block
// template. proofScript, when non-empty, is appended as its own zero-value
// output after the payouts and witness commitment — this is how both the
// Hive proof and the Pop proof are carried on-chain.
func (cb *CoinbaseBuilder) BuildCoinbase(
	height int32,
	payouts []PayoutEntry,
	extraNonceSize int,
	witnessCommitment []byte,
	proofScript []byte,
) ([]byte, int, error) {
	var buf bytes.Buffer

	binary.Write(&buf, binary.LittleEndian, int32(2))

	buf.Write(blockutil.WriteVarInt(1))
	buf.Write(make([]byte, 32)) // null prevout hash
	binary.Write(&buf, binary.LittleEndian, uint32(0xffffffff))

	scriptSig := buildScriptSig(height, extraNonceSize)
	extranonceOffset := buf.Len() + len(blockutil.WriteVarInt(uint64(len(scriptSig)))) + len(scriptSig) - extraNonceSize

	buf.Write(blockutil.WriteVarInt(uint64(len(scriptSig))))
	buf.Write(scriptSig)

	binary.Write(&buf, binary.LittleEndian, uint32(0xffffffff))

	outputCount := len(payouts)
	if len(witnessCommitment) > 0 {
		outputCount++
	}
	if len(proofScript) > 0 {
		outputCount++
	}
	buf.Write(blockutil.WriteVarInt(uint64(outputCount)))

	for _, payout := range payouts {
		if len(payout.Script) == 0 {
			return nil, 0, fmt.Errorf("coinbase: payout has empty scriptPubKey")
		}
		binary.Write(&buf, binary.LittleEndian, payout.Amount)
		buf.Write(blockutil.WriteVarInt(uint64(len(payout.Script))))
		buf.Write(payout.Script)
	}

	if len(witnessCommitment) > 0 {
		binary.Write(&buf, binary.LittleEndian, int64(0))
		buf.Write(blockutil.WriteVarInt(uint64(len(witnessCommitment))))
		buf.Write(witnessCommitment)
	}

	if len(proofScript) > 0 {
		binary.Write(&buf, binary.LittleEndian, int64(0))
		buf.Write(blockutil.WriteVarInt(uint64(len(proofScript))))
		buf.Write(proofScript)
	}

	binary.Write(&buf, binary.LittleEndian, uint32(0))

	return buf.Bytes(), extranonceOffset, nil
}

// buildScriptSig builds the coinbase scriptSig: a BIP34 height push
// followed by a scratch extranonce area the miner fills in per attempt.
func buildScriptSig(height int32, extraNonceSize int) []byte {
	var buf bytes.Buffer
	buf.Write(serializeHeight(int64(height)))
	buf.Write(make([]byte, extraNonceSize))
	return buf.Bytes()
}

// serializeHeight serializes a block height as a CScriptNum data push, per
// BIP34. Heights 0 through 16 are written as a one-byte data push rather
// than the OP_0/OP_N opcode a minimal encoding would use.
func serializeHeight(height int64) []byte {
	if height <= 16 {
		if height == 0 {
			return []byte{0x01, 0x00}
		}
		return []byte{0x01, byte(height)}
	}

	h := height
	var heightBytes []byte
	for h > 0 {
		heightBytes = append(heightBytes, byte(h&0xff))
		h >>= 8
	}
	if heightBytes[len(heightBytes)-1]&0x80 != 0 {
		heightBytes = append(heightBytes, 0x00)
	}

	result := []byte{byte(len(heightBytes))}
	result = append(result, heightBytes...)
	return result
}

// AddCoinbaseWitness wraps a non-witness coinbase serialization with the
// segwit marker/flag and a zero witness-nonce stack item, for block
// submission once the Merkle root has been computed over the txid form.
func AddCoinbaseWitness(coinbase []byte) []byte {
	var buf bytes.Buffer
	buf.Write(coinbase[:4])
	buf.Write([]byte{0x00, 0x01})
	buf.Write(coinbase[4 : len(coinbase)-4])
	buf.Write(blockutil.WriteVarInt(1))
	buf.Write(blockutil.WriteVarInt(32))
	buf.Write(make([]byte, 32))
	buf.Write(coinbase[len(coinbase)-4:])
	return buf.Bytes()
}

// CoinbaseOutput is one parsed coinbase output.
type CoinbaseOutput struct {
	Value  int64
	Script []byte
}

// ParseCoinbaseOutputs parses a serialized (non-witness) coinbase
// transaction and returns all of its outputs.
func ParseCoinbaseOutputs(coinbaseTx []byte) ([]CoinbaseOutput, error) {
	if len(coinbaseTx) < 4 {
		return nil, fmt.Errorf("coinbase too short for version")
	}
	pos := 4

	inputCount, n, err := blockutil.ReadVarInt(coinbaseTx[pos:])
	if err != nil {
		return nil, fmt.Errorf("read input count: %w", err)
	}
	pos += n
	if inputCount != 1 {
		return nil, fmt.Errorf("expected 1 coinbase input, got %d", inputCount)
	}

	if pos+36 > len(coinbaseTx) {
		return nil, fmt.Errorf("coinbase too short for prev outpoint")
	}
	pos += 36

	scriptLen, n, err := blockutil.ReadVarInt(coinbaseTx[pos:])
	if err != nil {
		return nil, fmt.Errorf("read scriptSig length: %w", err)
	}
	pos += n
	if pos+int(scriptLen) > len(coinbaseTx) {
		return nil, fmt.Errorf("coinbase too short for scriptSig")
	}
	pos += int(scriptLen)

	if pos+4 > len(coinbaseTx) {
		return nil, fmt.Errorf("coinbase too short for sequence")
	}
	pos += 4

	outputCount, n, err := blockutil.ReadVarInt(coinbaseTx[pos:])
	if err != nil {
		return nil, fmt.Errorf("read output count: %w", err)
	}
	pos += n

	outputs := make([]CoinbaseOutput, 0, outputCount)
	for i := uint64(0); i < outputCount; i++ {
		if pos+8 > len(coinbaseTx) {
			return nil, fmt.Errorf("coinbase too short for output %d value", i)
		}
		value := int64(binary.LittleEndian.Uint64(coinbaseTx[pos : pos+8]))
		pos += 8

		spkLen, n, err := blockutil.ReadVarInt(coinbaseTx[pos:])
		if err != nil {
			return nil, fmt.Errorf("read output %d scriptPubKey length: %w", i, err)
		}
		pos += n
		if pos+int(spkLen) > len(coinbaseTx) {
			return nil, fmt.Errorf("coinbase too short for output %d scriptPubKey", i)
		}
		script := make([]byte, spkLen)
		copy(script, coinbaseTx[pos:pos+int(spkLen)])
		pos += int(spkLen)

		outputs = append(outputs, CoinbaseOutput{Value: value, Script: script})
	}

	return outputs, nil
}

// ValidateMinerInOutputs checks that at least one coinbase output pays to
// the expected scriptPubKey.
func ValidateMinerInOutputs(outputs []CoinbaseOutput, expectedScript []byte) error {
	for _, out := range outputs {
		if bytes.Equal(out.Script, expectedScript) {
			return nil
		}
	}
	return fmt.Errorf("expected scriptPubKey not found in any coinbase output")
}
