// Copyright (c) 2025 duskvale
// SPDX-License-Identifier: MIT

package mrs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestByteRotXorIsInvolutionPair(t *testing.T) {
	original := []byte{0x00, 0x01, 0x7F, 0x80, 0xFF, 0x42, 0x99}
	data := append([]byte(nil), original...)

	byteRotXorObfuscate(data)
	assert.NotEqual(t, original, data)

	byteRotXorRecover(data)
	assert.Equal(t, original, data)
}

func TestByteRotXorKnownValue(t *testing.T) {
	// obfuscate(0x00) = rotl8(0x00^0xFF, 3) = rotl8(0xFF, 3) = 0xFF
	data := []byte{0x00}
	byteRotXorObfuscate(data)
	assert.Equal(t, byte(0xFF), data[0])

	byteRotXorRecover(data)
	assert.Equal(t, byte(0x00), data[0])
}

func TestXorShift32SeedDerivation(t *testing.T) {
	state := xorShift32State(mrs3RecoverySeed)
	assert.Equal(t, uint32(0xA8723D68), state)
}

func TestXorShift32KeystreamDeterministic(t *testing.T) {
	want := []byte{
		0x67, 0x1a, 0x36, 0x14, 0x9a, 0xaa, 0x28, 0x38,
		0xc7, 0x78, 0x04, 0x82, 0x69, 0x57, 0x8f, 0xae,
	}

	data := make([]byte, len(want))
	xorShift32Apply(data, mrs3RecoverySeed)
	assert.Equal(t, want, data)
}

func TestXorShift32IsSelfInverse(t *testing.T) {
	original := []byte("the quick brown fox jumps over the lazy dog 0123456789")
	data := append([]byte(nil), original...)

	xorShift32Apply(data, mrs3RecoverySeed)
	assert.NotEqual(t, original, data)

	xorShift32Apply(data, mrs3RecoverySeed)
	assert.Equal(t, original, data)
}

func TestFixedKeyIsSelfInverse(t *testing.T) {
	original := make([]byte, 40)
	for i := range original {
		original[i] = byte(i * 7)
	}
	data := append([]byte(nil), original...)

	fixedKeyApply(data)
	assert.NotEqual(t, original, data)

	fixedKeyApply(data)
	assert.Equal(t, original, data)
}

func TestFixedKeyMatchesRepeatingKeyTable(t *testing.T) {
	data := make([]byte, len(fixedKeyBytes))
	fixedKeyApply(data)
	assert.Equal(t, fixedKeyBytes[:], data)
}

func TestRecoverObfuscateRoundTripAllVariants(t *testing.T) {
	for variant, set := range signatureTable {
		t.Run(variant.String(), func(t *testing.T) {
			original := []byte{0x50, 0x4B, 0x03, 0x04, 0x0A, 0x00, 0x00, 0x00}
			data := append([]byte(nil), original...)

			obfuscateHeader(data, set)
			recoverHeader(data, set)

			assert.Equal(t, original, data)
		})
	}
}
