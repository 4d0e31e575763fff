// Copyright (c) 2025 duskvale
// SPDX-License-Identifier: MIT

package mrs

import "math/bits"

// fixedKeyBytes is the 18-byte repeating XOR key used by the MG2 variant.
var fixedKeyBytes = [18]byte{
	15, 175, 42, 3, 133, 66, 147, 103, 210, 220, 162, 64, 141, 113, 153, 247, 191, 153,
}

// recoverHeader applies the "recover" direction of a variant's obfuscation
// to data in place: the direction a reader uses to undo obfuscation found on
// disk. Payload DEFLATE streams are never passed through this function.
func recoverHeader(data []byte, set signatureSet) {
	switch set.obfuscation {
	case obfNone:
		return
	case obfByteRotXor:
		byteRotXorRecover(data)
	case obfXorShift32:
		xorShift32Apply(data, set.xorShiftSeed)
	case obfFixedKey:
		fixedKeyApply(data)
	}
}

// obfuscateHeader applies the "obfuscate" direction: the direction a writer
// uses to produce the on-disk representation from plain header bytes.
func obfuscateHeader(data []byte, set signatureSet) {
	switch set.obfuscation {
	case obfNone:
		return
	case obfByteRotXor:
		byteRotXorObfuscate(data)
	case obfXorShift32:
		// XorShift32 is a symmetric keystream XOR: the same routine is
		// both encode and decode.
		xorShift32Apply(data, set.xorShiftSeed)
	case obfFixedKey:
		// FixedKey XOR is self-inverse.
		fixedKeyApply(data)
	}
}

// byteRotXorRecover undoes the ByteRotXor transform (Mrs2): for each byte b,
// recover = rotate_right_8(b, 3) XOR 0xFF.
func byteRotXorRecover(data []byte) {
	for i, b := range data {
		data[i] = bits.RotateLeft8(b, -3) ^ 0xFF
	}
}

// byteRotXorObfuscate applies the ByteRotXor transform (Mrs2): for each byte
// b, obfuscate = rotate_left_8(b XOR 0xFF, 3).
func byteRotXorObfuscate(data []byte) {
	for i, b := range data {
		data[i] = bits.RotateLeft8(b^0xFF, 3)
	}
}

// xorShift32State derives the xorshift32 generator's initial state from a
// seed: state = (seed ^ 0xDEAD1234) + 0x00337799, wrapping at 32 bits.
func xorShift32State(seed uint32) uint32 {
	return (seed ^ 0xDEAD1234) + 0x00337799
}

// xorShift32Advance performs one xorshift32 step.
func xorShift32Advance(state uint32) uint32 {
	state ^= state << 13
	state ^= state >> 17
	state ^= state << 5
	return state
}

// xorShift32Apply XORs data in place with the Mrs3 keystream derived from
// seed. The same routine serves as both encode and decode since XOR with a
// keystream is self-inverse.
func xorShift32Apply(data []byte, seed uint32) {
	state := xorShift32State(seed)
	for i := range data {
		if i%4 == 0 {
			state = xorShift32Advance(state)
		}
		keystreamByte := byte(state >> ((i % 4) * 8))
		data[i] ^= keystreamByte
	}
}

// fixedKeyApply XORs data in place with the repeating 18-byte MG2 key. It is
// self-inverse.
func fixedKeyApply(data []byte) {
	for i := range data {
		data[i] ^= fixedKeyBytes[i%len(fixedKeyBytes)]
	}
}
