// Copyright (c) 2025 duskvale
// SPDX-License-Identifier: MIT

package mrs

// Variant identifies which of the four known MRS obfuscation schemes an
// archive uses, or ForcedRecovery for archives opened via the forensic
// scanner instead of normal directory parsing.
type Variant int

const (
	// Mrs1 applies no header obfuscation.
	Mrs1 Variant = iota + 1
	// Mrs2 applies the rotate+XOR ByteRotXor transform.
	Mrs2
	// Mrs3 applies the XorShift32 keystream transform.
	Mrs3
	// MG2 applies the FixedKey repeating-XOR transform.
	MG2
	// ForcedRecovery marks an archive whose trie was synthesized by the
	// recovery scanner rather than parsed from a central directory.
	ForcedRecovery
)

func (v Variant) String() string {
	switch v {
	case Mrs1:
		return "Mrs1"
	case Mrs2:
		return "Mrs2"
	case Mrs3:
		return "Mrs3"
	case MG2:
		return "MG2"
	case ForcedRecovery:
		return "ForcedRecovery"
	default:
		return "Unknown"
	}
}

// obfuscationKind selects the byte transform applied to a variant's fixed
// header regions (and, for some variants, entry names).
type obfuscationKind int

const (
	obfNone obfuscationKind = iota
	obfByteRotXor
	obfXorShift32
	obfFixedKey
)

// signatureSet is the per-variant tuple of valid signatures for each record
// kind, plus which obfuscation applies and (for Mrs3) the PRNG seed.
type signatureSet struct {
	variant        Variant
	localSigs      []uint32
	centralSigs    []uint32
	endSigs        []uint32
	obfuscation    obfuscationKind
	xorShiftSeed   uint32 // only meaningful when obfuscation == obfXorShift32
	obfuscateNames bool   // whether Obfuscation also covers entry-name bytes
}

// mrs3RecoverySeed is the only Mrs3 PRNG seed known to be in use.
const mrs3RecoverySeed uint32 = 0x7693D7FB

// Table S — per-variant signature constants (§6).
var signatureTable = map[Variant]signatureSet{
	Mrs1: {
		variant:     Mrs1,
		localSigs:   []uint32{0x85840000, 0x04034B50},
		centralSigs: []uint32{0x05024B80},
		endSigs:     []uint32{0xDD59FC12, 0x05030207},
		obfuscation: obfNone,
	},
	Mrs2: {
		variant:        Mrs2,
		localSigs:      []uint32{0x04034B50},
		centralSigs:    []uint32{0x02014B50},
		endSigs:        []uint32{0x05030208, 0x06054B50},
		obfuscation:    obfByteRotXor,
		obfuscateNames: true,
	},
	Mrs3: {
		variant:      Mrs3,
		localSigs:    []uint32{0x02014B50, 0x04034B50, 0xE96FCF7E},
		centralSigs:  []uint32{0x02014B50},
		endSigs:      []uint32{0x05030208},
		obfuscation:  obfXorShift32,
		xorShiftSeed: mrs3RecoverySeed,
	},
	MG2: {
		variant:     MG2,
		localSigs:   []uint32{0x04034B50, 0x1FDA6314},
		centralSigs: []uint32{0x02014B50, 0x8428CEF0},
		endSigs:     []uint32{0x05030208},
		obfuscation: obfFixedKey,
	},
}

// writeLocalSignature, writeCentralSignature, writeEndSignature are the
// signatures used when writing a fresh archive of a given variant: every
// local header uses 0x04034B50, while the central and end records use the
// variant's first signature in the respective table.
const writeLocalSignature uint32 = 0x04034B50

func (s signatureSet) writeCentralSignature() uint32 { return s.centralSigs[0] }
func (s signatureSet) writeEndSignature() uint32     { return s.endSigs[0] }

func signatureMatches(sig uint32, candidates []uint32) bool {
	for _, c := range candidates {
		if sig == c {
			return true
		}
	}
	return false
}

// Table M — recovery file-type magics: first 8 bytes of inflated data,
// little-endian, mapped to a file extension appended to the synthesized
// entry name.
var magicTable = []struct {
	magic uint64
	ext   string
}{
	{0x20000, ".tga"},
	{0x107F060, ".elu"},
	{0x235849298, ".rs.bsp"},
	{0x5050178F, ".rs.col"},
	{0x330671804, ".rs.lm"},
	{0xE11AB1A1E011CFD0, "_thumbs.db"},
	{0x464A1000E0FFD8FF, ".jpg"},
	{0x0A1A0A0D474E5089, ".png"},
	{0x7C20534444, ".dds"},
}

func extensionForMagic(magic uint64) (string, bool) {
	for _, m := range magicTable {
		if m.magic == magic {
			return m.ext, true
		}
	}
	return "", false
}
