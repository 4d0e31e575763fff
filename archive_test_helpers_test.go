// Copyright (c) 2025 duskvale
// SPDX-License-Identifier: MIT

package mrs

import (
	"bytes"
	"hash/crc32"
	"testing"

	"github.com/klauspost/compress/flate"
	"github.com/stretchr/testify/require"
)

// testFile is one file entry to embed in a synthetically built archive.
type testFile struct {
	name string
	data []byte
}

// buildTestArchive writes a minimal, well-formed archive of variant
// containing files, using the same wire-format/obfuscation primitives the
// production reader/writer use, and returns its raw bytes. This exercises
// the wire format independent of Create (which requires an already-open
// source Archive).
func buildTestArchive(t *testing.T, variant Variant, files []testFile) []byte {
	t.Helper()
	set := signatureTable[variant]

	var out bytes.Buffer
	var offset uint32
	type central struct {
		hdr  centralHeader
		name string
	}
	var centrals []central

	for _, tf := range files {
		var compressedBuf bytes.Buffer
		fw, err := flate.NewWriter(&compressedBuf, flate.DefaultCompression)
		require.NoError(t, err)
		_, err = fw.Write(tf.data)
		require.NoError(t, err)
		require.NoError(t, fw.Close())
		compressed := compressedBuf.Bytes()

		ch := centralHeader{
			Signature:         set.writeCentralSignature(),
			Version:           25,
			MinVersion:        20,
			Compression:       8,
			LastModified:      NewDosTime(0, 0, 0, 1, 1, 20),
			Crc32:             crc32.ChecksumIEEE(tf.data),
			CompressedSize:    uint32(len(compressed)),
			UncompressedSize:  uint32(len(tf.data)),
			NameLen:           uint16(len(tf.name)),
			LocalHeaderOffset: offset,
		}
		lh := localHeader{
			Signature:        writeLocalSignature,
			Version:          ch.Version,
			Compression:      ch.Compression,
			LastModified:     ch.LastModified,
			Crc32:            ch.Crc32,
			CompressedSize:   ch.CompressedSize,
			UncompressedSize: ch.UncompressedSize,
			NameLen:          ch.NameLen,
		}

		lhBuf := new(bytes.Buffer)
		require.NoError(t, writeLocalHeader(lhBuf, lh))
		lhBytes := lhBuf.Bytes()
		obfuscateHeader(lhBytes, set)

		nameBytes := []byte(tf.name)
		if set.obfuscateNames {
			obfuscateHeader(nameBytes, set)
		}

		out.Write(lhBytes)
		out.Write(nameBytes)
		out.Write(compressed)

		offset += uint32(localHeaderSize + len(nameBytes) + len(compressed))
		centrals = append(centrals, central{hdr: ch, name: tf.name})
	}

	dirOffset := offset
	for _, c := range centrals {
		chBuf := new(bytes.Buffer)
		require.NoError(t, writeCentralHeader(chBuf, c.hdr))
		chBytes := chBuf.Bytes()
		obfuscateHeader(chBytes, set)

		nameBytes := []byte(c.name)
		if set.obfuscateNames {
			obfuscateHeader(nameBytes, set)
		}

		out.Write(chBytes)
		out.Write(nameBytes)
		offset += uint32(centralHeaderSize + len(nameBytes))
	}
	dirSize := offset - dirOffset

	end := endRecord{
		Signature:     set.writeEndSignature(),
		EntriesOnDisk: uint16(len(centrals)),
		EntriesTotal:  uint16(len(centrals)),
		DirSize:       dirSize,
		DirOffset:     dirOffset,
	}
	endBuf := new(bytes.Buffer)
	require.NoError(t, writeEndRecord(endBuf, end))
	endBytes := endBuf.Bytes()
	obfuscateHeader(endBytes, set)
	out.Write(endBytes)

	return out.Bytes()
}
