// Copyright (c) 2025 duskvale
// SPDX-License-Identifier: MIT

package mrs

import (
	"bytes"
	"fmt"
	"hash/crc32"
	"os"

	"github.com/klauspost/compress/flate"
)

// writableVariants is the set of variants Create can emit. Mrs3 and MG2
// writing is not required (§4.F, §9); attempting either returns
// ErrUnsupportedVariant rather than silently emitting unobfuscated headers
// under those variants' signatures.
var writableVariants = map[Variant]bool{
	Mrs1: true,
	Mrs2: true,
}

// pendingEntry is a fully-written local header plus the central header
// describing it, accumulated while traversing the source trie.
type pendingEntry struct {
	central centralHeader
	name    string
}

// Create traverses a's trie and writes a new archive at path under variant,
// reading each entry's plaintext via a.readEntry (the decode path GetFile
// uses) before recompressing for the
// destination variant. It requires a to already be open (Open/OpenForced):
// addFile/removeFile are not supported, so Create only ever re-serializes an
// archive's existing contents.
func (a *Archive) Create(path string, variant Variant) error {
	if !writableVariants[variant] {
		return fmt.Errorf("%w: %s", ErrUnsupportedVariant, variant)
	}
	set := signatureTable[variant]

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("mrs: create %s: %w", path, err)
	}
	defer out.Close()

	var offset uint32
	var pending []pendingEntry

	var walkErr error
	a.trie.Traverse("", func(fullPath string, node *TrieNode) {
		if walkErr != nil || !node.IsFile() {
			return
		}
		entry, _ := node.Entry()

		plaintext, err := a.readEntry(entry)
		if err != nil {
			walkErr = fmt.Errorf("mrs: read %s for recompression: %w", fullPath, err)
			return
		}

		var compressedBuf bytes.Buffer
		fw, err := flate.NewWriter(&compressedBuf, flate.DefaultCompression)
		if err != nil {
			walkErr = err
			return
		}
		if _, err := fw.Write(plaintext); err != nil {
			walkErr = fmt.Errorf("mrs: deflate %s: %w", fullPath, err)
			return
		}
		if err := fw.Close(); err != nil {
			walkErr = fmt.Errorf("mrs: finalize deflate %s: %w", fullPath, err)
			return
		}
		compressed := compressedBuf.Bytes()

		central := centralHeader{
			Signature:         set.writeCentralSignature(),
			Version:           25,
			MinVersion:        20,
			Flags:             0,
			Compression:       8,
			LastModified:      entry.LastModified,
			Crc32:             crc32.ChecksumIEEE(plaintext),
			CompressedSize:    uint32(len(compressed)),
			UncompressedSize:  uint32(len(plaintext)),
			NameLen:           uint16(len(fullPath)),
			LocalHeaderOffset: offset,
		}

		local := localHeader{
			Signature:        writeLocalSignature,
			Version:          central.Version,
			Flags:            central.Flags,
			Compression:      central.Compression,
			LastModified:     central.LastModified,
			Crc32:            central.Crc32,
			CompressedSize:   central.CompressedSize,
			UncompressedSize: central.UncompressedSize,
			NameLen:          central.NameLen,
			ExtraLen:         0,
		}

		localBuf := new(bytes.Buffer)
		if err := writeLocalHeader(localBuf, local); err != nil {
			walkErr = err
			return
		}
		localBytes := localBuf.Bytes()
		obfuscateHeader(localBytes, set)

		nameBytes := []byte(fullPath)
		if set.obfuscateNames {
			obfuscateHeader(nameBytes, set)
		}

		if _, err := out.Write(localBytes); err != nil {
			walkErr = fmt.Errorf("mrs: write local header for %s: %w", fullPath, err)
			return
		}
		if _, err := out.Write(nameBytes); err != nil {
			walkErr = fmt.Errorf("mrs: write name for %s: %w", fullPath, err)
			return
		}
		if _, err := out.Write(compressed); err != nil {
			walkErr = fmt.Errorf("mrs: write payload for %s: %w", fullPath, err)
			return
		}

		written := localHeaderSize + len(nameBytes) + len(compressed)
		offset += uint32(written)
		pending = append(pending, pendingEntry{central: central, name: fullPath})
	})
	if walkErr != nil {
		return walkErr
	}

	dirOffset := offset
	for _, p := range pending {
		hdrBuf := new(bytes.Buffer)
		if err := writeCentralHeader(hdrBuf, p.central); err != nil {
			return err
		}
		hdrBytes := hdrBuf.Bytes()
		obfuscateHeader(hdrBytes, set)

		nameBytes := []byte(p.name)
		if set.obfuscateNames {
			obfuscateHeader(nameBytes, set)
		}

		if _, err := out.Write(hdrBytes); err != nil {
			return fmt.Errorf("mrs: write central header for %s: %w", p.name, err)
		}
		if _, err := out.Write(nameBytes); err != nil {
			return fmt.Errorf("mrs: write central name for %s: %w", p.name, err)
		}
		offset += uint32(centralHeaderSize + len(nameBytes))
	}
	dirSize := offset - dirOffset

	end := endRecord{
		Signature:     set.writeEndSignature(),
		EntriesOnDisk: uint16(len(pending)),
		EntriesTotal:  uint16(len(pending)),
		DirSize:       dirSize,
		DirOffset:     dirOffset,
	}
	endBuf := new(bytes.Buffer)
	if err := writeEndRecord(endBuf, end); err != nil {
		return err
	}
	endBytes := endBuf.Bytes()
	obfuscateHeader(endBytes, set)
	if _, err := out.Write(endBytes); err != nil {
		return fmt.Errorf("mrs: write end record: %w", err)
	}

	return nil
}

// CreateEmpty writes a zero-entry archive at path under variant: just an
// obfuscated end-of-directory record describing no entries.
func CreateEmpty(path string, variant Variant) error {
	if !writableVariants[variant] {
		return fmt.Errorf("%w: %s", ErrUnsupportedVariant, variant)
	}
	set := signatureTable[variant]

	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("mrs: create %s: %w", path, err)
	}
	defer out.Close()

	end := endRecord{Signature: set.writeEndSignature()}
	endBuf := new(bytes.Buffer)
	if err := writeEndRecord(endBuf, end); err != nil {
		return err
	}
	endBytes := endBuf.Bytes()
	obfuscateHeader(endBytes, set)
	_, err = out.Write(endBytes)
	return err
}
