// Copyright (c) 2025 duskvale
// SPDX-License-Identifier: MIT

package mrs

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"log/slog"
	"os"

	"github.com/klauspost/compress/flate"
)

// detectVariant applies the signature probing ladder of §4.E step 3 to the
// first 4 bytes of an archive, in the mandated order. A zero-entry archive
// consists of its end record alone, so the Mrs1 and Mrs2 steps also accept
// that variant's end-record signatures.
func detectVariant(s0 uint32) (Variant, error) {
	if s0 == 0x85840000 || s0 == 0x04034B50 || signatureMatches(s0, signatureTable[Mrs1].endSigs) {
		return Mrs1, nil
	}

	recovered := make([]byte, 4)
	binary.LittleEndian.PutUint32(recovered, s0)
	byteRotXorRecover(recovered)
	if r := binary.LittleEndian.Uint32(recovered); r == 0x04034B50 || signatureMatches(r, signatureTable[Mrs2].endSigs) {
		return Mrs2, nil
	}

	if s0 == 0x1FDA6314 {
		return MG2, nil
	}

	mrs3Bytes := make([]byte, 4)
	binary.LittleEndian.PutUint32(mrs3Bytes, s0)
	xorShift32Apply(mrs3Bytes, mrs3RecoverySeed)
	if binary.LittleEndian.Uint32(mrs3Bytes) == 0x02014B50 {
		return Mrs3, nil
	}

	return 0, ErrUnknownVariant
}

// open implements the strict (non-recovery) open path: detect variant,
// locate and validate the end record, then populate trie from either the
// real central directory (Mrs1/Mrs2) or a synthesized walk of local headers
// (Mrs3/MG2).
func open(path string) (*Archive, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mrs: open %s: %w", path, err)
	}

	var sigBuf [4]byte
	if _, err := io.ReadFull(f, sigBuf[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("mrs: read signature: %w", err)
	}
	s0 := binary.LittleEndian.Uint32(sigBuf[:])

	variant, err := detectVariant(s0)
	if err != nil {
		f.Close()
		return nil, err
	}
	set := signatureTable[variant]

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mrs: stat %s: %w", path, err)
	}
	fileSize := info.Size()
	if fileSize < endRecordSize {
		f.Close()
		return nil, ErrTruncatedArchive
	}

	if _, err := f.Seek(fileSize-endRecordSize, io.SeekStart); err != nil {
		f.Close()
		return nil, fmt.Errorf("mrs: seek end record: %w", err)
	}
	var endBuf [endRecordSize]byte
	if _, err := io.ReadFull(f, endBuf[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("mrs: read end record: %w", err)
	}
	recoverHeader(endBuf[:], set)
	end, err := readEndRecord(bytes.NewReader(endBuf[:]))
	if err != nil {
		f.Close()
		return nil, err
	}
	if !signatureMatches(end.Signature, set.endSigs) {
		f.Close()
		return nil, fmt.Errorf("%w: end record", ErrBadSignature)
	}

	arc := &Archive{
		file:    f,
		path:    path,
		variant: variant,
		trie:    newPathTrie(),
	}

	if variant == Mrs3 || variant == MG2 {
		if err := arc.buildTreeFromLocalHeaders(end, fileSize); err != nil {
			f.Close()
			return nil, err
		}
	} else {
		if int64(end.DirOffset) > fileSize {
			f.Close()
			return nil, fmt.Errorf("%w: central directory offset %d past end of file", ErrTruncatedArchive, end.DirOffset)
		}
		if err := arc.buildTreeFromCentralDirectory(end); err != nil {
			f.Close()
			return nil, err
		}
	}

	return arc, nil
}

// buildTreeFromCentralDirectory implements §4.E step 5's Mrs1/Mrs2 path.
func (a *Archive) buildTreeFromCentralDirectory(end endRecord) error {
	set := signatureTable[a.variant]

	if _, err := a.file.Seek(int64(end.DirOffset), io.SeekStart); err != nil {
		return fmt.Errorf("mrs: seek central directory: %w", err)
	}

	for i := uint16(0); i < end.EntriesOnDisk; i++ {
		var hdrBuf [centralHeaderSize]byte
		if _, err := io.ReadFull(a.file, hdrBuf[:]); err != nil {
			return fmt.Errorf("mrs: read central header %d: %w", i, err)
		}
		recoverHeader(hdrBuf[:], set)
		hdr, err := readCentralHeader(bytes.NewReader(hdrBuf[:]))
		if err != nil {
			return err
		}
		if !signatureMatches(hdr.Signature, set.centralSigs) {
			slog.Warn("mrs: skipping central header with bad signature",
				"index", i, "signature", fmt.Sprintf("0x%08X", hdr.Signature))
			if _, err := a.file.Seek(int64(hdr.NameLen)+int64(hdr.ExtraLen)+int64(hdr.CommentLen), io.SeekCurrent); err != nil {
				return fmt.Errorf("mrs: seek past skipped header: %w", err)
			}
			continue
		}

		nameBuf := make([]byte, hdr.NameLen)
		if _, err := io.ReadFull(a.file, nameBuf); err != nil {
			return fmt.Errorf("mrs: read entry name: %w", err)
		}
		if set.obfuscateNames {
			recoverHeader(nameBuf, set)
		}

		if _, err := a.file.Seek(int64(hdr.ExtraLen)+int64(hdr.CommentLen), io.SeekCurrent); err != nil {
			return fmt.Errorf("mrs: seek past extra/comment: %w", err)
		}

		a.trie.Insert(string(nameBuf), &EntryInfo{
			UncompressedSize:  hdr.UncompressedSize,
			CompressedSize:    hdr.CompressedSize,
			LocalHeaderOffset: hdr.LocalHeaderOffset,
			Crc32:             hdr.Crc32,
			LastModified:      hdr.LastModified,
		})
	}

	return nil
}

// buildTreeFromLocalHeaders implements §4.E step 5's Mrs3/MG2 path: the
// central directory is synthesized by walking local headers from offset 0.
func (a *Archive) buildTreeFromLocalHeaders(end endRecord, fileSize int64) error {
	set := signatureTable[a.variant]

	if _, err := a.file.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("mrs: seek start: %w", err)
	}

	offset := int64(0)
	for i := uint16(0); i < end.EntriesOnDisk; i++ {
		if offset+localHeaderSize > fileSize {
			break
		}
		if _, err := a.file.Seek(offset, io.SeekStart); err != nil {
			return fmt.Errorf("mrs: seek local header %d: %w", i, err)
		}

		var hdrBuf [localHeaderSize]byte
		if _, err := io.ReadFull(a.file, hdrBuf[:]); err != nil {
			return fmt.Errorf("mrs: read local header %d: %w", i, err)
		}
		recoverHeader(hdrBuf[:], set)
		hdr, err := readLocalHeader(bytes.NewReader(hdrBuf[:]))
		if err != nil {
			return err
		}

		nameBuf := make([]byte, hdr.NameLen)
		if _, err := io.ReadFull(a.file, nameBuf); err != nil {
			return fmt.Errorf("mrs: read entry name %d: %w", i, err)
		}
		if set.obfuscateNames {
			recoverHeader(nameBuf, set)
		}

		a.trie.Insert(string(nameBuf), &EntryInfo{
			UncompressedSize:  hdr.UncompressedSize,
			CompressedSize:    hdr.CompressedSize,
			LocalHeaderOffset: uint32(offset),
			Crc32:             hdr.Crc32,
			LastModified:      hdr.LastModified,
		})

		offset += localHeaderSize + int64(hdr.NameLen) + int64(hdr.ExtraLen) + int64(hdr.CompressedSize)
	}

	return nil
}

// get implements §4.E's get operation.
func (a *Archive) get(archivePath string) ([]byte, error) {
	node := a.trie.Lookup(archivePath)
	if node == nil || !node.IsFile() {
		return nil, ErrNotFound
	}
	entry, _ := node.Entry()

	return a.readEntry(entry)
}

// readEntry seeks to entry's local header, verifies/skips it for non-forced
// variants, and returns the decompressed, CRC-checked payload.
//
// ForcedRecovery entries are special: LocalHeaderOffset was synthesized by
// the recovery scanner to point directly at the start of the deflate stream
// it probed (see probeInflateOffsets), not at a real 30-byte local header, so
// there is nothing to read or skip before the payload.
//
// A payload that fails to inflate still goes through the CRC check: if the
// partial output's CRC differs from the stored one, the error is
// ErrCrcMismatch wrapping ErrInflate; otherwise it is ErrInflate alone.
func (a *Archive) readEntry(entry EntryInfo) ([]byte, error) {
	set := signatureTable[a.variant]

	if _, err := a.file.Seek(int64(entry.LocalHeaderOffset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("mrs: seek local header: %w", err)
	}

	if a.variant != ForcedRecovery {
		var hdrBuf [localHeaderSize]byte
		if _, err := io.ReadFull(a.file, hdrBuf[:]); err != nil {
			return nil, fmt.Errorf("mrs: read local header: %w", err)
		}
		recoverHeader(hdrBuf[:], set)
		hdr, err := readLocalHeader(bytes.NewReader(hdrBuf[:]))
		if err != nil {
			return nil, err
		}

		if !signatureMatches(hdr.Signature, set.localSigs) {
			return nil, fmt.Errorf("%w: local header", ErrBadSignature)
		}

		if _, err := a.file.Seek(int64(hdr.NameLen)+int64(hdr.ExtraLen), io.SeekCurrent); err != nil {
			return nil, fmt.Errorf("mrs: seek past name/extra: %w", err)
		}
	}

	var inflateErr error
	out := make([]byte, entry.UncompressedSize)
	if entry.CompressedSize == entry.UncompressedSize {
		if _, err := io.ReadFull(a.file, out); err != nil {
			return nil, fmt.Errorf("mrs: read stored payload: %w", err)
		}
	} else {
		compressed := make([]byte, entry.CompressedSize)
		if _, err := io.ReadFull(a.file, compressed); err != nil {
			return nil, fmt.Errorf("mrs: read compressed payload: %w", err)
		}
		fr := flate.NewReader(bytes.NewReader(compressed))
		defer fr.Close()
		if _, err := io.ReadFull(fr, out); err != nil {
			inflateErr = fmt.Errorf("%w: %v", ErrInflate, err)
		}
	}

	if crc32.ChecksumIEEE(out) != entry.Crc32 {
		if inflateErr != nil {
			return nil, fmt.Errorf("%w: %w", ErrCrcMismatch, inflateErr)
		}
		return nil, ErrCrcMismatch
	}
	if inflateErr != nil {
		return nil, inflateErr
	}

	return out, nil
}
