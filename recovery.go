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

// openForced implements the forensic recovery scanner used when open fails:
// a best-effort reconstruction of payloads from a file that lacks a usable
// central directory.
func openForced(path string) (*Archive, error) {
	slog.Info("mrs: attempting recovery scan",
		"path", path,
		"note", "files will not have names, some files may be missing, and some data may be invalid")

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("mrs: open %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("mrs: stat %s: %w", path, err)
	}

	var refSigBuf [4]byte
	if _, err := io.ReadFull(f, refSigBuf[:]); err != nil {
		f.Close()
		return nil, fmt.Errorf("mrs: read reference signature: %w", err)
	}
	refSig := binary.LittleEndian.Uint32(refSigBuf[:])

	scanLimit := info.Size() - endRecordSize
	if scanLimit <= 0 {
		f.Close()
		return nil, ErrTruncatedArchive
	}

	cfg := loadRuntimeConfig()
	windowSize := cfg.RecoveryWindowBytes
	if windowSize < 4 {
		windowSize = 4096
	}
	scratchSize := cfg.RecoveryScratchBytes
	if scratchSize < 1 {
		scratchSize = 16 * 1024 * 1024
	}

	positions, err := scanForSignature(f, refSig, scanLimit, windowSize)
	if err != nil {
		f.Close()
		return nil, err
	}
	slog.Info("mrs: recovery scan found candidate signatures", "count", len(positions))

	arc := &Archive{
		file:    f,
		path:    path,
		variant: ForcedRecovery,
		trie:    newPathTrie(),
	}

	for i, pos := range positions {
		next := scanLimit
		if i+1 < len(positions) {
			next = positions[i+1]
		}

		segmentStart := pos + localHeaderSize
		segmentLen := next - segmentStart
		if segmentLen <= 0 {
			continue
		}

		if _, err := f.Seek(segmentStart, io.SeekStart); err != nil {
			continue
		}
		segment := make([]byte, segmentLen)
		if _, err := io.ReadFull(f, segment); err != nil {
			continue
		}

		name := fmt.Sprintf("file_%d", i)
		entry, ok := probeInflateOffsets(segment, scratchSize)
		if !ok {
			slog.Debug("mrs: no valid data found in segment", "index", i)
			continue
		}
		entry.LocalHeaderOffset = uint32(segmentStart + int64(entry.ProbeOffset))
		entry.LastModified = FromWallClock(info.ModTime())

		if ext, ok := extensionForMagic(peekMagic(segment, entry.ProbeOffset)); ok {
			name += ext
		}

		arc.trie.Insert(name, &entry)
	}

	if len(positions) == 0 {
		f.Close()
		return nil, ErrUnknownVariant
	}

	return arc, nil
}

// scanForSignature performs the 4 KiB sliding-window linear scan of §4.G
// step 3: the window slides by (windowSize - 3) bytes so no 4-byte sequence
// straddling two windows is missed.
func scanForSignature(f *os.File, refSig uint32, scanLimit int64, windowSize int) ([]int64, error) {
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("mrs: seek start for scan: %w", err)
	}

	var positions []int64
	buf := make([]byte, windowSize)
	var pos int64

	for pos < scanLimit {
		n, err := f.ReadAt(buf, pos)
		if n < 4 {
			break
		}

		limit := n - 4
		for i := 0; i <= limit; i++ {
			candidate := binary.LittleEndian.Uint32(buf[i : i+4])
			if candidate == refSig {
				offset := pos + int64(i)
				if offset < scanLimit {
					positions = append(positions, offset)
				}
			}
		}

		pos += int64(n - 3)
		if err != nil && err != io.EOF {
			return nil, fmt.Errorf("mrs: scan read: %w", err)
		}
		if n < windowSize {
			break
		}
	}

	return positions, nil
}

// probeInflateOffsets implements §4.G step 5: for every candidate starting
// offset in segment, attempt a raw inflate into a scratch buffer of the
// given size; the first offset that inflates to stream-end with a nonzero
// CRC is accepted, mirroring findData()'s
// status == Z_STREAM_END && total_in <= total_out check. total_in has no
// direct Go equivalent, so it is recovered from how far the bytes.Reader
// advanced, since bytes.Reader implements io.ByteReader and the flate
// decompressor reads from it one byte at a time rather than buffering ahead.
func probeInflateOffsets(segment []byte, scratchSize int) (EntryInfo, bool) {
	if len(segment) < 2 {
		return EntryInfo{}, false
	}

	for offset := 0; offset < len(segment)-1; offset++ {
		br := bytes.NewReader(segment[offset:])
		fr := flate.NewReader(br)
		out := make([]byte, scratchSize)
		n, err := io.ReadFull(fr, out)
		fr.Close()

		// ReadFull returns ErrUnexpectedEOF when the stream ends before
		// filling out: that is the expected "stream-end" case here,
		// since we can't know total_out in advance.
		if err != nil && err != io.ErrUnexpectedEOF {
			continue
		}

		consumed := len(segment[offset:]) - br.Len()
		if consumed > n {
			continue
		}

		crc := crc32.ChecksumIEEE(out[:n])
		if crc == 0 {
			continue
		}

		return EntryInfo{
			ProbeOffset:      offset,
			CompressedSize:   uint32(consumed),
			UncompressedSize: uint32(n),
			Crc32:            crc,
		}, true
	}

	return EntryInfo{}, false
}

// peekMagic reads the first 8 bytes of the inflated stream starting at
// probeOffset within segment, for Table M extension guessing. It redoes the
// inflate since probeInflateOffsets discards its output once accepted.
func peekMagic(segment []byte, probeOffset int) uint64 {
	if probeOffset >= len(segment) {
		return 0
	}
	fr := flate.NewReader(bytes.NewReader(segment[probeOffset:]))
	defer fr.Close()

	var buf [8]byte
	n, _ := io.ReadFull(fr, buf[:])
	if n < 8 {
		return 0
	}
	return binary.LittleEndian.Uint64(buf[:])
}
