// Copyright (c) 2025 duskvale
// SPDX-License-Identifier: MIT

package mrs

import (
	"encoding/binary"
	"io"
)

const (
	localHeaderSize   = 30
	centralHeaderSize = 46
	endRecordSize     = 22
)

// localHeader is the 30-byte fixed-layout record preceding each file's
// payload. Name and extra bytes of length NameLen/ExtraLen follow on disk.
type localHeader struct {
	Signature        uint32
	Version          uint16
	Flags            uint16
	Compression      uint16
	LastModified     DosTime
	Crc32            uint32
	CompressedSize   uint32
	UncompressedSize uint32
	NameLen          uint16
	ExtraLen         uint16
}

// centralHeader is the 46-byte fixed-layout central-directory record. It
// shares its first ten fields with localHeader.
type centralHeader struct {
	Signature         uint32
	Version           uint16
	Flags             uint16
	Compression       uint16
	LastModified      DosTime
	Crc32             uint32
	CompressedSize    uint32
	UncompressedSize  uint32
	NameLen           uint16
	ExtraLen          uint16
	MinVersion        uint16
	CommentLen        uint16
	DiskStart         uint16
	InternalAttrs     uint16
	ExternalAttrs     uint32
	LocalHeaderOffset uint32
}

// endRecord is the 22-byte end-of-central-directory record.
type endRecord struct {
	Signature     uint32
	Disk          uint16
	DiskStart     uint16
	EntriesOnDisk uint16
	EntriesTotal  uint16
	DirSize       uint32
	DirOffset     uint32
	CommentLen    uint16
}

// readLocalHeader reads and decodes a localHeader using fixed little-endian,
// 2-byte-packed field order. Fields are read one at a time rather than via a
// single binary.Read on the struct, since Go would otherwise align the
// trailing uint16 fields to their natural boundary and disagree with the
// on-disk packing.
func readLocalHeader(r io.Reader) (localHeader, error) {
	var h localHeader
	var buf [localHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return h, err
	}
	h.Signature = binary.LittleEndian.Uint32(buf[0:4])
	h.Version = binary.LittleEndian.Uint16(buf[4:6])
	h.Flags = binary.LittleEndian.Uint16(buf[6:8])
	h.Compression = binary.LittleEndian.Uint16(buf[8:10])
	h.LastModified = DosTime(binary.LittleEndian.Uint32(buf[10:14]))
	h.Crc32 = binary.LittleEndian.Uint32(buf[14:18])
	h.CompressedSize = binary.LittleEndian.Uint32(buf[18:22])
	h.UncompressedSize = binary.LittleEndian.Uint32(buf[22:26])
	h.NameLen = binary.LittleEndian.Uint16(buf[26:28])
	h.ExtraLen = binary.LittleEndian.Uint16(buf[28:30])
	return h, nil
}

// writeLocalHeader encodes h to its 30-byte on-disk layout and writes it.
func writeLocalHeader(w io.Writer, h localHeader) error {
	var buf [localHeaderSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], h.Signature)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], h.Flags)
	binary.LittleEndian.PutUint16(buf[8:10], h.Compression)
	binary.LittleEndian.PutUint32(buf[10:14], uint32(h.LastModified))
	binary.LittleEndian.PutUint32(buf[14:18], h.Crc32)
	binary.LittleEndian.PutUint32(buf[18:22], h.CompressedSize)
	binary.LittleEndian.PutUint32(buf[22:26], h.UncompressedSize)
	binary.LittleEndian.PutUint16(buf[26:28], h.NameLen)
	binary.LittleEndian.PutUint16(buf[28:30], h.ExtraLen)
	_, err := w.Write(buf[:])
	return err
}

// readCentralHeader reads and decodes a centralHeader.
func readCentralHeader(r io.Reader) (centralHeader, error) {
	var h centralHeader
	var buf [centralHeaderSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return h, err
	}
	h.Signature = binary.LittleEndian.Uint32(buf[0:4])
	h.Version = binary.LittleEndian.Uint16(buf[4:6])
	h.Flags = binary.LittleEndian.Uint16(buf[6:8])
	h.Compression = binary.LittleEndian.Uint16(buf[8:10])
	h.LastModified = DosTime(binary.LittleEndian.Uint32(buf[10:14]))
	h.Crc32 = binary.LittleEndian.Uint32(buf[14:18])
	h.CompressedSize = binary.LittleEndian.Uint32(buf[18:22])
	h.UncompressedSize = binary.LittleEndian.Uint32(buf[22:26])
	h.NameLen = binary.LittleEndian.Uint16(buf[26:28])
	h.ExtraLen = binary.LittleEndian.Uint16(buf[28:30])
	h.MinVersion = binary.LittleEndian.Uint16(buf[30:32])
	h.CommentLen = binary.LittleEndian.Uint16(buf[32:34])
	h.DiskStart = binary.LittleEndian.Uint16(buf[34:36])
	h.InternalAttrs = binary.LittleEndian.Uint16(buf[36:38])
	h.ExternalAttrs = binary.LittleEndian.Uint32(buf[38:42])
	h.LocalHeaderOffset = binary.LittleEndian.Uint32(buf[42:46])
	return h, nil
}

// writeCentralHeader encodes h to its 46-byte on-disk layout and writes it.
func writeCentralHeader(w io.Writer, h centralHeader) error {
	var buf [centralHeaderSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], h.Signature)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint16(buf[6:8], h.Flags)
	binary.LittleEndian.PutUint16(buf[8:10], h.Compression)
	binary.LittleEndian.PutUint32(buf[10:14], uint32(h.LastModified))
	binary.LittleEndian.PutUint32(buf[14:18], h.Crc32)
	binary.LittleEndian.PutUint32(buf[18:22], h.CompressedSize)
	binary.LittleEndian.PutUint32(buf[22:26], h.UncompressedSize)
	binary.LittleEndian.PutUint16(buf[26:28], h.NameLen)
	binary.LittleEndian.PutUint16(buf[28:30], h.ExtraLen)
	binary.LittleEndian.PutUint16(buf[30:32], h.MinVersion)
	binary.LittleEndian.PutUint16(buf[32:34], h.CommentLen)
	binary.LittleEndian.PutUint16(buf[34:36], h.DiskStart)
	binary.LittleEndian.PutUint16(buf[36:38], h.InternalAttrs)
	binary.LittleEndian.PutUint32(buf[38:42], h.ExternalAttrs)
	binary.LittleEndian.PutUint32(buf[42:46], h.LocalHeaderOffset)
	_, err := w.Write(buf[:])
	return err
}

// readEndRecord reads and decodes an endRecord.
func readEndRecord(r io.Reader) (endRecord, error) {
	var e endRecord
	var buf [endRecordSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return e, err
	}
	e.Signature = binary.LittleEndian.Uint32(buf[0:4])
	e.Disk = binary.LittleEndian.Uint16(buf[4:6])
	e.DiskStart = binary.LittleEndian.Uint16(buf[6:8])
	e.EntriesOnDisk = binary.LittleEndian.Uint16(buf[8:10])
	e.EntriesTotal = binary.LittleEndian.Uint16(buf[10:12])
	e.DirSize = binary.LittleEndian.Uint32(buf[12:16])
	e.DirOffset = binary.LittleEndian.Uint32(buf[16:20])
	e.CommentLen = binary.LittleEndian.Uint16(buf[20:22])
	return e, nil
}

// writeEndRecord encodes e to its 22-byte on-disk layout and writes it.
func writeEndRecord(w io.Writer, e endRecord) error {
	var buf [endRecordSize]byte
	binary.LittleEndian.PutUint32(buf[0:4], e.Signature)
	binary.LittleEndian.PutUint16(buf[4:6], e.Disk)
	binary.LittleEndian.PutUint16(buf[6:8], e.DiskStart)
	binary.LittleEndian.PutUint16(buf[8:10], e.EntriesOnDisk)
	binary.LittleEndian.PutUint16(buf[10:12], e.EntriesTotal)
	binary.LittleEndian.PutUint32(buf[12:16], e.DirSize)
	binary.LittleEndian.PutUint32(buf[16:20], e.DirOffset)
	binary.LittleEndian.PutUint16(buf[20:22], e.CommentLen)
	_, err := w.Write(buf[:])
	return err
}
