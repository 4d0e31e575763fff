// Copyright (c) 2025 duskvale
// SPDX-License-Identifier: MIT

package mrs

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalHeaderRoundTrip(t *testing.T) {
	want := localHeader{
		Signature:        writeLocalSignature,
		Version:          20,
		Flags:            0,
		Compression:      8,
		LastModified:     NewDosTime(10, 30, 14, 15, 6, 44),
		Crc32:            0xDEADBEEF,
		CompressedSize:   100,
		UncompressedSize: 200,
		NameLen:          5,
		ExtraLen:         0,
	}

	var buf bytes.Buffer
	require.NoError(t, writeLocalHeader(&buf, want))
	assert.Equal(t, localHeaderSize, buf.Len())

	got, err := readLocalHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestCentralHeaderRoundTrip(t *testing.T) {
	want := centralHeader{
		Signature:         0x02014B50,
		Version:           25,
		Compression:       8,
		LastModified:      NewDosTime(0, 0, 0, 1, 1, 0),
		Crc32:             1,
		CompressedSize:    2,
		UncompressedSize:  3,
		NameLen:           4,
		MinVersion:        20,
		LocalHeaderOffset: 12345,
	}

	var buf bytes.Buffer
	require.NoError(t, writeCentralHeader(&buf, want))
	assert.Equal(t, centralHeaderSize, buf.Len())

	got, err := readCentralHeader(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestEndRecordRoundTrip(t *testing.T) {
	want := endRecord{
		Signature:     0x05030208,
		EntriesOnDisk: 3,
		EntriesTotal:  3,
		DirSize:       999,
		DirOffset:     111,
	}

	var buf bytes.Buffer
	require.NoError(t, writeEndRecord(&buf, want))
	assert.Equal(t, endRecordSize, buf.Len())

	got, err := readEndRecord(&buf)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestReadLocalHeaderTruncated(t *testing.T) {
	_, err := readLocalHeader(bytes.NewReader(make([]byte, 10)))
	assert.Error(t, err)
}
