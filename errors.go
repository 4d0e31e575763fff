// Copyright (c) 2025 duskvale
// SPDX-License-Identifier: MIT

package mrs

import "errors"

// Sentinel errors returned by the archive engine. Callers should match with
// errors.Is; wrapped context is added with fmt.Errorf("...: %w", ...) at the
// call site.
var (
	// ErrUnknownVariant means none of the four signature ladders matched
	// the first four bytes of the file.
	ErrUnknownVariant = errors.New("mrs: unknown archive variant")

	// ErrBadSignature means a header's signature did not match any
	// signature in the expected set for the detected variant/record kind.
	ErrBadSignature = errors.New("mrs: bad header signature")

	// ErrTruncatedArchive means the file is too small to hold an
	// end-of-directory record, or the recorded central directory offset
	// lies past end of file.
	ErrTruncatedArchive = errors.New("mrs: truncated archive")

	// ErrInflate means a raw DEFLATE stream could not be decompressed.
	ErrInflate = errors.New("mrs: inflate failed")

	// ErrCrcMismatch means the CRC-32 of decompressed data did not match
	// the value recorded in the entry's header.
	ErrCrcMismatch = errors.New("mrs: CRC-32 mismatch")

	// ErrInvalidDate means a DosTime could not be converted to a wall
	// clock time because one of its fields is out of range.
	ErrInvalidDate = errors.New("mrs: invalid DOS date/time")

	// ErrPathTraversal means an archive entry's normalized path would
	// escape the extraction destination root.
	ErrPathTraversal = errors.New("mrs: path traversal")

	// ErrNotFound means a lookup found no trie node at the given path,
	// or the node at that path is a directory, not a file.
	ErrNotFound = errors.New("mrs: entry not found")

	// ErrUnsupportedVariant means the requested operation (currently,
	// Create) does not support the given variant.
	ErrUnsupportedVariant = errors.New("mrs: unsupported variant for this operation")
)
