// Copyright (c) 2025 duskvale
// SPDX-License-Identifier: MIT

/*
Package mrs provides pure Go support for reading, writing, and forensically
recovering MRS archives — a family of obfuscated ZIP-derived containers used
by a set of game clients (variants "Mrs1", "Mrs2", "Mrs3", and "MG2").

MRS archives are structurally close to PKZIP: a local header precedes each
entry's payload, a central directory near the end of the file describes every
entry, and an end-of-directory record locates the central directory. What
sets MRS apart is that every fixed-size header is obfuscated with one of four
reversible per-variant byte transforms, and two of the four variants (Mrs3,
MG2) carry no usable central directory at all — their file list has to be
rebuilt by walking local headers from the start of the file.

# Basic usage

Opening an archive and reading a file:

	archive, err := mrs.Open("client.mrs")
	if err != nil {
		log.Fatal(err)
	}
	defer archive.Close()

	data, err := archive.GetFile("textures/icon.tga")
	if err != nil {
		log.Fatal(err)
	}

Extracting an entire archive:

	archive, err := mrs.Open("client.mrs")
	if err != nil {
		log.Fatal(err)
	}
	defer archive.Close()

	if err := archive.ExtractArchive(context.Background()); err != nil {
		log.Fatal(err)
	}

Recovering a damaged archive:

	archive, err := mrs.Open("damaged.mrs")
	if err != nil {
		archive, err = mrs.OpenForced("damaged.mrs")
		if err != nil {
			log.Fatal(err)
		}
	}
	defer archive.Close()

# Format variants

[Open] detects the variant automatically: it tries, in order, Mrs1 (no or
minimal header obfuscation), Mrs2 (rotate+XOR header obfuscation), MG2 (fixed
repeating-key XOR), and Mrs3 (an xorshift32 keystream over the header bytes).
[OpenForced] skips detection entirely and scans the raw bytes for repeated
local-header signatures, reconstructing whatever payloads still inflate
cleanly.

# Limitations

This package focuses on the subset of MRS functionality described by the
archive engine:

  - No support for ZIP64, multi-disk archives, or non-seekable input
  - No in-place modification of an existing archive (no AddFile/RemoveFile)
  - No preservation of extra fields, comments, or external file attributes
  - Mrs3 and MG2 are read-only; Create only writes Mrs1 and Mrs2 archives
*/
package mrs
