// Package mucab converts Japanese text into a hiragana/kana reading by
// cost-based morphological segmentation over a precompiled dictionary.
//
// # Overview
//
// A dictionary is built offline by Compile, which reads EUC-JP CSV lexica
// plus a connection-cost matrix (matrix.def) and writes a compact binary
// MUCA file. At runtime, Open loads that file into a Dictionary, and
// Transliterate walks the input text, builds a Viterbi lattice of every
// dictionary match at every position, and returns the minimum-cost
// reading with unmatched characters preserved verbatim.
//
// # When to Use mucab
//
// mucab is useful when:
//   - You have (or can build) a morphological lexicon in MeCab-style CSV
//     form and want a standalone, dependency-light reading transliterator.
//   - The dictionary is effectively static: it is compiled once and read
//     many times.
//   - You want bounded memory: entries are paged in lazily, one
//     first-character group at a time, and never evicted.
//
// # When NOT to Use mucab
//
// mucab is not suitable for:
//   - Full morphological analysis (POS tagging, inflection) — it only
//     emits readings, not grammatical structure.
//   - Mutable dictionaries — a MUCA file is immutable once compiled.
//   - Guaranteed linguistic accuracy on ambiguous Han sequences — it
//     guarantees minimum-cost path selection under the supplied cost
//     model, not correctness.
//
// # Basic Usage
//
//	// Compile a lexicon directory (*.csv + matrix.def) into a MUCA file.
//	if err := mucab.Compile(ctx, "dict/", "out/mucab.bin"); err != nil {
//	    log.Fatal(err)
//	}
//
//	// Load it and transliterate.
//	dict, err := mucab.Open("out/mucab.bin")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer dict.Close()
//
//	out, err := mucab.Transliterate(dict, "東京都に行く")
//	// out == "とうきょうとにいく"
//
// # Performance Characteristics
//
// Compile: O(n log n) in the number of lexicon rows (dominated by the
// first-character sort).
// Transliterate: O(N · max_matches_per_position) lattice nodes, where N
// is the number of input runes.
//
// The loader keeps the connection matrix and first-character index
// resident (a few hundred KB to a few MB for a typical lexicon) and pages
// in entry blocks on first use from a seekable, frame-compressed segment.
package mucab
