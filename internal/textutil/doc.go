// Package textutil provides the prose-handling primitives shared by the
// extraction and chunking stages.
//
// The primary use cases are:
//   - Counting words and splitting prose into paragraphs and sentences
//   - Detecting explicit scene-break markers in story text
//   - Fingerprinting story text to catch near-duplicate resubmissions
//   - Sanitizing filenames and path segments for safe filesystem use
//
// Word counts treat a word as a maximal run of letters, digits, or
// underscores. Text is NFC-normalized before counting so the same story
// yields the same numbers regardless of source encoding.
package textutil
