// Package segment provides text segmentation for caret movement and deletion.
//
// The document model never hard-codes character or word rules. Callers that
// move or delete by character, word or line ask a Segmenter for the next
// boundary in a run of text. Offsets are measured in Unicode code points,
// matching the offsets used by selection points.
//
// The default Segmenter follows Unicode text segmentation (UAX #29) using
// github.com/rivo/uniseg: characters are extended grapheme clusters and words
// are word segments that contain at least one letter, mark or digit.
// Whitespace and punctuation runs are treated as separators.
package segment
