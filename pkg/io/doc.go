// Package io reads partition files and writes woven hierarchies.
//
// # Partition Files
//
// A partition file holds one partition per line. Two formats are accepted:
//
//   - labels: whitespace-separated cluster labels, one per terminal
//   - bits: a 0/1 string per line, one character per terminal; each line is
//     a single cluster
//
// Blank lines and lines starting with '#' are ignored. Terminal names are
// read separately with [ReadTerminals], one label per line.
//
// # Documents
//
// [NewDocument] flattens a [weave.Hierarchy] into a [Document]: nodes named
// by their keys ("<level>_<row>" for clusters, "-1_-1" for a virtual root,
// the label for terminals) and edges in top-down order. Documents are what
// the exporters write and what the pipeline caches.
//
// # ddot
//
// [WriteDDOT] writes the tab-separated edge list used by the DDOT toolkit:
//
//	Parent	Child	Type
//	0_0	1_1	Child-Parent
//	1_1	D	Gene-Term
//
// Type is Child-Parent when both ends are clusters and Gene-Term otherwise.
//
// # JSON
//
// [WriteJSON] writes the full document, including levels, depths and edge
// weights. [ReadJSON] reads it back.
package io
