// Package weave recovers a hierarchy of nested communities from flat
// partitions of the same terminals.
//
// # Overview
//
// Each input partition (one community-detection resolution, say) assigns
// every terminal to exactly one cluster. Weaving infers which clusters
// contain which and assembles all of them into a single DAG with one root:
//
//	a, _ := partition.FromLabels(parts, partition.WithTerminals(names))
//	h, err := weave.Weave(a, weave.DefaultBuildOptions(), weave.DefaultPickOptions())
//
// # Stages
//
// A weave runs in two phases. Build computes the candidate graph once:
//
//  1. Candidate edges: parent → child for every containment index
//     |child ∩ parent| / |child| at or above the cutoff, plus a virtual root
//     when more than one cluster has no parent.
//  2. Redundancy removal: parent edges implied by a grandparent path.
//  3. Terminal attachment: every terminal hangs below its most specific
//     covering clusters.
//  4. Secondary ranking: parents beyond the best one are scored and pooled.
//
// Pick then derives a hierarchy from a copy of the candidate graph: it keeps
// a top percentile of each secondary pool, applies manual edges, prunes dead
// ends and single branches, and assigns depths. [Weaver.Pick] can be called
// again with other thresholds without rebuilding.
//
// # Determinism
//
// Clusters are numbered in input partition order, then label order, and
// every stage iterates in that order. Parallel stages (containment indices,
// redundancy checks) produce identical results for any worker count.
//
// # Telemetry
//
// Each stage emits an observability.Checkpoint through the configured
// hooks. Hooks are observational and never alter the result.
package weave
