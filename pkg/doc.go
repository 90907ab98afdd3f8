// Package pkg provides the libraries behind hiweave.
//
// # Overview
//
// hiweave turns several flat partitions of the same terminals (for example
// clusterings of genes at different resolutions) into one hierarchy: a DAG
// whose leaves are the terminals and whose internal nodes are the clusters,
// each cluster linked below the clusters that contain it.
//
// # Architecture
//
// The data flow:
//
//	partition file (labels or bits)
//	         ↓
//	    [partition] package (cluster assignment, roaring memberships)
//	         ↓
//	    [containment] package (containment indices)
//	         ↓
//	    [weave] package (candidate graph → ranked pick → pruned hierarchy)
//	         ↓
//	    [io] / [render/nodelink] (ddot, JSON, DOT, SVG/PNG/PDF)
//
// [weave] depends only on [partition], [containment], [dag], [errors] and
// [observability]; the output, cache and pipeline packages build on it.
//
// # Quick Start
//
//	a, _ := io.ImportPartitions("clusters.txt", io.FormatLabels)
//	h, _ := weave.Weave(a, weave.DefaultBuildOptions(), weave.DefaultPickOptions())
//	_ = io.ExportDDOT(io.NewDocument(h), "hierarchy.ddot")
//
//	// Cut the hierarchy back into a flat partition.
//	flat := h.DepthCluster(2, true).Flat()
//
// # Main Packages
//
// ## Core
//
// [partition] - Cluster assignments from label or 0/1 partitions, terminal
// labels and optional level keys.
//
// [containment] - Pairwise containment indices |A∩B|/|A| over roaring bitmaps.
//
// [dag] - Arena-backed directed graph with stable node handles, traversals
// and ancestor bitmaps.
//
// [dag/transform] - Redundant-edge removal, depth assignment and pruning.
//
// [weave] - The Weaver: build, rank, pick, query and recover.
//
// ## Collaborators
//
// [io] - ddot and JSON documents, partition and terminal readers.
//
// [render/nodelink] - Graphviz rendering of a hierarchy document.
//
// [cache] - File, Redis and null caches for documents and images.
//
// [pipeline] - read → weave → export with caching, used by the CLI.
//
// [config] - TOML/YAML run configuration.
//
// [observability] - Stage, pipeline and cache hooks with log and Prometheus
// backends.
//
// # Testing
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/weave/...              # Specific package
//	go test -run Example ./pkg/...       # Examples only
//	HIWEAVE_TEST_REDIS=localhost:6379 go test ./pkg/cache
//
// [partition]: https://pkg.go.dev/github.com/matzehuels/hiweave/pkg/partition
// [containment]: https://pkg.go.dev/github.com/matzehuels/hiweave/pkg/containment
// [dag]: https://pkg.go.dev/github.com/matzehuels/hiweave/pkg/dag
// [dag/transform]: https://pkg.go.dev/github.com/matzehuels/hiweave/pkg/dag/transform
// [weave]: https://pkg.go.dev/github.com/matzehuels/hiweave/pkg/weave
// [errors]: https://pkg.go.dev/github.com/matzehuels/hiweave/pkg/errors
// [io]: https://pkg.go.dev/github.com/matzehuels/hiweave/pkg/io
// [render/nodelink]: https://pkg.go.dev/github.com/matzehuels/hiweave/pkg/render/nodelink
// [cache]: https://pkg.go.dev/github.com/matzehuels/hiweave/pkg/cache
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/hiweave/pkg/pipeline
// [config]: https://pkg.go.dev/github.com/matzehuels/hiweave/pkg/config
// [observability]: https://pkg.go.dev/github.com/matzehuels/hiweave/pkg/observability
package pkg
