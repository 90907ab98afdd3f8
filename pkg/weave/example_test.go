package weave_test

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/hiweave/pkg/partition"
	"github.com/matzehuels/hiweave/pkg/weave"
)

func ExampleWeave() {
	// Four terminals split in halves, then quarters
	a, _ := partition.FromLabels([][]string{
		{"x", "x", "y", "y"},
		{"p", "q", "r", "s"},
	}, partition.WithTerminals(strings.Split("ABCD", "")))

	h, err := weave.Weave(a, weave.DefaultBuildOptions(), weave.DefaultPickOptions(),
		weave.WithLogger(log.New(io.Discard)))
	if err != nil {
		fmt.Println("error:", err)
		return
	}

	for _, e := range h.Edges() {
		fmt.Printf("%s → %s\n", h.Key(e.From), h.Key(e.To))
	}
	// Output:
	// -1_-1 → 0_0
	// -1_-1 → 0_1
	// 0_0 → A
	// 0_0 → B
	// 0_1 → C
	// 0_1 → D
}

func ExampleHierarchy_DepthCluster() {
	parts, _ := partition.ParseBits([]string{"1100", "0011", "1000", "0100"})
	a, _ := partition.FromBoolean(parts)

	h, _ := weave.Weave(a, weave.DefaultBuildOptions(), weave.DefaultPickOptions(),
		weave.WithLogger(log.New(io.Discard)))

	fmt.Println(h.DepthCluster(1, true).Flat())
	// Output:
	// [1 1 2 2]
}
