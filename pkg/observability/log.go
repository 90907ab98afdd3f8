package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

var (
	stageStart = map[Stage]string{
		StageGraphInit:          "initializing the graph",
		StageRedundancyRemoval:  "removing redundant edges",
		StageTerminalAttachment: "attaching terminal nodes to the graph",
		StageSecondaryRanking:   "finding secondary edges",
		StagePick:               "picking edges",
	}
	stageDone = map[Stage]string{
		StageGraphInit:          "graph initialized",
		StageRedundancyRemoval:  "redundant edges removed",
		StageTerminalAttachment: "terminal nodes attached",
		StageSecondaryRanking:   "secondary edges found",
		StagePick:               "hierarchy picked",
	}
)

// LogHooks reports weave stages and pipeline steps through a logger.
// Stage starts are logged at debug level, completions at info level.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks writing to logger (log.Default() when nil).
func NewLogHooks(logger *log.Logger) *LogHooks {
	if logger == nil {
		logger = log.Default()
	}
	return &LogHooks{logger: logger}
}

func (h *LogHooks) OnStageStart(stage Stage) {
	h.logger.Debug(stageMessage(stageStart, stage))
}

func (h *LogHooks) OnCheckpoint(cp Checkpoint) {
	h.logger.Info(stageMessage(stageDone, cp.Stage),
		"took", cp.Duration.Round(time.Microsecond),
		"nodes", cp.Nodes,
		"edges", cp.Edges,
		"changed", cp.Changed,
	)
}

func (h *LogHooks) OnReadComplete(_ context.Context, source string, partitions, terminals int, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("read failed", "source", source, "error", err)
		return
	}
	h.logger.Debug("partitions read", "source", source, "partitions", partitions, "terminals", terminals, "took", d)
}

func (h *LogHooks) OnWeaveComplete(_ context.Context, nodes, edges int, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("weave failed", "error", err)
		return
	}
	h.logger.Debug("hierarchy woven", "nodes", nodes, "edges", edges, "took", d)
}

func (h *LogHooks) OnExportComplete(_ context.Context, format string, size int, d time.Duration, err error) {
	if err != nil {
		h.logger.Error("export failed", "format", format, "error", err)
		return
	}
	h.logger.Debug("exported", "format", format, "bytes", size, "took", d)
}

func stageMessage(m map[Stage]string, stage Stage) string {
	if msg, ok := m[stage]; ok {
		return msg
	}
	return string(stage)
}
