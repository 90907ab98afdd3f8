package io

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/matzehuels/hiweave/pkg/errors"
	"github.com/matzehuels/hiweave/pkg/partition"
)

// Format selects the partition file syntax.
type Format string

const (
	FormatLabels Format = "labels"
	FormatBits   Format = "bits"
)

// ParseFormat validates a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatLabels, FormatBits:
		return f, nil
	default:
		return "", errors.New(errors.ErrCodeInvalidFormat, "unknown partition format %q (want labels or bits)", s)
	}
}

// ReadPartitions reads one partition per line from r and builds the
// cluster assignment. Blank lines and '#' comments are skipped.
func ReadPartitions(r io.Reader, format Format, opts ...partition.Option) (*partition.Assignment, error) {
	lines, err := readLines(r)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidInput, "no partitions in input")
	}

	switch format {
	case FormatLabels:
		parts := make([][]string, len(lines))
		for i, line := range lines {
			parts[i] = strings.Fields(line)
		}
		return partition.FromLabels(parts, opts...)
	case FormatBits:
		parts, err := partition.ParseBits(lines)
		if err != nil {
			return nil, err
		}
		return partition.FromBoolean(parts, opts...)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unknown partition format %q", format)
	}
}

// ImportPartitions reads the partition file at path.
func ImportPartitions(path string, format Format, opts ...partition.Option) (*partition.Assignment, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadPartitions(f, format, opts...)
}

// ReadTerminals reads one terminal label per line from r.
func ReadTerminals(r io.Reader) ([]string, error) {
	return readLines(r)
}

// ImportTerminals reads the terminal file at path.
func ImportTerminals(path string) ([]string, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadTerminals(f)
}

// ReadJSON decodes a document written by [WriteJSON]. Every edge must
// reference known node keys.
func ReadJSON(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode document")
	}

	keys := make(map[string]bool, len(doc.Nodes))
	for _, n := range doc.Nodes {
		if keys[n.Key] {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "duplicate node %q", n.Key)
		}
		keys[n.Key] = true
	}
	if !keys[doc.Root] {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "root %q is not a node", doc.Root)
	}
	for _, e := range doc.Edges {
		if !keys[e.From] || !keys[e.To] {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "edge %s->%s references an unknown node", e.From, e.To)
		}
	}
	return &doc, nil
}

// ImportJSON reads a document from the JSON file at path.
func ImportJSON(path string) (*Document, error) {
	f, err := open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadJSON(f)
}

func open(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "open %s", path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		lines = append(lines, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read: %w", err)
	}
	return lines, nil
}
