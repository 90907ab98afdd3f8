package io

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// WriteDDOT writes doc as a ddot edge list: a Parent/Child/Type header
// followed by one tab-separated row per edge.
func WriteDDOT(doc *Document, w io.Writer) error {
	bw := bufio.NewWriter(w)
	fmt.Fprint(bw, "Parent\tChild\tType\n")
	for _, e := range doc.Edges {
		fmt.Fprintf(bw, "%s\t%s\t%s\n", e.From, e.To, e.Type)
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write ddot: %w", err)
	}
	return nil
}

// ExportDDOT writes doc to a ddot file at path.
func ExportDDOT(doc *Document, path string) error {
	return exportFile(path, func(w io.Writer) error { return WriteDDOT(doc, w) })
}

// WriteJSON encodes doc as indented JSON. The output can be read back with
// [ReadJSON].
func WriteJSON(doc *Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ExportJSON writes doc to a JSON file at path.
func ExportJSON(doc *Document, path string) error {
	return exportFile(path, func(w io.Writer) error { return WriteJSON(doc, w) })
}

func exportFile(path string, write func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
