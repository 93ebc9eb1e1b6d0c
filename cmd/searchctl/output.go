package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/fatih/color"
	"gopkg.in/yaml.v3"

	"propsearch/internal/model"
	"propsearch/internal/utils"
)

// printResult writes v in the format chosen with --output
func printResult(w io.Writer, v any) error {
	switch outputFormat {
	case "", "json":
		out, err := utils.PrettyPrintJSON(v)
		if err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		_, err = fmt.Fprintln(w, out)
		return err
	case "yaml":
		out, err := toYAML(v)
		if err != nil {
			return fmt.Errorf("encode output: %w", err)
		}
		_, err = w.Write(out)
		return err
	default:
		return fmt.Errorf("unknown output format %q (want json or yaml)", outputFormat)
	}
}

// toYAML goes through JSON so field names and omitempty follow the json
// tags, and through a yaml.Node so key order survives
func toYAML(v any) ([]byte, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var doc yaml.Node
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}
	blockStyle(&doc)
	return yaml.Marshal(&doc)
}

func blockStyle(n *yaml.Node) {
	n.Style = 0
	for _, c := range n.Content {
		blockStyle(c)
	}
}

var (
	okLine   = color.New(color.FgGreen)
	warnLine = color.New(color.FgYellow)
	infoLine = color.New(color.FgCyan)
)

func printSummary(w io.Writer, count int, message string) {
	if count > 0 {
		okLine.Fprintf(w, "✓ %s\n", message)
		return
	}
	warnLine.Fprintf(w, "! %s\n", message)
}

func printCorrections(w io.Writer, corrections []model.Correction) {
	for _, c := range corrections {
		infoLine.Fprintf(w, "~ %s -> %s (%.2f)\n", c.From, c.To, c.Score)
	}
}
