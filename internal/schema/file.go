package schema

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// ReadFile reads the raw records of the witness file at path.
func ReadFile(path string) ([]*yaml.Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read witness: %w", err)
	}
	records, err := ParseRecords(data)
	if err != nil {
		return nil, fmt.Errorf("witness %s: %w", path, err)
	}
	return records, nil
}

// ParseRecords splits a YAML list of records. Records are not decoded.
func ParseRecords(data []byte) ([]*yaml.Node, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	if len(doc.Content) == 0 {
		return nil, nil
	}
	top := doc.Content[0]
	if top.Kind != yaml.SequenceNode {
		return nil, &DecodeError{Line: top.Line, Msg: "witness is not a list of records"}
	}
	return top.Content, nil
}

// WriteFile writes records as one YAML list.
func WriteFile(path string, records []*yaml.Node) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create witness: %w", err)
	}
	defer f.Close()

	if err := Write(f, records); err != nil {
		return fmt.Errorf("failed to write witness: %w", err)
	}
	return f.Close()
}

// Write encodes records as one YAML list to w.
func Write(w io.Writer, records []*yaml.Node) error {
	seq := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq", Content: records}
	if len(records) == 0 {
		seq.Style = yaml.FlowStyle
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(seq); err != nil {
		return err
	}
	return enc.Close()
}
