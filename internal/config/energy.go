package config

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// TermConfig is one energy term entry: the registry key and its raw
// configuration block, decoded later by the term itself.
type TermConfig struct {
	Key   string
	Block yaml.Node
}

// Decode unmarshals the block into v. An absent block leaves v untouched.
func (t TermConfig) Decode(v any) error {
	if t.Block.Kind == 0 {
		return nil
	}
	return t.Block.Decode(v)
}

// EnergyList keeps energy terms in file order. Each list item is a mapping
// and may name several terms.
type EnergyList []TermConfig

func (l *EnergyList) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.SequenceNode {
		return fmt.Errorf("line %d: energy must be a list", value.Line)
	}
	out := make(EnergyList, 0, len(value.Content))
	for _, item := range value.Content {
		if item.Kind != yaml.MappingNode {
			return fmt.Errorf("line %d: energy entry must be a mapping", item.Line)
		}
		for i := 0; i+1 < len(item.Content); i += 2 {
			out = append(out, TermConfig{Key: item.Content[i].Value, Block: *item.Content[i+1]})
		}
	}
	*l = out
	return nil
}

func (l EnergyList) MarshalYAML() (any, error) {
	items := make([]map[string]*yaml.Node, 0, len(l))
	for i := range l {
		block := l[i].Block
		if block.Kind == 0 {
			block = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		}
		items = append(items, map[string]*yaml.Node{l[i].Key: &block})
	}
	return items, nil
}

// Term builds a TermConfig from a Go value, mainly for tests and presets.
func Term(key string, block any) (TermConfig, error) {
	var n yaml.Node
	if err := n.Encode(block); err != nil {
		return TermConfig{}, fmt.Errorf("encode %s: %w", key, err)
	}
	return TermConfig{Key: key, Block: n}, nil
}
