package sequence

import (
	"gopkg.in/yaml.v3"

	"github.com/teranos/cadence/errors"
)

// ParseDocument decodes a sequence document. The top level must be a
// mapping: either the sequences themselves keyed by name, or a wrapper
// object whose "sequences" key holds such a mapping. Entry order in
// the document is preserved in the returned slice.
func ParseDocument(data []byte) ([]Sequence, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, errors.Wrap(err, "failed to parse sequence document")
	}
	if len(root.Content) == 0 {
		return nil, errors.Wrap(errors.ErrUnsupportedFormat, "document is empty")
	}

	top := root.Content[0]
	if top.Kind != yaml.MappingNode {
		return nil, errors.Wrap(errors.ErrUnsupportedFormat, "top level must be a mapping of sequence names")
	}

	// A wrapper object only counts when its "sequences" value is itself
	// a mapping; anything else is treated as a sequence entry named
	// "sequences" like any other top-level key.
	entries := top
	if inner := mappingValue(top, "sequences"); inner != nil && inner.Kind == yaml.MappingNode {
		entries = inner
	}

	seqs := make([]Sequence, 0, len(entries.Content)/2)
	for i := 0; i+1 < len(entries.Content); i += 2 {
		seq, err := decodeSequence(entries.Content[i].Value, entries.Content[i+1])
		if err != nil {
			return nil, err
		}
		seqs = append(seqs, seq)
	}
	return seqs, nil
}

// mappingValue returns the value node stored under key within a
// mapping node, or nil when the key is absent.
func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}

func decodeSequence(name string, node *yaml.Node) (Sequence, error) {
	switch node.Kind {
	case yaml.SequenceNode:
		var actions []Action
		if err := node.Decode(&actions); err != nil {
			return Sequence{}, errors.Wrapf(err, "failed to decode actions for sequence %q", name)
		}
		return Sequence{Name: name, Actions: actions, bare: true}, nil
	case yaml.MappingNode:
		var body struct {
			Every   float64  `yaml:"every"`
			Actions []Action `yaml:"actions"`
		}
		if err := node.Decode(&body); err != nil {
			return Sequence{}, errors.Wrapf(err, "failed to decode sequence %q", name)
		}
		return Sequence{Name: name, Every: body.Every, Actions: body.Actions}, nil
	default:
		return Sequence{}, errors.Wrapf(errors.ErrUnsupportedFormat, "sequence %q must be a list or an object", name)
	}
}
