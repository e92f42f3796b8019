package repository

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/anime-shed/image-srcset-go/pkg/srcset"
)

// DecodeCatalog reads a YAML size catalog of the form
//
//	square:
//	  thumb: [60, 60]
//	  small: [90, 90]
//
// Labels keep their document order, which is the order candidates are
// emitted in.
func DecodeCatalog(data []byte) (srcset.SizeCatalog, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidCatalog, err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) == 0 {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidCatalog)
	}

	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("%w: line %d: expected a mapping of variant types", ErrInvalidCatalog, root.Line)
	}

	catalog := make(srcset.SizeCatalog, len(root.Content)/2)
	for i := 0; i < len(root.Content); i += 2 {
		key, value := root.Content[i], root.Content[i+1]
		if _, dup := catalog[key.Value]; dup {
			return nil, fmt.Errorf("%w: line %d: duplicate variant type %q", ErrInvalidCatalog, key.Line, key.Value)
		}

		sizes, err := decodeSizes(value)
		if err != nil {
			return nil, fmt.Errorf("%w: variant type %q: %v", ErrInvalidCatalog, key.Value, err)
		}
		catalog[key.Value] = sizes
	}

	return catalog, nil
}

func decodeSizes(node *yaml.Node) ([]srcset.Size, error) {
	if node.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping of size labels", node.Line)
	}

	sizes := make([]srcset.Size, 0, len(node.Content)/2)
	seen := make(map[string]bool, len(node.Content)/2)
	for i := 0; i < len(node.Content); i += 2 {
		label, dims := node.Content[i], node.Content[i+1]
		if seen[label.Value] {
			return nil, fmt.Errorf("line %d: duplicate size label %q", label.Line, label.Value)
		}
		seen[label.Value] = true

		var wh []int
		if err := dims.Decode(&wh); err != nil || len(wh) != 2 {
			return nil, fmt.Errorf("line %d: size %q must be [width, height]", dims.Line, label.Value)
		}
		if wh[0] < 0 || wh[1] < 0 {
			return nil, fmt.Errorf("line %d: size %q has a negative dimension", dims.Line, label.Value)
		}
		sizes = append(sizes, srcset.Size{Label: label.Value, Width: wh[0], Height: wh[1]})
	}
	return sizes, nil
}

// EncodeCatalog writes catalog in the format DecodeCatalog reads, variant
// types sorted by name.
func EncodeCatalog(catalog srcset.SizeCatalog) ([]byte, error) {
	root := &yaml.Node{Kind: yaml.MappingNode}
	for _, variantType := range catalog.VariantTypes() {
		sizes := &yaml.Node{Kind: yaml.MappingNode}
		for _, s := range catalog[variantType] {
			dims := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle}
			dims.Content = []*yaml.Node{intNode(s.Width), intNode(s.Height)}
			sizes.Content = append(sizes.Content, strNode(s.Label), dims)
		}
		root.Content = append(root.Content, strNode(variantType), sizes)
	}
	return yaml.Marshal(root)
}

func strNode(v string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
}

func intNode(v int) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: fmt.Sprint(v)}
}
