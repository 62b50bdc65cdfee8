package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// Labels maps detector class ids to their raw label text.
type Labels map[int]string

// Name returns the label for a class id, or "class<id>" when it is unknown.
func (l Labels) Name(classID int) string {
	if name, ok := l[classID]; ok {
		return name
	}
	return fmt.Sprintf("class%d", classID)
}

// labelsFile accepts both layouts of the "names" key found in training
// dataset files: a plain list or an id -> name mapping.
type labelsFile struct {
	Names yaml.Node `yaml:"names"`
}

// LoadLabels reads the class vocabulary from a YAML file.
func LoadLabels(path string) (Labels, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read labels file: %w", err)
	}
	return ParseLabels(data)
}

// ParseLabels decodes the YAML class vocabulary.
func ParseLabels(data []byte) (Labels, error) {
	var file labelsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse labels: %w", err)
	}

	labels := make(Labels)
	switch file.Names.Kind {
	case yaml.SequenceNode:
		var names []string
		if err := file.Names.Decode(&names); err != nil {
			return nil, fmt.Errorf("failed to decode label list: %w", err)
		}
		for i, name := range names {
			labels[i] = name
		}
	case yaml.MappingNode:
		var names map[int]string
		if err := file.Names.Decode(&names); err != nil {
			return nil, fmt.Errorf("failed to decode label map: %w", err)
		}
		for id, name := range names {
			labels[id] = name
		}
	default:
		return nil, fmt.Errorf("labels file has no names entry")
	}

	if len(labels) == 0 {
		return nil, fmt.Errorf("labels file has no classes")
	}
	return labels, nil
}

// IDs returns the class ids in ascending order.
func (l Labels) IDs() []int {
	ids := make([]int, 0, len(l))
	for id := range l {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
