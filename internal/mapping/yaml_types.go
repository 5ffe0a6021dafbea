package mapping

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// --- CollectionRule YAML methods ---

// UnmarshalYAML implements custom YAML unmarshaling for CollectionRule.
// Accepts either a scalar target id or a full rule mapping.
func (r *CollectionRule) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		// Shorthand: `old-id: new-id`
		var target string

		err := node.Decode(&target)
		if err != nil {
			return err
		}

		*r = CollectionRule{Target: target}

		return nil

	case yaml.MappingNode:
		// Full rule: `old-id: {target: ..., filterKeys: [...]}`
		// Alias type avoids recursing into this method.
		type plain CollectionRule

		var p plain

		err := node.Decode(&p)
		if err != nil {
			return err
		}

		*r = CollectionRule(p)

		return nil

	default:
		return fmt.Errorf("expected string or mapping for collection rule, got %v", node.Kind)
	}
}

// MarshalYAML implements custom YAML marshaling for CollectionRule.
// Emits the scalar shorthand when only a target is set.
func (r CollectionRule) MarshalYAML() (any, error) {
	if r.FilterKeys.IsEmpty() {
		return r.Target, nil
	}

	type plain CollectionRule

	return plain(r), nil
}

// --- FilterKeyArray YAML methods ---

// UnmarshalYAML implements custom YAML unmarshaling for FilterKeyArray.
// Accepts:
//   - Single string: "region-v2-id"
//   - Single map: {region-v2-id: regions-v2}
//   - Array mixing both forms
func (a *FilterKeyArray) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var key string

		err := node.Decode(&key)
		if err != nil {
			return err
		}

		if key != "" {
			*a = FilterKeyArray{{Key: key}}
		} else {
			*a = FilterKeyArray{}
		}

		return nil

	case yaml.MappingNode:
		fk, err := parseFilterKeyFromMap(node)
		if err != nil {
			return err
		}

		*a = FilterKeyArray{fk}

		return nil

	case yaml.SequenceNode:
		var keys []FilterKey

		for _, item := range node.Content {
			switch item.Kind {
			case yaml.ScalarNode:
				var key string

				err := item.Decode(&key)
				if err != nil {
					return err
				}

				keys = append(keys, FilterKey{Key: key})

			case yaml.MappingNode:
				fk, err := parseFilterKeyFromMap(item)
				if err != nil {
					return err
				}

				keys = append(keys, fk)

			default:
				return fmt.Errorf("expected string or map in filterKeys, got %v", item.Kind)
			}
		}

		*a = keys

		return nil

	default:
		return fmt.Errorf("expected string, map, or array for filterKeys, got %v", node.Kind)
	}
}

// parseFilterKeyFromMap parses a single-pair node like {region-v2-id: regions-v2}.
func parseFilterKeyFromMap(node *yaml.Node) (FilterKey, error) {
	if node.Kind != yaml.MappingNode || len(node.Content) != 2 {
		return FilterKey{}, errors.New("expected single key-value map like {key: parent-collection}")
	}

	var (
		key    string
		parent string
	)

	err := node.Content[0].Decode(&key)
	if err != nil {
		return FilterKey{}, fmt.Errorf("invalid filter key: %w", err)
	}

	err = node.Content[1].Decode(&parent)
	if err != nil {
		return FilterKey{}, fmt.Errorf("invalid parent collection for filter key %q: %w", key, err)
	}

	return FilterKey{Key: key, Parent: parent}, nil
}

// MarshalYAML implements custom YAML marshaling for FilterKeyArray.
func (a FilterKeyArray) MarshalYAML() (any, error) {
	if len(a) == 0 {
		return nil, nil
	}

	result := make([]any, len(a))

	for i, fk := range a {
		if fk.Parent == "" {
			result[i] = fk.Key
		} else {
			result[i] = map[string]string{fk.Key: fk.Parent}
		}
	}

	return result, nil
}
