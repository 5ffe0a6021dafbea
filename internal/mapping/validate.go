package mapping

import (
	"fmt"
	"sort"

	"mdm-migrate/internal/diagnostic"
)

// Validate validates a mapping configuration on its own terms, before any
// bundle is in play. Problems are findings, not panics; the caller decides
// whether errors block the run.
func Validate(c *Config) *diagnostic.Findings {
	res := &diagnostic.Findings{}
	if c == nil {
		res.AddError("config_is_nil", "mapping configuration is nil", "", "")
		return res
	}

	if c.Version != SchemaVersion {
		res.AddError("unsupported_schema_version",
			fmt.Sprintf("mapping schema version %q is not supported (want %q)", c.Version, SchemaVersion),
			"", "")
	}

	// Deterministic order for collection findings.
	ids := make([]string, 0, len(c.Collections))
	for id := range c.Collections {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	for _, id := range ids {
		rule := c.Collections[id]

		if id == "" {
			res.AddError("empty_collection_id", "collection entry with empty old id", "", "")
			continue
		}

		if rule.Target == "" {
			res.AddError("empty_target",
				fmt.Sprintf("collection %q has no target id", id), "", "")
		}

		seenKeys := map[string]struct{}{}

		for _, fk := range rule.FilterKeys {
			if fk.Key == "" {
				res.AddError("empty_filter_key",
					fmt.Sprintf("collection %q declares an empty filter key", id), "", "")

				continue
			}

			if _, dup := seenKeys[fk.Key]; dup {
				res.AddWarning("duplicate_filter_key",
					fmt.Sprintf("collection %q declares filter key %q more than once", id, fk.Key), "", "")
			}

			seenKeys[fk.Key] = struct{}{}
		}
	}

	seenOverrides := map[string]struct{}{}

	for _, ov := range c.Overrides {
		if ov.Form == "" || ov.Field == "" {
			res.AddError("incomplete_override",
				"override must name both form and field", ov.Form, ov.Field)

			continue
		}

		if ov.Target == "" {
			res.AddError("empty_override_target",
				"override has no target collection", ov.Form, ov.Field)
		}

		key := ov.Form + "\x00" + ov.Field
		if _, dup := seenOverrides[key]; dup {
			res.AddError("duplicate_override",
				fmt.Sprintf("multiple overrides for field %s.%s", ov.Form, ov.Field),
				ov.Form, ov.Field)
		}

		seenOverrides[key] = struct{}{}
	}

	return res
}
