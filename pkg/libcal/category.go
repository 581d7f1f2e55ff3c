package libcal

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// PreprocessJSON turns bare item ids into {"id": n} objects so the items
// list maps onto CategoryItem.
func (c *Category) PreprocessJSON(fields map[string]json.RawMessage) error {
	raw, ok := fields["items"]
	if !ok {
		return nil
	}

	fixed, err := normalizeItems(raw)
	if err != nil {
		return err
	}

	fields["items"] = fixed

	return nil
}

// PreprocessJSON applies the Category item rewrite to every category.
func (c *Categories) PreprocessJSON(fields map[string]json.RawMessage) error {
	raw, ok := fields["categories"]
	if !ok || !isJSONArray(raw) {
		return nil
	}

	var categories []json.RawMessage

	err := json.Unmarshal(raw, &categories)
	if err != nil {
		return fmt.Errorf("reading categories: %w", err)
	}

	for i, item := range categories {
		var category map[string]json.RawMessage

		if json.Unmarshal(item, &category) != nil {
			continue
		}

		err = (&Category{}).PreprocessJSON(category)
		if err != nil {
			return err
		}

		categories[i], err = json.Marshal(category)
		if err != nil {
			return fmt.Errorf("writing category: %w", err)
		}
	}

	fields["categories"], err = json.Marshal(categories)
	if err != nil {
		return fmt.Errorf("writing categories: %w", err)
	}

	return nil
}

func normalizeItems(raw json.RawMessage) (json.RawMessage, error) {
	if !isJSONArray(raw) {
		return raw, nil
	}

	var items []json.RawMessage

	err := json.Unmarshal(raw, &items)
	if err != nil {
		return nil, fmt.Errorf("reading items: %w", err)
	}

	for i, item := range items {
		var id json.Number

		if json.Unmarshal(item, &id) != nil {
			continue
		}

		if _, err := id.Int64(); err != nil {
			continue
		}

		items[i] = json.RawMessage(`{"id":` + id.String() + `}`)
	}

	out, err := json.Marshal(items)
	if err != nil {
		return nil, fmt.Errorf("writing items: %w", err)
	}

	return out, nil
}

func isJSONArray(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)

	return len(trimmed) > 0 && trimmed[0] == '['
}
