package cart

import (
	"encoding/json"
	"fmt"

	"github.com/utafrali/designstudio/internal/domain"
)

// encodeItems serializes a line-item sequence for storage. An empty cart is
// stored as "[]" so a cleared slot stays distinguishable from a missing one.
func encodeItems(items []domain.LineItem) (string, error) {
	if items == nil {
		items = []domain.LineItem{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("marshal cart: %w", err)
	}
	return string(data), nil
}

func decodeItems(raw string) ([]domain.LineItem, error) {
	var items []domain.LineItem
	if err := json.Unmarshal([]byte(raw), &items); err != nil {
		return nil, fmt.Errorf("unmarshal cart: %w", err)
	}
	return items, nil
}
