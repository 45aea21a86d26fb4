package domain

import (
	"encoding/json"
	"strings"
)

type CategoryKind int

const (
	// CategoryFlat is a plain single-level label.
	CategoryFlat CategoryKind = iota
	// CategoryHierarchical is a two-level main/sub pair.
	CategoryHierarchical
	// CategoryUnknown is the sentinel for order lines whose product
	// has been deleted from the catalog. Distinct from a real
	// category that happens to be named "Other".
	CategoryUnknown
)

// Category is the normalized form of the catalog's two historical
// category shapes: a flat label, or a {mainCategory, subCategory}
// pair. Persisted records in either shape are resolved here once at
// read time instead of branching on field presence everywhere.
type Category struct {
	Kind CategoryKind
	Main string
	Sub  string
}

func FlatCategory(name string) Category {
	return Category{Kind: CategoryFlat, Main: strings.TrimSpace(name)}
}

func HierarchicalCategory(main, sub string) Category {
	return Category{
		Kind: CategoryHierarchical,
		Main: strings.TrimSpace(main),
		Sub:  strings.TrimSpace(sub),
	}
}

// UnknownCategory is the bucket for order lines referencing deleted
// products.
func UnknownCategory() Category {
	return Category{Kind: CategoryUnknown, Main: "Other"}
}

// Label is the display form used as the breakdown key in reports.
func (c Category) Label() string {
	if c.Kind == CategoryHierarchical && c.Sub != "" {
		return c.Main + " / " + c.Sub
	}
	return c.Main
}

func (c Category) IsZero() bool {
	return c.Main == "" && c.Sub == ""
}

func (c Category) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CategoryHierarchical:
		return json.Marshal(struct {
			Main string `json:"mainCategory"`
			Sub  string `json:"subCategory"`
		}{c.Main, c.Sub})
	default:
		return json.Marshal(c.Main)
	}
}

// UnmarshalJSON accepts both the legacy flat string and the
// hierarchical object shape.
func (c *Category) UnmarshalJSON(data []byte) error {
	var flat string
	if err := json.Unmarshal(data, &flat); err == nil {
		*c = FlatCategory(flat)
		return nil
	}

	var pair struct {
		Main string `json:"mainCategory"`
		Sub  string `json:"subCategory"`
	}
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if pair.Sub == "" {
		*c = FlatCategory(pair.Main)
		return nil
	}
	*c = HierarchicalCategory(pair.Main, pair.Sub)
	return nil
}
