package catalog

import (
	"context"
	_ "embed"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/kirillkom/virtual-tryon/internal/core/domain"
)

//go:embed garments.yaml
var embeddedGarments []byte

// Catalog is a fixed, read-only garment list loaded once at startup.
type Catalog struct {
	items []domain.CatalogItem
	byID  map[int]domain.CatalogItem
}

type document struct {
	Garments []domain.CatalogItem `yaml:"garments"`
}

// Load reads the catalog from path, or the embedded catalog when path is
// empty.
func Load(path string) (*Catalog, error) {
	if strings.TrimSpace(path) == "" {
		return Parse(embeddedGarments)
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog file: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (*Catalog, error) {
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("parse catalog yaml: %w", err)
	}

	c := &Catalog{byID: make(map[int]domain.CatalogItem, len(doc.Garments))}
	for _, item := range doc.Garments {
		if err := validate(item); err != nil {
			return nil, err
		}
		if _, dup := c.byID[item.ID]; dup {
			return nil, fmt.Errorf("catalog garment %d is defined twice", item.ID)
		}
		c.byID[item.ID] = item
		c.items = append(c.items, item)
	}
	return c, nil
}

func validate(item domain.CatalogItem) error {
	if item.ID <= 0 {
		return fmt.Errorf("catalog garment %q has no positive id", item.Name)
	}
	if strings.TrimSpace(item.Image) == "" {
		return fmt.Errorf("catalog garment %d has no image", item.ID)
	}
	if len(item.Sizes) == 0 {
		return fmt.Errorf("catalog garment %d has no sizes", item.ID)
	}
	for _, size := range item.Sizes {
		if strings.TrimSpace(item.Measurements[size]) == "" {
			return fmt.Errorf("catalog garment %d has no measurements for size %s", item.ID, size)
		}
	}
	return nil
}

func (c *Catalog) List(context.Context) ([]domain.CatalogItem, error) {
	out := make([]domain.CatalogItem, len(c.items))
	copy(out, c.items)
	return out, nil
}

func (c *Catalog) Get(_ context.Context, id int) (domain.CatalogItem, error) {
	item, ok := c.byID[id]
	if !ok {
		return domain.CatalogItem{}, domain.WrapError(domain.ErrNotFound, "catalog get", fmt.Errorf("garment %d", id))
	}
	return item, nil
}
