package catalog

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/kirillkom/virtual-tryon/internal/core/domain"
)

func TestEmbeddedCatalogHasFiveGarmentsWithSixSizes(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	items, err := c.List(context.Background())
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(items) != 5 {
		t.Fatalf("expected 5 garments, got %d", len(items))
	}
	for _, item := range items {
		if len(item.Sizes) != 6 {
			t.Fatalf("garment %d: expected 6 sizes, got %v", item.ID, item.Sizes)
		}
	}
}

func TestGetReturnsCatalogMeasurement(t *testing.T) {
	c, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	item, err := c.Get(context.Background(), 1)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if item.Image != "/uploads/garment_tshirt.jpg" || item.Name != `Green "Boston" T-Shirt` {
		t.Fatalf("unexpected item: %+v", item)
	}
	if m, _ := item.MeasurementFor("M"); m != "Chest 98cm, Length 70cm" {
		t.Fatalf("unexpected M measurement %q", m)
	}

	dress, _ := c.Get(context.Background(), 5)
	if m, _ := dress.MeasurementFor("XXL"); m != "Bust 100cm, Waist 82cm, Length 95cm" {
		t.Fatalf("unexpected dress measurement %q", m)
	}
}

func TestGetUnknownGarmentIsNotFound(t *testing.T) {
	c, _ := Load("")
	_, err := c.Get(context.Background(), 99)
	if !domain.IsKind(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestLoadFromFileValidatesMeasurements(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.yaml")
	raw := []byte("garments:\n  - id: 7\n    name: Scarf\n    image: /uploads/scarf.jpg\n    sizes: [S, M]\n    measurements:\n      S: Length 150cm\n")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write catalog: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for size without measurements")
	}
}
