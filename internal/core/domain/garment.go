package domain

import (
	"fmt"
	"strings"
)

type GarmentSourceKind string

const (
	GarmentSourceManual  GarmentSourceKind = "manual"
	GarmentSourceCatalog GarmentSourceKind = "catalog"
)

// GarmentSelection is the single active source of garment metadata:
// either a ManualGarment or a CatalogGarment.
type GarmentSelection interface {
	Kind() GarmentSourceKind
	Measurements() string
	isGarmentSelection()
}

// ManualGarment is a user-supplied garment photo with free-text
// measurements.
type ManualGarment struct {
	Photo            Photo
	MeasurementsText string
}

func (ManualGarment) Kind() GarmentSourceKind { return GarmentSourceManual }
func (g ManualGarment) Measurements() string  { return g.MeasurementsText }
func (ManualGarment) isGarmentSelection()     {}

// Validate requires only the photo. Measurement text may be empty; the
// backend decides whether that is acceptable.
func (g ManualGarment) Validate() error {
	if g.Photo.IsZero() {
		return WrapError(ErrInvalidInput, "garment photo", fmt.Errorf("photo is required"))
	}
	return nil
}

// CatalogGarment is a catalog entry with the chosen size.
type CatalogGarment struct {
	Item CatalogItem
	Size string
}

func NewCatalogGarment(item CatalogItem, size string) (CatalogGarment, error) {
	size = strings.TrimSpace(size)
	if _, ok := item.MeasurementFor(size); !ok {
		return CatalogGarment{}, WrapError(ErrInvalidInput, "catalog selection",
			fmt.Errorf("garment %d has no size %q", item.ID, size))
	}
	return CatalogGarment{Item: item, Size: size}, nil
}

func (CatalogGarment) Kind() GarmentSourceKind { return GarmentSourceCatalog }

func (g CatalogGarment) Measurements() string {
	m, _ := g.Item.MeasurementFor(g.Size)
	return m
}

func (CatalogGarment) isGarmentSelection() {}

// UploadResult synthesizes the garment reference locally; the catalog
// image is already reachable by the backend.
func (g CatalogGarment) UploadResult() GarmentUploadResult {
	return GarmentUploadResult{
		StoredPath:       g.Item.Image,
		MeasurementsText: g.Measurements(),
		Name:             g.Item.Name,
		Size:             g.Size,
	}
}
