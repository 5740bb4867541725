package domain

type CatalogItem struct {
	ID           int               `json:"id" yaml:"id"`
	Name         string            `json:"name" yaml:"name"`
	Image        string            `json:"image" yaml:"image"`
	Sizes        []string          `json:"sizes" yaml:"sizes"`
	Measurements map[string]string `json:"measurements" yaml:"measurements"`
}

func (c CatalogItem) MeasurementFor(size string) (string, bool) {
	if size == "" {
		return "", false
	}
	m, ok := c.Measurements[size]
	return m, ok
}
