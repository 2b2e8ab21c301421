package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mmeshcher/checkout-sim/internal/model"
)

//go:embed default.yaml
var defaultCatalog []byte

type fileShelf struct {
	Product string `yaml:"product"`
	Units   int    `yaml:"units"`
}

type file struct {
	Products []model.ProductDefinition `yaml:"products"`
	Shelf    []fileShelf               `yaml:"shelf"`
	Labels   []model.BarcodeLabel      `yaml:"labels"`
}

// Load читает каталог в формате YAML.
func Load(r io.Reader) (*Catalog, error) {
	var f file

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("decode catalog: %w", err)
	}

	c := New()
	for _, p := range f.Products {
		if err := c.Register(p); err != nil {
			return nil, fmt.Errorf("register product: %w", err)
		}
	}
	for _, s := range f.Shelf {
		if err := c.AddShelf(s.Product, s.Units); err != nil {
			return nil, fmt.Errorf("stock shelf: %w", err)
		}
	}
	for _, l := range f.Labels {
		if err := c.AddLabel(l); err != nil {
			return nil, fmt.Errorf("add label: %w", err)
		}
	}

	return c, nil
}

// LoadFile читает каталог из файла.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()

	return Load(f)
}

// Default возвращает встроенный каталог.
func Default() (*Catalog, error) {
	return Load(bytes.NewReader(defaultCatalog))
}
