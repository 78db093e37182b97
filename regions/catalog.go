package regions

import (
	_ "embed"
	"fmt"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed regions.yaml
var catalogYAML []byte

// Region is one catalog entry. Cities[0] is the primary city.
type Region struct {
	Cities     []string `yaml:"kota" json:"cities"`
	Province   string   `yaml:"provinsi" json:"province"`
	ProvinceEN string   `yaml:"province" json:"provinceEn,omitempty"`
	Aliases    []string `yaml:"aliases" json:"-"`
}

// PrimaryCity returns the city used for matching geocoder results.
func (r Region) PrimaryCity() string {
	if len(r.Cities) == 0 {
		return ""
	}
	return r.Cities[0]
}

// Canonical returns the "City, Province" pairing for the primary city.
func (r Region) Canonical() string {
	return FormatLocation(r.PrimaryCity(), r.Province)
}

type catalogFile struct {
	Popular []Region `yaml:"popular"`
	Regions []Region `yaml:"regions"`
}

// Catalog is an immutable bilingual city/province table.
type Catalog struct {
	regions []Region
	popular []Region
}

var (
	defaultCatalog     *Catalog
	defaultCatalogOnce sync.Once
)

// Default returns the catalog compiled into the binary.
func Default() *Catalog {
	defaultCatalogOnce.Do(func() {
		c, err := Load(catalogYAML)
		if err != nil {
			panic(fmt.Sprintf("regions: embedded catalog: %v", err))
		}
		defaultCatalog = c
	})
	return defaultCatalog
}

// Load parses a catalog document.
func Load(data []byte) (*Catalog, error) {
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("regions: decode catalog: %w", err)
	}

	for i, r := range append(append([]Region{}, file.Regions...), file.Popular...) {
		if r.PrimaryCity() == "" || strings.TrimSpace(r.Province) == "" {
			return nil, fmt.Errorf("regions: entry %d needs at least one city and a province", i)
		}
	}

	if len(file.Regions) == 0 {
		return nil, fmt.Errorf("regions: catalog is empty")
	}

	return &Catalog{regions: file.Regions, popular: file.Popular}, nil
}

// Regions returns the entries in catalog order.
func (c *Catalog) Regions() []Region {
	return append([]Region(nil), c.regions...)
}

// Popular returns the fallback shortlist used when no location was detected.
func (c *Catalog) Popular() []Region {
	return append([]Region(nil), c.popular...)
}

// TranslateProvince maps a province name in either language to the
// localized name. Unknown names are returned unchanged.
func (c *Catalog) TranslateProvince(name string) string {
	needle := strings.TrimSpace(name)
	if needle == "" {
		return name
	}

	for _, r := range c.regions {
		if strings.EqualFold(r.ProvinceEN, needle) || strings.EqualFold(r.Province, needle) {
			return r.Province
		}
		for _, alias := range r.Aliases {
			if strings.EqualFold(alias, needle) {
				return r.Province
			}
		}
	}

	return name
}

// MatchCityPrefix returns the first entry whose primary city appears,
// case-insensitively, within cityName.
func (c *Catalog) MatchCityPrefix(cityName string) (Region, bool) {
	haystack := strings.ToLower(strings.TrimSpace(cityName))
	if haystack == "" {
		return Region{}, false
	}

	for _, r := range c.regions {
		if strings.Contains(haystack, strings.ToLower(r.PrimaryCity())) {
			return r, true
		}
	}

	return Region{}, false
}

// NearbyCities returns every entry in the given province, which may be
// spelled in either language.
func (c *Catalog) NearbyCities(province string) []Region {
	localized := c.TranslateProvince(province)
	if strings.TrimSpace(localized) == "" {
		return nil
	}

	var nearby []Region
	for _, r := range c.regions {
		if strings.EqualFold(r.Province, localized) {
			nearby = append(nearby, r)
		}
	}
	return nearby
}

// Sorted returns the entries ordered by primary city, case-insensitive.
func (c *Catalog) Sorted() []Region {
	sorted := c.Regions()
	sort.SliceStable(sorted, func(i, j int) bool {
		return strings.ToLower(sorted[i].PrimaryCity()) < strings.ToLower(sorted[j].PrimaryCity())
	})
	return sorted
}

// FormatLocation joins a city and province into the canonical form.
func FormatLocation(city, province string) string {
	city = strings.TrimSpace(city)
	province = strings.TrimSpace(province)
	switch {
	case city == "":
		return province
	case province == "":
		return city
	}
	return city + ", " + province
}

// SplitLocation is the inverse of FormatLocation. The province part is
// everything after the first comma.
func SplitLocation(location string) (city, province string) {
	city, province, _ = strings.Cut(location, ",")
	return strings.TrimSpace(city), strings.TrimSpace(province)
}
