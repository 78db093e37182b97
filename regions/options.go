package regions

import "fmt"

// Separator is the label of the disabled entry between the prioritized
// options and the full catalog.
const Separator = "––––"

// Option is one entry of the home-location dropdown.
type Option struct {
	Value    string `json:"value"`
	Label    string `json:"label"`
	Disabled bool   `json:"isDisabled,omitempty"`
}

func optionsFor(regions []Region) []Option {
	var opts []Option
	for _, r := range regions {
		for _, city := range r.Cities {
			loc := FormatLocation(city, r.Province)
			opts = append(opts, Option{Value: loc, Label: loc})
		}
	}
	return opts
}

// LocationOptions composes the dropdown. With a detected location the list
// starts with it and the cities of its province; otherwise it starts with
// the popular shortlist. The full sorted catalog always follows the separator.
func (c *Catalog) LocationOptions(detected string) []Option {
	var opts []Option

	if detected != "" {
		opts = append(opts, Option{
			Value: detected,
			Label: fmt.Sprintf("📍 %s (Detected)", detected),
		})

		_, province := SplitLocation(detected)
		opts = append(opts, optionsFor(c.NearbyCities(province))...)
	} else {
		for _, r := range c.popular {
			loc := r.Canonical()
			opts = append(opts, Option{Value: loc, Label: loc})
		}
	}

	opts = append(opts, Option{Label: Separator, Disabled: true})
	return append(opts, optionsFor(c.Sorted())...)
}
