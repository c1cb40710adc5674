package scraper

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestDefaultSelectors verifies the defaults match the reference site markup
func TestDefaultSelectors(t *testing.T) {
	s := DefaultSelectors()

	assert.Equal(t, "ul.list-unstyled.categories", s.Directory.Container)
	assert.Equal(t, "div.letaky-grid", s.Flyer.Grid)
	assert.Equal(t, "div.brochure-thumb", s.Flyer.Node)
	assert.Equal(t, "grid-item-old", s.Flyer.StaleClass)
	assert.Equal(t, []string{"src", "data-src", "data-lazy"}, s.Flyer.ImageAttrs)
}

// TestSelectors_Merge verifies overrides survive and gaps are filled
func TestSelectors_Merge(t *testing.T) {
	partial := Selectors{
		Flyer: FlyerSelectors{
			Grid:       "section.flyers",
			ImageAttrs: []string{"data-original"},
		},
	}

	merged := partial.Merge(DefaultSelectors())

	assert.Equal(t, "section.flyers", merged.Flyer.Grid)
	assert.Equal(t, []string{"data-original"}, merged.Flyer.ImageAttrs)
	assert.Equal(t, "div.brochure-thumb", merged.Flyer.Node)
	assert.Equal(t, "ul.list-unstyled.categories", merged.Directory.Container)
	assert.Equal(t, "li", merged.Directory.Entry)
}

// TestSelectors_MergeDoesNotAliasDefaults verifies defaults stay untouched
func TestSelectors_MergeDoesNotAliasDefaults(t *testing.T) {
	defaults := DefaultSelectors()
	merged := Selectors{}.Merge(defaults)

	merged.Flyer.ImageAttrs[0] = "changed"

	assert.Equal(t, "src", defaults.Flyer.ImageAttrs[0])
}
