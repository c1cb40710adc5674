package scraper

// Selectors defines how to find shops and flyers on the target website.
type Selectors struct {
	Directory DirectorySelectors `yaml:"directory" json:"directory"`
	Flyer     FlyerSelectors     `yaml:"flyer" json:"flyer"`
}

// DirectorySelectors locate shop entries on the shop category page.
type DirectorySelectors struct {
	Container string `yaml:"container" json:"container"`
	Entry     string `yaml:"entry" json:"entry"`
	Link      string `yaml:"link" json:"link"`
}

// FlyerSelectors locate flyer cards and their fields on a shop page.
type FlyerSelectors struct {
	Grid       string   `yaml:"grid" json:"grid"`
	Node       string   `yaml:"node" json:"node"`
	Item       string   `yaml:"item" json:"item"`
	StaleClass string   `yaml:"stale_class" json:"stale_class"` // set on Item for greyed-out flyers
	Title      string   `yaml:"title" json:"title"`
	Date       string   `yaml:"date" json:"date"`
	Image      string   `yaml:"image" json:"image"`
	ImageAttrs []string `yaml:"image_attrs" json:"image_attrs"` // checked in order
	Link       string   `yaml:"link" json:"link"`
}

// DefaultSelectors returns the selectors for prospektmaschine.de.
func DefaultSelectors() Selectors {
	return Selectors{
		Directory: DirectorySelectors{
			Container: "ul.list-unstyled.categories",
			Entry:     "li",
			Link:      "a",
		},
		Flyer: FlyerSelectors{
			Grid:       "div.letaky-grid",
			Node:       "div.brochure-thumb",
			Item:       "div.grid-item",
			StaleClass: "grid-item-old",
			Title:      "strong",
			Date:       "small.hidden-sm",
			Image:      "img",
			ImageAttrs: []string{"src", "data-src", "data-lazy"},
			Link:       "a",
		},
	}
}

// Merge fills every empty field of s from defaults.
func (s Selectors) Merge(defaults Selectors) Selectors {
	d, dd := &s.Directory, defaults.Directory
	d.Container = or(d.Container, dd.Container)
	d.Entry = or(d.Entry, dd.Entry)
	d.Link = or(d.Link, dd.Link)

	f, fd := &s.Flyer, defaults.Flyer
	f.Grid = or(f.Grid, fd.Grid)
	f.Node = or(f.Node, fd.Node)
	f.Item = or(f.Item, fd.Item)
	f.StaleClass = or(f.StaleClass, fd.StaleClass)
	f.Title = or(f.Title, fd.Title)
	f.Date = or(f.Date, fd.Date)
	f.Image = or(f.Image, fd.Image)
	f.Link = or(f.Link, fd.Link)
	if len(f.ImageAttrs) == 0 {
		f.ImageAttrs = append([]string(nil), fd.ImageAttrs...)
	}

	return s
}

func or(v, fallback string) string {
	if v == "" {
		return fallback
	}
	return v
}
