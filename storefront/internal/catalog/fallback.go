package catalog

import "fmt"

// Placeholder content served when the catalog database cannot be read. Callers
// decide explicitly when to fall back; the repository never does it for them.

var standardDetails = []string{
	"Museum-quality acrylic face mounting",
	"Hand-signed certificate of authenticity",
	"Ready to hang with floating mount",
	"UV-protective coating",
	"Professional packaging and shipping",
}

var fallbackCollections = []Collection{
	{Slug: "wildlife", Title: "Wildlife", Description: "Portraits of the animals of the African savanna.", Image: "https://images.unsplash.com/photo-1516426122078-c23e76319801?w=800&q=80", Featured: true, Order: 1, Status: StatusPublished},
	{Slug: "landscapes", Title: "Landscapes", Description: "Mountains, canyons and coastlines in golden light.", Image: "https://images.unsplash.com/photo-1506905925346-21bda4d32df4?w=800&q=80", Featured: true, Order: 2, Status: StatusPublished},
	{Slug: "architecture", Title: "Architecture", Description: "Studies of geometry in glass and steel.", Image: "https://images.unsplash.com/photo-1486325212027-8081e485255e?w=800&q=80", Order: 3, Status: StatusPublished},
}

var fallbackProducts = []Product{
	placeholder("gemsbok-in-the-mist", "Gemsbok in the Mist", "wildlife", "photo-1516426122078-c23e76319801", 150, 47, true,
		"Captured in the golden light of an African sunrise, this gemsbok emerges from the morning mist like a spirit of the savanna.",
		[]Size{{"Medium", `40" x 30"`, 2500}, {"Large", `60" x 45"`, 4500}, {"Masterwork", `80" x 60"`, 8500}}),
	placeholder("reflection-pool", "Reflection Pool", "landscapes", "photo-1506905925346-21bda4d32df4", 100, 32, true,
		"A serene mountain lake mirrors the grandeur of snow-capped peaks, creating a perfect symmetry between earth and sky.",
		[]Size{{"Medium", `48" x 32"`, 3200}, {"Large", `72" x 48"`, 5800}, {"Masterwork", `96" x 64"`, 9500}}),
	placeholder("urban-symmetry", "Urban Symmetry", "architecture", "photo-1486325212027-8081e485255e", 125, 28, false,
		"Modern architecture reaches toward the sky in a study of geometric perfection.",
		[]Size{{"Medium", `40" x 30"`, 2800}, {"Large", `60" x 45"`, 4800}, {"Masterwork", `80" x 60"`, 8800}}),
	placeholder("golden-hour", "Golden Hour", "landscapes", "photo-1469474968028-56623f02e42e", 175, 61, false,
		"Late light spills across rolling hills as the day gives way to dusk.",
		[]Size{{"Medium", `40" x 30"`, 2200}, {"Large", `60" x 45"`, 4200}, {"Masterwork", `80" x 60"`, 7800}}),
	placeholder("elephant-portrait", "Elephant Portrait", "wildlife", "photo-1557050543-4d5f4e07ef46", 75, 40, true,
		"An intimate portrait of a bull elephant, every line of its face a record of the years.",
		[]Size{{"Medium", `40" x 30"`, 3500}, {"Large", `60" x 45"`, 5500}, {"Masterwork", `80" x 60"`, 9800}}),
}

func placeholder(slug, title, collection, photo string, total, sold int, featured bool, description string, sizes []Size) Product {
	return Product{
		Slug:           slug,
		Title:          title,
		Description:    description,
		CollectionSlug: collection,
		Images: []string{
			fmt.Sprintf("https://images.unsplash.com/%s?w=1200&q=90", photo),
			fmt.Sprintf("https://images.unsplash.com/%s?w=800&q=80", photo),
		},
		Sizes:    sizes,
		Edition:  Edition{Type: EditionLimited, Total: total, Sold: sold},
		Details:  standardDetails,
		Featured: featured,
		Status:   StatusPublished,
	}
}

func FallbackCollections() []*Collection {
	out := make([]*Collection, 0, len(fallbackCollections))
	for i := range fallbackCollections {
		c := fallbackCollections[i]
		out = append(out, &c)
	}
	return out
}

func FallbackCollection(slug string) (*Collection, error) {
	for i := range fallbackCollections {
		if fallbackCollections[i].Slug == slug {
			c := fallbackCollections[i]
			return &c, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrCollectionNotFound, slug)
}

// FallbackProducts applies the same filters as Repository.ListProducts.
func FallbackProducts(opts ListOptions) []*Product {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultProductLimit
	}
	var out []*Product
	for i := range fallbackProducts {
		p := fallbackProducts[i]
		if opts.Collection != "" && p.CollectionSlug != opts.Collection {
			continue
		}
		if opts.Featured && !p.Featured {
			continue
		}
		out = append(out, &p)
		if len(out) == limit {
			break
		}
	}
	return out
}

func FallbackProduct(slug string) (*Product, error) {
	for i := range fallbackProducts {
		if fallbackProducts[i].Slug == slug {
			p := fallbackProducts[i]
			return &p, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrProductNotFound, slug)
}
