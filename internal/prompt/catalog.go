package prompt

import (
	"fmt"
	"strings"
)

// The five style templates. Order here is the order List returns; ids are
// stable and referenced by stored designs.
var templates = []*Template{
	{
		ID:          "heritage-symbolism",
		Name:        "Heritage & Symbolism",
		Description: "Traditional emblems, crests, and time-honored engraving.",
		Segments: []Segment{
			{Literal: "Design a custom challenge coin in a heritage style: classical engraving, laurel wreaths, crests, banners, and time-honored emblems arranged with formal symmetry."},
			{Slot: SlotTheme},
			{Slot: SlotLocation},
			{Slot: SlotExactFiles},
			{Slot: SlotInspirationFiles},
			{Literal: "Render the front face of the coin only, in crisp metallic relief with an antique finish."},
		},
		locationFormat: "Weave in cultural and historical symbols strongly associated with %s.",
	},
	{
		ID:          "modern-minimalist",
		Name:        "Modern Minimalist",
		Description: "Clean lines, negative space, restrained palette.",
		Segments: []Segment{
			{Literal: "Design a sleek, modern challenge coin: clean geometric lines, generous negative space, a restrained two-tone palette, and sans-serif lettering."},
			{Slot: SlotTheme},
			{Slot: SlotLocation},
			{Slot: SlotExactFiles},
			{Slot: SlotInspirationFiles},
			{Literal: "Render the front face of the coin only, with a brushed matte finish and subtle edge detailing."},
		},
		locationFormat: "Hint at %s through a single understated regional motif; keep the composition uncluttered.",
	},
	{
		ID:          "illustrative-detailed",
		Name:        "Illustrative & Detailed",
		Description: "Intricate, artistically rich scene work.",
		Segments: []Segment{
			{Literal: "Design an intricate, artistically rich challenge coin: a fully illustrated scene with layered depth, fine linework, and ornate border treatment."},
			{Slot: SlotTheme},
			{Slot: SlotLocation},
			{Slot: SlotExactFiles},
			{Slot: SlotInspirationFiles},
			{Literal: "Render the front face of the coin only, with high-relief sculptural detail throughout."},
		},
		locationFormat: "Depict recognizable landmarks, scenery, or iconography of %s within the illustrated scene.",
	},
	{
		ID:          "functional-industrial",
		Name:        "Functional + Industrial",
		Description: "Purpose-built, engineered, machine-age aesthetics.",
		Segments: []Segment{
			{Literal: "Design a challenge coin that looks purpose-built and engineered: exposed gear and rivet motifs, machined edges, stamped lettering, and a utilitarian layout."},
			{Slot: SlotTheme},
			{Slot: SlotLocation},
			{Slot: SlotExactFiles},
			{Slot: SlotInspirationFiles},
			{Literal: "Render the front face of the coin only, in gunmetal and steel tones with a machined finish."},
		},
		locationFormat: "Reference the industrial and engineering heritage of %s in the mechanical motifs.",
	},
	{
		ID:           "military-commemorative",
		Name:         "Military Commemorative",
		Description:  "Honors service; built around provided unit insignia.",
		RequiresFile: true,
		Segments: []Segment{
			{Literal: "Design a military commemorative challenge coin that honors service: unit insignia placement, rank and campaign devices, a motto ribbon, and a dignified star-and-eagle border."},
			{Slot: SlotTheme},
			{Slot: SlotLocation},
			{Slot: SlotExactFiles},
			{Slot: SlotInspirationFiles},
			{Literal: "Render the front face of the coin only, in polished brass with enamel accents."},
		},
		locationFormat: "Incorporate the military history and service traditions of %s.",
	},
}

var templatesByID = buildIndex()

func buildIndex() map[string]*Template {
	idx := make(map[string]*Template, len(templates))
	for _, t := range templates {
		idx[strings.ToLower(t.ID)] = t
	}
	return idx
}

// Get returns the template with the given id. Display names are accepted in
// place of ids so callers can say "Heritage & Symbolism" as well as
// "heritage-symbolism". Returned templates are shared and read-only.
func Get(id string) (*Template, error) {
	key := strings.ToLower(strings.TrimSpace(id))
	if key == "" {
		return nil, fmt.Errorf("prompt: empty template id: %w", ErrNotFound)
	}
	if t, ok := templatesByID[key]; ok {
		return t, nil
	}
	for _, t := range templates {
		if strings.EqualFold(strings.TrimSpace(id), t.Name) {
			return t, nil
		}
	}
	return nil, fmt.Errorf("prompt: template %q: %w", id, ErrNotFound)
}

// List returns all templates in catalog order.
func List() []*Template {
	out := make([]*Template, len(templates))
	copy(out, templates)
	return out
}
