package settings

// Item is one element of the declarative configuration form.
type Item struct {
	Type         string `json:"type"`
	DefaultValue string `json:"defaultValue,omitempty"`
	Size         int    `json:"size,omitempty"`
	MessageKey   string `json:"messageKey,omitempty"`
	Label        string `json:"label,omitempty"`
	Items        []Item `json:"items,omitempty"`
}

const (
	ItemHeading = "heading"
	ItemText    = "text"
	ItemSection = "section"
	ItemInput   = "input"
	ItemSubmit  = "submit"
)

// FormSchema returns the configuration form. Inputs are prefilled with current values.
func FormSchema(current Settings) []Item {
	return []Item{
		{Type: ItemHeading, DefaultValue: "Watch Configuration"},
		{Type: ItemText, DefaultValue: "You need to provide API keys and HTTP addresses."},
		{
			Type: ItemSection,
			Items: []Item{
				{Type: ItemHeading, DefaultValue: "Darksky"},
				{Type: ItemInput, MessageKey: FieldAPIKey, Label: "API Key", DefaultValue: deref(current.APIKey)},
			},
		},
		{
			Type: ItemSection,
			Items: []Item{
				{Type: ItemHeading, DefaultValue: "Report Source"},
				{Type: ItemInput, MessageKey: FieldReportSourceURL, Label: "HTTP address", DefaultValue: deref(current.ReportSourceURL)},
			},
		},
		{Type: ItemSubmit, DefaultValue: "Save Settings"},
	}
}

// Inputs flattens the schema to its input items in display order.
func Inputs(items []Item) []Item {
	var out []Item
	for _, it := range items {
		if it.Type == ItemInput {
			out = append(out, it)
		}
		out = append(out, Inputs(it.Items)...)
	}
	return out
}

func deref(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
