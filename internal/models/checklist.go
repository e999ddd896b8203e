package models

type ItemType string

const (
	ItemBoolean ItemType = "boolean"
	ItemEnum    ItemType = "enum"
	ItemText    ItemType = "text"
	ItemNumber  ItemType = "number"
)

type Option struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type ChecklistItem struct {
	ID              string   `json:"id"`
	Label           string   `json:"label"`
	Type            ItemType `json:"type"`
	Options         []Option `json:"options"`
	SeverityEnabled bool     `json:"severityEnabled,omitempty"`
}

type ChecklistSection struct {
	ID    string          `json:"id"`
	Title string          `json:"title"`
	Items []ChecklistItem `json:"items"`
}

type ChecklistTemplate struct {
	ID       string             `json:"id"`
	Name     string             `json:"name"`
	Version  string             `json:"version"`
	Sections []ChecklistSection `json:"sections"`
}

// ItemCount - количество пунктов во всех секциях
func (t ChecklistTemplate) ItemCount() int {
	n := 0
	for _, s := range t.Sections {
		n += len(s.Items)
	}
	return n
}
