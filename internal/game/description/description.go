// Package description defines the document returned to the client for a
// character action: a title and a list of text or link parts.
package description

// Part is one item of a Description. A link part carries a Label and the
// FormAction to request when followed.
type Part struct {
	Text       string `json:"text,omitempty"`
	Label      string `json:"label,omitempty"`
	FormAction string `json:"form_action,omitempty"`
	IsLink     bool   `json:"is_link,omitempty"`
}

// Description is the document rendered by the client.
type Description struct {
	Title             string `json:"title"`
	Items             []Part `json:"items"`
	FooterCharacterID string `json:"footer_with_character_id,omitempty"`
	CanBeBack         bool   `json:"can_be_back_url,omitempty"`
}

// Text returns a plain text part.
func Text(s string) Part {
	return Part{Text: s}
}

// Link returns a link part.
func Link(label, formAction string) Part {
	return Part{Label: label, FormAction: formAction, IsLink: true}
}

// Texts returns one text part per line.
func Texts(lines []string) []Part {
	parts := make([]Part, 0, len(lines))
	for _, l := range lines {
		parts = append(parts, Text(l))
	}
	return parts
}
