package models

// DefaultTagColor is applied when the backend omits a tag color.
const DefaultTagColor = "#49a3d8"

// Tag is a label/color pair attached to an issue.
type Tag struct {
	Label string
	Color string
}
