// Package interact turns pointer input into annotation store mutations and
// derives the cursor to show.
package interact

import (
	"strings"

	"github.com/pkg/errors"

	"chart-annotator/internal/annotation"
)

// Tool is the active toolbar tool.
type Tool int

const (
	ToolNone Tool = iota
	ToolSelect
	ToolLine
	ToolRect
	ToolCircle
	ToolErase
)

var toolNames = map[Tool]string{
	ToolNone:   "none",
	ToolSelect: "select",
	ToolLine:   "line",
	ToolRect:   "rect",
	ToolCircle: "circle",
	ToolErase:  "erase",
}

// Tools lists every tool in toolbar order.
var Tools = []Tool{ToolNone, ToolSelect, ToolLine, ToolRect, ToolCircle, ToolErase}

func (t Tool) String() string {
	if name, ok := toolNames[t]; ok {
		return name
	}
	return "unknown"
}

// ParseTool parses a tool name, case-insensitively.
func ParseTool(s string) (Tool, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	for t, name := range toolNames {
		if name == s {
			return t, nil
		}
	}
	return ToolNone, errors.Errorf("unknown tool %q", s)
}

// IsDrawing reports whether the tool creates shapes.
func (t Tool) IsDrawing() bool {
	return t.Kind() != ""
}

// Kind returns the shape kind a drawing tool creates, empty otherwise.
func (t Tool) Kind() annotation.Kind {
	switch t {
	case ToolLine:
		return annotation.KindLine
	case ToolRect:
		return annotation.KindRect
	case ToolCircle:
		return annotation.KindCircle
	}
	return ""
}

// Cursor is a pointer cursor name.
type Cursor string

const (
	CursorDefault    Cursor = "default"
	CursorPointer    Cursor = "pointer"
	CursorGrabbing   Cursor = "grabbing"
	CursorNotAllowed Cursor = "not-allowed"
	CursorCrosshair  Cursor = "crosshair"
	CursorNWSEResize Cursor = "nwse-resize"
	CursorNESWResize Cursor = "nesw-resize"
)
