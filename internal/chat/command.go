package chat

import (
	"fmt"
	"strings"
)

const (
	// RenamePrefix introduces a display-name change: "CHANGE_USERNAME:<name>".
	RenamePrefix = "CHANGE_USERNAME:"
	// DisconnectCommand ends the session.
	DisconnectCommand = "DISCONNECTED"
)

// LineKind classifies an inbound line received in the Active state.
type LineKind int

const (
	LineChat LineKind = iota
	LineRename
	LineDisconnect
	LineBlank
)

func (k LineKind) String() string {
	switch k {
	case LineChat:
		return "chat"
	case LineRename:
		return "rename"
	case LineDisconnect:
		return "disconnect"
	case LineBlank:
		return "blank"
	}
	return fmt.Sprintf("LineKind(%d)", int(k))
}

// Line is a classified inbound line. Arg holds the new name for LineRename
// and the payload for LineChat.
type Line struct {
	Kind LineKind
	Arg  string
}

// ParseLine classifies raw. Control lines are never broadcast.
func ParseLine(raw string) Line {
	switch {
	case strings.TrimSpace(raw) == "":
		return Line{Kind: LineBlank}
	case raw == DisconnectCommand:
		return Line{Kind: LineDisconnect}
	case strings.HasPrefix(raw, RenamePrefix):
		return Line{Kind: LineRename, Arg: strings.TrimPrefix(raw, RenamePrefix)}
	default:
		return Line{Kind: LineChat, Arg: raw}
	}
}

// FormatMessage renders a chat payload the way every recipient sees it.
func FormatMessage(name, id, payload string) string {
	return name + " (" + id + "): " + payload
}
