package state

// View is the part of the editor that has keyboard focus.
type View uint8

const (
	ViewCodeEditor View = iota
	ViewFilesExplorer
	ViewCommander
)

// String returns the name shown in the status line.
func (v View) String() string {
	switch v {
	case ViewCodeEditor:
		return "Code Editor"
	case ViewFilesExplorer:
		return "Files Explorer"
	case ViewCommander:
		return "Commander"
	default:
		return "Unknown"
	}
}
