package explorer

import "fmt"

// TaskKind selects what a Task does.
type TaskKind uint8

const (
	// OpenFolder lists a folder and expands it.
	OpenFolder TaskKind = iota
	// CloseFolder collapses a folder.
	CloseFolder
	// OpenFile reads a file into an editor tab.
	OpenFile
)

func (k TaskKind) String() string {
	switch k {
	case OpenFolder:
		return "open-folder"
	case CloseFolder:
		return "close-folder"
	case OpenFile:
		return "open-file"
	default:
		return fmt.Sprintf("TaskKind(%d)", k)
	}
}

// Task is one explorer action on Path, which lives in the workspace
// folder RootPath. Row is the explorer row that triggered it; it receives
// keyboard focus once the task is done. A negative Row leaves focus alone.
type Task struct {
	Kind     TaskKind
	Path     string
	RootPath string
	Row      int
}

func (t Task) String() string {
	return fmt.Sprintf("%s %s", t.Kind, t.Path)
}
