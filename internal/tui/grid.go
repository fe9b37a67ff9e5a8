package tui

import (
	"github.com/ddownloader/ddclient/internal/types"
)

type GridState int

const (
	GridLoading GridState = iota
	GridReady
	GridFailed
)

func (s GridState) String() string {
	switch s {
	case GridLoading:
		return "Loading"
	case GridReady:
		return "Ready"
	case GridFailed:
		return "Failed"
	}
	return "Unknown"
}

// TaskGrid holds the last task listing and which fetch it came from.
// Only the result of the most recently started fetch is applied.
type TaskGrid struct {
	State      GridState
	Tasks      []types.Task
	TotalCount int
	Err        error

	gen      uint64
	inFlight bool
	cursor   int
}

// BeginFetch starts a new fetch generation and returns its tag.
// Tasks already shown stay visible while a refresh is in flight.
func (g *TaskGrid) BeginFetch() uint64 {
	g.gen++
	g.inFlight = true
	if len(g.Tasks) == 0 {
		g.State = GridLoading
	}
	return g.gen
}

// Apply stores a fetch result. Results from older generations are
// ignored and Apply returns false.
func (g *TaskGrid) Apply(gen uint64, page *types.TaskPage, err error) bool {
	if gen != g.gen {
		return false
	}
	g.inFlight = false

	if err != nil || page == nil {
		g.State = GridFailed
		g.Err = err
		g.Tasks = nil
		g.TotalCount = 0
		g.cursor = 0
		return true
	}

	g.State = GridReady
	g.Err = nil
	g.Tasks = page.Tasks
	g.TotalCount = page.TotalCount
	g.clampCursor()
	return true
}

// Refreshing reports whether a fetch is outstanding.
func (g *TaskGrid) Refreshing() bool { return g.inFlight }

// Generation returns the tag of the latest fetch.
func (g *TaskGrid) Generation() uint64 { return g.gen }

func (g *TaskGrid) Cursor() int { return g.cursor }

func (g *TaskGrid) MoveUp() {
	if g.cursor > 0 {
		g.cursor--
	}
}

func (g *TaskGrid) MoveDown() {
	if g.cursor < len(g.Tasks)-1 {
		g.cursor++
	}
}

// Selected returns the task under the cursor, or nil if the grid is empty.
func (g *TaskGrid) Selected() *types.Task {
	if g.cursor < 0 || g.cursor >= len(g.Tasks) {
		return nil
	}
	return &g.Tasks[g.cursor]
}

func (g *TaskGrid) clampCursor() {
	if g.cursor >= len(g.Tasks) {
		g.cursor = len(g.Tasks) - 1
	}
	if g.cursor < 0 {
		g.cursor = 0
	}
}

// CountByStatus tallies the current tasks for the header.
func (g *TaskGrid) CountByStatus() map[types.TaskStatus]int {
	counts := make(map[types.TaskStatus]int, 5)
	for _, t := range g.Tasks {
		counts[t.Status]++
	}
	return counts
}
