package browser

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/mattsolo1/grove-structview/pkg/session"
	"github.com/mattsolo1/grove-structview/pkg/snapshot"
	"github.com/mattsolo1/grove-structview/pkg/traverse"
	"github.com/mattsolo1/grove-structview/pkg/tree"
)

// stepsPerFrame bounds how many nodes one walk command visits before the
// view is refreshed.
const stepsPerFrame = 32

type nodeLoadedMsg struct {
	id  tree.ID
	err error
}

type walkSteppedMsg struct {
	walk *traverse.Walk
	done bool
	err  error
}

type exportedMsg struct {
	path     string
	progress traverse.Progress
	err      error
}

// rerenderJob builds a tree off the update loop; see session.PrepareRerender.
type rerenderJob func(ctx context.Context) (*session.Pending, error)

type rerenderedMsg struct {
	pending *session.Pending
	err     error
}

type reloadedMsg struct {
	pending *session.Pending
	err     error
}

func loadNodeCmd(sess *session.Session, id tree.ID) tea.Cmd {
	return func() tea.Msg {
		err := sess.Load(context.Background(), id)
		return nodeLoadedMsg{id: id, err: err}
	}
}

func stepWalkCmd(ctx context.Context, w *traverse.Walk) tea.Cmd {
	return func() tea.Msg {
		for i := 0; i < stepsPerFrame; i++ {
			done, err := w.Step(ctx)
			if err != nil || done {
				return walkSteppedMsg{walk: w, done: done, err: err}
			}
		}
		return walkSteppedMsg{walk: w}
	}
}

func exportCmd(sess *session.Session, opts snapshot.Options, dir string) tea.Cmd {
	return func() tea.Msg {
		res, err := snapshot.Export(context.Background(), sess, opts)
		if err != nil {
			return exportedMsg{err: err}
		}
		path, err := snapshot.WriteFile(dir, res)
		return exportedMsg{path: path, progress: res.Progress, err: err}
	}
}

func rerenderCmd(job rerenderJob) tea.Cmd {
	return func() tea.Msg {
		p, err := job(context.Background())
		return rerenderedMsg{pending: p, err: err}
	}
}

func reloadCmd(job rerenderJob) tea.Cmd {
	return func() tea.Msg {
		p, err := job(context.Background())
		return reloadedMsg{pending: p, err: err}
	}
}
