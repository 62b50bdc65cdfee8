package control

import (
	"context"
	"errors"
	"time"

	"gocv.io/x/gocv"

	"riceinspector/internal/model"
)

// Action is what the operator asked the inspection loop to do.
type Action int

const (
	None Action = iota
	Save
	Quit
)

func (a Action) String() string {
	switch a {
	case Save:
		return "save"
	case Quit:
		return "quit"
	default:
		return "none"
	}
}

// ErrStopped is returned to remote callers when the loop ended before
// handling their command.
var ErrStopped = errors.New("inspection stopped")

// Command carries an action and, for remote requests, the channel the loop
// reports the outcome on.
type Command struct {
	Action Action
	reply  chan outcome
}

type outcome struct {
	report *model.ReportRecord
	err    error
}

// Done reports the outcome of the command to a waiting remote caller.
func (c Command) Done(err error) {
	if c.reply != nil {
		c.reply <- outcome{err: err}
	}
}

// Saved completes a save command with the report it produced.
func (c Command) Saved(report model.ReportRecord) {
	if c.reply != nil {
		c.reply <- outcome{report: &report}
	}
}

// Remote queues commands from other goroutines (HTTP handlers) for the loop.
type Remote struct {
	commands chan Command
}

func NewRemote() *Remote {
	return &Remote{commands: make(chan Command, 8)}
}

// Request queues an action and waits until the loop has handled it.
func (r *Remote) Request(ctx context.Context, action Action) error {
	_, err := r.request(ctx, action)
	return err
}

// RequestSave asks the loop to save a report and returns that report. Each
// caller gets the report of its own request.
func (r *Remote) RequestSave(ctx context.Context) (model.ReportRecord, error) {
	report, err := r.request(ctx, Save)
	if err != nil {
		return model.ReportRecord{}, err
	}
	if report == nil {
		return model.ReportRecord{}, errors.New("save finished without a report")
	}
	return *report, nil
}

func (r *Remote) request(ctx context.Context, action Action) (*model.ReportRecord, error) {
	cmd := Command{Action: action, reply: make(chan outcome, 1)}

	select {
	case r.commands <- cmd:
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case out := <-cmd.reply:
		return out.report, out.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// poll returns a queued command without blocking.
func (r *Remote) poll() (Command, bool) {
	select {
	case cmd := <-r.commands:
		return cmd, true
	default:
		return Command{}, false
	}
}

// Drain answers every queued command with err.
func (r *Remote) Drain(err error) {
	for {
		cmd, ok := r.poll()
		if !ok {
			return
		}
		cmd.Done(err)
	}
}

// Controller shows rendered frames and waits for the next operator input.
// Await also paces the loop.
type Controller interface {
	Show(frame gocv.Mat)
	Await(ctx context.Context) Command
	Pause(d time.Duration)
	Close() error
}

// WindowController displays frames in an OpenCV window and reads the
// keyboard: q quits, s saves. Must be used from the goroutine that created it.
type WindowController struct {
	window *gocv.Window
	remote *Remote
}

func NewWindowController(title string, remote *Remote) *WindowController {
	return &WindowController{
		window: gocv.NewWindow(title),
		remote: remote,
	}
}

func (w *WindowController) Show(frame gocv.Mat) {
	w.window.IMShow(frame)
}

func (w *WindowController) Await(ctx context.Context) Command {
	if ctx.Err() != nil {
		return Command{Action: Quit}
	}
	if action := KeyAction(w.window.WaitKey(1)); action != None {
		return Command{Action: action}
	}
	if cmd, ok := w.remote.poll(); ok {
		return cmd
	}
	return Command{Action: None}
}

// Pause keeps the current frame on screen for d.
func (w *WindowController) Pause(d time.Duration) {
	w.window.WaitKey(int(d.Milliseconds()))
}

func (w *WindowController) Close() error {
	return w.window.Close()
}

// KeyAction maps a WaitKey result to an action.
func KeyAction(key int) Action {
	switch key & 0xFF {
	case 'q':
		return Quit
	case 's':
		return Save
	default:
		return None
	}
}

// HeadlessController runs without a display. Frames are paced by a fixed
// interval and actions arrive only through the remote queue.
type HeadlessController struct {
	interval time.Duration
	remote   *Remote
}

func NewHeadlessController(interval time.Duration, remote *Remote) *HeadlessController {
	return &HeadlessController{interval: interval, remote: remote}
}

func (h *HeadlessController) Show(gocv.Mat) {}

func (h *HeadlessController) Await(ctx context.Context) Command {
	timer := time.NewTimer(h.interval)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return Command{Action: Quit}
	case cmd := <-h.remote.commands:
		return cmd
	case <-timer.C:
		return Command{Action: None}
	}
}

func (h *HeadlessController) Pause(time.Duration) {}

func (h *HeadlessController) Close() error {
	return nil
}
