// Package ui is the terminal channel grid: 32 cells (30 channels plus two
// VFOs), an edit form, group selection and a transient status line.
package ui

import (
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"chanplan/channel"
	"chanplan/groups"
)

const (
	accentTag   = "[#ff69b4]"
	accentReset = "[-]"

	pageGrid    = "grid"
	pageEdit    = "edit"
	pageModal   = "modal"
	pageHistory = "history"

	defaultToastTimeout = 5 * time.Second
	historyEntries      = 500
)

var (
	uiBorderColor   = tcell.ColorGray
	uiTitleColor    = tcell.ColorHotPink
	uiSelectColor   = tcell.ColorHotPink
	uiMarkColor     = tcell.ColorYellow
	uiVFOBorder     = tcell.ColorDarkSlateGray
	uiEmptyTitleTag = "[gray]"
)

// Options configures the editor.
type Options struct {
	EnableMouse  bool
	ToastTimeout time.Duration
	// Columns is the number of cells per grid row.
	Columns int
	// CopyText receives exported CSV (clipboard). Nil disables export.
	CopyText func(string) error
}

// Editor owns the tview application and drives a groups.Session.
type Editor struct {
	session *groups.Session
	opts    Options

	app         *tview.Application
	pages       *tview.Pages
	cells       []*tview.TextView
	groupSelect *tview.DropDown
	nameField   *tview.InputField
	status      *tview.TextView

	history *historyBuffer
	toast   toastState

	selected  int // 1-based channel
	drag      dragState
	mouseFrom int

	syncingGroups bool
}

// New builds the editor widgets. Nothing is drawn until Run.
func New(session *groups.Session, opts Options) *Editor {
	if opts.ToastTimeout <= 0 {
		opts.ToastTimeout = defaultToastTimeout
	}
	if opts.Columns <= 0 {
		opts.Columns = 4
	}
	e := &Editor{
		session:  session,
		opts:     opts,
		app:      tview.NewApplication().EnableMouse(opts.EnableMouse),
		pages:    tview.NewPages(),
		history:  newHistoryBuffer(historyEntries),
		selected: 1,
	}
	e.buildLayout()
	e.installKeybindings()
	if opts.EnableMouse {
		e.app.SetMouseCapture(e.handleMouse)
	}
	e.refresh()
	return e
}

// Run blocks until the user quits.
func (e *Editor) Run() error {
	if name := e.session.Active(); name != "" {
		e.notify(fmt.Sprintf("Loaded %q: %d channel(s).", name, e.session.Table().Populated()))
	}
	return e.app.Run()
}

// Stop ends Run.
func (e *Editor) Stop() {
	e.app.Stop()
}

// LogWriter returns a writer that records log lines in the status history
// instead of writing over the grid.
func (e *Editor) LogWriter() io.Writer {
	return &historyWriter{dst: e.history}
}

func (e *Editor) buildLayout() {
	grid := tview.NewGrid()
	rows := (channel.TotalChannels + e.opts.Columns - 1) / e.opts.Columns
	rowSizes := make([]int, rows)
	for i := range rowSizes {
		rowSizes[i] = 5
	}
	colSizes := make([]int, e.opts.Columns)
	grid.SetRows(rowSizes...).SetColumns(colSizes...)

	e.cells = make([]*tview.TextView, channel.TotalChannels)
	for i := range e.cells {
		tv := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
		tv.SetBorder(true)
		tv.SetBorderColor(uiBorderColor)
		e.cells[i] = tv
		row, col := gridPosition(i+1, e.opts.Columns)
		grid.AddItem(tv, row, col, 1, 1, 0, 0, false)
	}

	e.groupSelect = tview.NewDropDown().SetLabel("Group: ")
	e.groupSelect.SetFieldWidth(20)
	e.groupSelect.SetDoneFunc(func(tcell.Key) {
		e.app.SetFocus(e.pages)
	})
	e.nameField = tview.NewInputField().SetLabel(" Name: ").SetFieldWidth(20)
	e.nameField.SetDoneFunc(func(key tcell.Key) {
		if key == tcell.KeyEnter {
			e.rename(e.nameField.GetText())
		} else {
			e.nameField.SetText(e.session.Active())
		}
		e.app.SetFocus(e.pages)
	})
	header := tview.NewFlex().
		AddItem(e.groupSelect, 0, 1, false).
		AddItem(e.nameField, 0, 1, false)

	e.status = tview.NewTextView().SetDynamicColors(true)
	footer := tview.NewTextView().SetDynamicColors(true).SetText(
		accentText("Enter") + "Edit  " + accentText("m") + "Mark  " + accentText("p") + "Drop  " +
			accentText("d") + "Clear  " + accentText("c") + "Comment  " + accentText("g") + "Group  " +
			accentText("r") + "Rename  " + accentText("x") + "Export  " + accentText("X") + "Delete  " +
			accentText("L") + "Log  " + accentText("q") + "Quit")

	e.pages.AddPage(pageGrid, grid, true, true)
	root := tview.NewFlex().SetDirection(tview.FlexRow).
		AddItem(header, 1, 0, false).
		AddItem(e.pages, 0, 1, true).
		AddItem(e.status, 1, 0, false).
		AddItem(footer, 1, 0, false)
	e.app.SetRoot(root, true)
}

func (e *Editor) installKeybindings() {
	e.app.SetInputCapture(func(event *tcell.EventKey) *tcell.EventKey {
		if front, _ := e.pages.GetFrontPage(); front != pageGrid || e.app.GetFocus() == e.nameField || e.app.GetFocus() == e.groupSelect {
			if event.Key() == tcell.KeyCtrlC {
				e.Stop()
				return nil
			}
			return event
		}

		switch event.Key() {
		case tcell.KeyUp:
			e.moveSelection(-1, 0)
			return nil
		case tcell.KeyDown:
			e.moveSelection(1, 0)
			return nil
		case tcell.KeyLeft:
			e.moveSelection(0, -1)
			return nil
		case tcell.KeyRight:
			e.moveSelection(0, 1)
			return nil
		case tcell.KeyEnter:
			if e.drag.active() {
				e.dropOn(e.selected)
			} else {
				e.openEditForm(e.selected)
			}
			return nil
		case tcell.KeyEsc:
			if e.drag.active() {
				e.drag.cancel()
				e.notify("Move cancelled.")
				e.refresh()
			}
			return nil
		case tcell.KeyCtrlC:
			e.Stop()
			return nil
		}

		switch event.Rune() {
		case 'q', 'Q':
			e.Stop()
		case 'k':
			e.moveSelection(-1, 0)
		case 'j':
			e.moveSelection(1, 0)
		case 'h':
			e.moveSelection(0, -1)
		case 'l':
			e.moveSelection(0, 1)
		case 'm':
			e.markSelected()
		case 'p':
			e.dropOn(e.selected)
		case 'd':
			e.clearSelected()
		case 'c':
			e.openCommentForm(e.selected)
		case 'g':
			e.app.SetFocus(e.groupSelect)
		case 'r':
			e.app.SetFocus(e.nameField)
		case 'x':
			e.exportClipboard()
		case 'X':
			e.confirmDelete()
		case 'L':
			e.showHistory()
		default:
			return event
		}
		return nil
	})
}

// handleMouse turns a left-button press on one cell and release on another
// into a reorder; a plain click selects.
func (e *Editor) handleMouse(event *tcell.EventMouse, action tview.MouseAction) (*tcell.EventMouse, tview.MouseAction) {
	if front, _ := e.pages.GetFrontPage(); front != pageGrid {
		return event, action
	}
	x, y := event.Position()
	ch := e.cellUnder(x, y)
	switch action {
	case tview.MouseLeftDown:
		e.mouseFrom = ch
		if ch != 0 {
			e.selected = ch
			e.refresh()
		}
	case tview.MouseLeftUp:
		from := e.mouseFrom
		e.mouseFrom = 0
		if from != 0 && ch != 0 && from != ch {
			e.drag.mark(from)
			e.dropOn(ch)
		}
	case tview.MouseLeftDoubleClick:
		if ch != 0 {
			e.openEditForm(ch)
			return nil, action
		}
	}
	return event, action
}

func (e *Editor) cellUnder(x, y int) int {
	for i, cell := range e.cells {
		if cell.InRect(x, y) {
			return i + 1
		}
	}
	return 0
}

func (e *Editor) moveSelection(dRow, dCol int) {
	e.selected = step(e.selected, dRow, dCol, e.opts.Columns)
	e.refresh()
}

// refresh redraws every cell and the group selector from session state.
func (e *Editor) refresh() {
	table := e.session.Table()
	for i, d := range table.Cells() {
		tv := e.cells[i]
		commented := !d.VFO && e.session.Comment(i) != ""
		text := cellText(d, commented)
		if d.Empty {
			text = uiEmptyTitleTag + text + "[-]"
		}
		tv.SetText(text)
		switch {
		case e.drag.source == d.Channel:
			tv.SetBorderColor(uiMarkColor)
		case e.selected == d.Channel:
			tv.SetBorderColor(uiSelectColor)
		case d.VFO:
			tv.SetBorderColor(uiVFOBorder)
		default:
			tv.SetBorderColor(uiBorderColor)
		}
	}
	e.refreshGroups()
	e.status.SetText(e.toast.text(time.Now()))
}

func (e *Editor) refreshGroups() {
	names, err := e.session.Names()
	if err != nil {
		log.Printf("UI: list groups: %v", err)
		return
	}
	e.syncingGroups = true
	defer func() { e.syncingGroups = false }()
	e.groupSelect.SetOptions(names, func(text string, _ int) {
		if e.syncingGroups || text == e.session.Active() {
			return
		}
		e.loadGroup(text)
		e.app.SetFocus(e.pages)
	})
	for i, name := range names {
		if name == e.session.Active() {
			e.groupSelect.SetCurrentOption(i)
		}
	}
	if e.app.GetFocus() != e.nameField {
		e.nameField.SetText(e.session.Active())
	}
}

// notify shows message on the status line and records it in the history.
// The message disappears after ToastTimeout unless replaced first.
func (e *Editor) notify(message string) {
	e.show(EntryStatus, message)
}

func (e *Editor) show(kind EntryKind, message string) {
	e.history.Append(Entry{Timestamp: time.Now(), Kind: kind, Message: message})
	gen := e.toast.show(message, time.Now(), e.opts.ToastTimeout)
	e.status.SetText(message)
	time.AfterFunc(e.opts.ToastTimeout, func() {
		e.app.QueueUpdateDraw(func() {
			if e.toast.dismiss(gen) {
				e.status.SetText("")
			}
		})
	})
}

func (e *Editor) reportError(action string, err error) {
	msg := fmt.Sprintf("%s failed: %v", action, err)
	if errors.Is(err, groups.ErrStorageFull) {
		msg = "Storage is full; changes are kept in memory but not saved."
	}
	log.Printf("UI: %s: %v", action, err)
	e.show(EntryError, msg)
}

func (e *Editor) markSelected() {
	if _, ok := e.session.Table().Get(e.selected - 1); !ok || !e.drag.mark(e.selected) {
		e.notify("Select a populated channel to move.")
		return
	}
	e.notify(fmt.Sprintf("Moving channel %d: choose a target and press p or Enter.", e.selected))
	e.refresh()
}

func (e *Editor) dropOn(target int) {
	src, dst, ok := e.drag.drop(target)
	if !ok {
		e.refresh()
		return
	}
	moved, err := e.session.Move(src, dst)
	if err != nil {
		e.reportError("Save", err)
	} else if moved {
		e.notify(fmt.Sprintf("Moved channel %d to %d.", src+1, dst+1))
		e.selected = dst + 1
	}
	e.refresh()
}

func (e *Editor) clearSelected() {
	slot := e.selected - 1
	if channel.IsVFO(e.selected) {
		return
	}
	if _, ok := e.session.Table().Get(slot); !ok {
		return
	}
	if err := e.session.Clear(slot); err != nil {
		e.reportError("Save", err)
	} else {
		e.notify(fmt.Sprintf("Channel %d cleared.", e.selected))
	}
	e.refresh()
}

// Purpose: Show the edit form for a channel.
// Key aspects: Save validates through the session; failures list every error
// in a modal and keep the form open. VFO cells are not editable.
// Upstream: Enter key, double click.
// Downstream: newEditForm, readForm, groups.Session.Commit.
func (e *Editor) openEditForm(ch int) {
	if channel.IsVFO(ch) {
		e.notify(fmt.Sprintf("VFO%d is not editable.", ch-channel.MaxChannels))
		return
	}
	slot := ch - 1
	form := newEditForm(e.session.Table().Candidate(slot))
	closeForm := func() {
		e.pages.RemovePage(pageEdit)
		e.app.SetFocus(e.pages)
		e.refresh()
	}
	form.AddButton("Save", func() {
		res, err := e.session.Commit(slot, readForm(form))
		if err != nil && !errors.Is(err, groups.ErrStorageFull) {
			e.reportError("Edit", err)
			return
		}
		if !res.Valid {
			e.showErrors(res.Errors, form)
			return
		}
		closeForm()
		if err != nil {
			e.reportError("Save", err)
			return
		}
		e.notify(fmt.Sprintf("Channel %d saved.", ch))
	})
	form.AddButton("Cancel", closeForm)
	form.SetCancelFunc(closeForm)
	form.SetBorder(true).SetTitle(fmt.Sprintf(" Channel %d ", ch)).SetTitleColor(uiTitleColor)
	form.SetBorderColor(uiBorderColor)
	e.pages.AddPage(pageEdit, centered(form, 60, 24), true, true)
	e.app.SetFocus(form)
}

func (e *Editor) openCommentForm(ch int) {
	if channel.IsVFO(ch) {
		return
	}
	slot := ch - 1
	form := tview.NewForm()
	form.AddInputField("Comment", e.session.Comment(slot), 40, nil, nil)
	closeForm := func() {
		e.pages.RemovePage(pageEdit)
		e.app.SetFocus(e.pages)
		e.refresh()
	}
	form.AddButton("Save", func() {
		text := form.GetFormItem(0).(*tview.InputField).GetText()
		if err := e.session.SetComment(slot, text); err != nil {
			e.reportError("Save", err)
		}
		closeForm()
	})
	form.AddButton("Cancel", closeForm)
	form.SetCancelFunc(closeForm)
	form.SetBorder(true).SetTitle(fmt.Sprintf(" Comment for channel %d ", ch)).SetTitleColor(uiTitleColor)
	e.pages.AddPage(pageEdit, centered(form, 60, 7), true, true)
	e.app.SetFocus(form)
}

func (e *Editor) showErrors(errs []string, back tview.Primitive) {
	modal := tview.NewModal().
		SetText("Not saved:\n\n" + strings.Join(errs, "\n")).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(int, string) {
			e.pages.RemovePage(pageModal)
			e.app.SetFocus(back)
		})
	e.pages.AddPage(pageModal, modal, true, true)
	e.app.SetFocus(modal)
}

func (e *Editor) confirmDelete() {
	name := e.session.Active()
	if name == "" {
		e.notify("No active group to delete.")
		return
	}
	modal := tview.NewModal().
		SetText(fmt.Sprintf("Delete %q? This cannot be undone.", name)).
		AddButtons([]string{"Delete", "Cancel"}).
		SetDoneFunc(func(index int, _ string) {
			e.pages.RemovePage(pageModal)
			e.app.SetFocus(e.pages)
			if index != 0 {
				return
			}
			if err := e.session.DeleteGroup(name); err != nil {
				e.reportError("Delete", err)
				return
			}
			e.selected = 1
			e.notify(fmt.Sprintf("Deleted %q.", name))
			e.refresh()
		})
	e.pages.AddPage(pageModal, modal, true, true)
	e.app.SetFocus(modal)
}

func (e *Editor) loadGroup(name string) {
	loaded, err := e.session.LoadGroup(name)
	if err != nil {
		e.reportError("Load", err)
		return
	}
	if loaded {
		e.selected = 1
		e.drag.cancel()
		e.notify(fmt.Sprintf("Loaded %q: %d channel(s).", name, e.session.Table().Populated()))
	}
	e.refresh()
}

func (e *Editor) rename(name string) {
	old := e.session.Active()
	if err := e.session.RenameActive(name); err != nil {
		if errors.Is(err, groups.ErrGroupExists) {
			e.notify(fmt.Sprintf("A group named %q already exists.", strings.TrimSpace(name)))
		} else {
			e.reportError("Rename", err)
		}
		e.refresh()
		return
	}
	if e.session.Active() != old {
		e.notify(fmt.Sprintf("Group is now %q.", e.session.Active()))
	}
	e.refresh()
}

func (e *Editor) exportClipboard() {
	if e.opts.CopyText == nil || len(e.session.Table().Headers()) == 0 {
		e.notify("Nothing to export.")
		return
	}
	text := e.session.Export()
	if err := e.opts.CopyText(text); err != nil {
		e.reportError("Export", err)
		return
	}
	e.notify(fmt.Sprintf("Copied %s (%s) to the clipboard.", e.session.ExportFilename(), humanize.Bytes(uint64(len(text)))))
}

func (e *Editor) showHistory() {
	view := tview.NewTextView().SetDynamicColors(true).SetWrap(false)
	var b strings.Builder
	for _, entry := range e.history.Snapshot() {
		fmt.Fprintf(&b, "%s %-4s %s\n", entry.Timestamp.Format("15:04:05"), entry.Kind.Label(), tview.Escape(entry.Message))
	}
	view.SetText(b.String()).ScrollToEnd()
	view.SetBorder(true).SetTitle(" Log (Esc to close) ").SetTitleColor(uiTitleColor)
	view.SetDoneFunc(func(tcell.Key) {
		e.pages.RemovePage(pageHistory)
		e.app.SetFocus(e.pages)
	})
	e.pages.AddPage(pageHistory, view, true, true)
	e.app.SetFocus(view)
}

func centered(p tview.Primitive, width, height int) tview.Primitive {
	return tview.NewFlex().
		AddItem(nil, 0, 1, false).
		AddItem(tview.NewFlex().SetDirection(tview.FlexRow).
			AddItem(nil, 0, 1, false).
			AddItem(p, height, 1, true).
			AddItem(nil, 0, 1, false),
			width, 1, true).
		AddItem(nil, 0, 1, false)
}

func accentText(text string) string {
	return accentTag + text + accentReset + " "
}
