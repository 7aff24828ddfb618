package ui

import (
	"fmt"
	"strings"

	"github.com/rivo/tview"

	"chanplan/channel"
)

// gridPosition maps a 1-based channel to its row and column.
func gridPosition(ch, columns int) (row, col int) {
	return (ch - 1) / columns, (ch - 1) % columns
}

// channelAt is the inverse of gridPosition; 0 means outside the grid.
func channelAt(row, col, columns int) int {
	if row < 0 || col < 0 || col >= columns {
		return 0
	}
	ch := row*columns + col + 1
	if ch > channel.TotalChannels {
		return 0
	}
	return ch
}

// step moves the selection by dRow/dCol, clamped to the grid.
func step(ch, dRow, dCol, columns int) int {
	row, col := gridPosition(ch, columns)
	row += dRow
	col += dCol
	rows := (channel.TotalChannels + columns - 1) / columns
	if row < 0 {
		row = 0
	}
	if row >= rows {
		row = rows - 1
	}
	if col < 0 {
		col = 0
	}
	if col >= columns {
		col = columns - 1
	}
	if next := channelAt(row, col, columns); next != 0 {
		return next
	}
	return ch
}

// cellText renders one grid cell: number and flags, title, offset and
// subtone family. commented adds a marker after the number.
func cellText(d channel.Display, commented bool) string {
	marker := " "
	if commented {
		marker = "*"
	}
	flags := strings.TrimSpace(d.Bandwidth + " " + d.Scan)
	head := fmt.Sprintf("%02d%s", d.Channel, marker)
	title := tview.Escape(d.Title)
	if d.VFO {
		title = "[gray]" + title + "[-]"
	}
	detail := strings.TrimSpace(d.Offset + " " + d.Subtone)
	return fmt.Sprintf("%s %s\n%s\n%s", head, flags, title, detail)
}

// dragState tracks a keyboard drag: mark a source, then drop on a target.
type dragState struct {
	source int // 1-based channel, 0 when idle
}

func (d *dragState) active() bool { return d.source != 0 }

// mark starts a drag from ch. Only editable channels can be picked up.
func (d *dragState) mark(ch int) bool {
	if ch < 1 || ch > channel.MaxChannels {
		return false
	}
	d.source = ch
	return true
}

// drop ends the drag and returns the slot pair to reorder. ok is false when
// there was no drag, the target is a VFO, or source equals target.
func (d *dragState) drop(target int) (source, dest int, ok bool) {
	src := d.source
	d.source = 0
	if src == 0 || target < 1 || target > channel.MaxChannels || target == src {
		return 0, 0, false
	}
	return src - 1, target - 1, true
}

func (d *dragState) cancel() { d.source = 0 }
