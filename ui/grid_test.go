package ui

import (
	"strings"
	"testing"

	"chanplan/channel"
)

func TestGridPositionRoundTrip(t *testing.T) {
	for _, columns := range []int{1, 2, 4, 8} {
		for ch := 1; ch <= channel.TotalChannels; ch++ {
			row, col := gridPosition(ch, columns)
			if got := channelAt(row, col, columns); got != ch {
				t.Fatalf("columns=%d ch=%d: position (%d,%d) maps back to %d", columns, ch, row, col, got)
			}
		}
	}
}

func TestChannelAtOutsideGrid(t *testing.T) {
	if got := channelAt(-1, 0, 4); got != 0 {
		t.Fatalf("expected 0 above grid, got %d", got)
	}
	if got := channelAt(0, 4, 4); got != 0 {
		t.Fatalf("expected 0 right of grid, got %d", got)
	}
	if got := channelAt(8, 0, 4); got != 0 {
		t.Fatalf("expected 0 below grid, got %d", got)
	}
}

func TestStepClampsToGrid(t *testing.T) {
	cases := []struct {
		ch, dRow, dCol, want int
	}{
		{1, -1, 0, 1},
		{1, 0, -1, 1},
		{1, 1, 0, 5},
		{1, 0, 1, 2},
		{4, 0, 1, 4},
		{28, 1, 0, 32},
		{32, 1, 0, 32},
		{29, 1, 0, 29},
	}
	for _, tc := range cases {
		if got := step(tc.ch, tc.dRow, tc.dCol, 4); got != tc.want {
			t.Fatalf("step(%d,%d,%d) = %d, want %d", tc.ch, tc.dRow, tc.dCol, got, tc.want)
		}
	}
}

func TestCellTextEscapesTitle(t *testing.T) {
	d := channel.Display{Channel: 3, Title: "[red]X", Bandwidth: "N", Scan: channel.ScanGlyph, Offset: "-", Subtone: "CTC"}
	text := cellText(d, true)
	lines := strings.Split(text, "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %q", text)
	}
	if !strings.HasPrefix(lines[0], "03*") {
		t.Fatalf("expected commented channel header, got %q", lines[0])
	}
	if !strings.Contains(lines[0], "N "+channel.ScanGlyph) {
		t.Fatalf("expected flags in header, got %q", lines[0])
	}
	if lines[1] != "[red[]X" {
		t.Fatalf("expected escaped title, got %q", lines[1])
	}
	if lines[2] != "- CTC" {
		t.Fatalf("unexpected detail line %q", lines[2])
	}
}

func TestCellTextVFODimmed(t *testing.T) {
	text := cellText(channel.Display{Channel: channel.VFO1, Title: "VFO1", VFO: true}, false)
	if !strings.Contains(text, "[gray]VFO1[-]") {
		t.Fatalf("expected dimmed VFO title, got %q", text)
	}
	if !strings.HasPrefix(text, "31 ") {
		t.Fatalf("expected uncommented header, got %q", text)
	}
}

func TestDragMarkAndDrop(t *testing.T) {
	var d dragState
	if d.active() {
		t.Fatalf("new drag should be idle")
	}
	if d.mark(channel.VFO1) {
		t.Fatalf("VFO must not be picked up")
	}
	if !d.mark(5) || !d.active() {
		t.Fatalf("expected drag from channel 5")
	}
	src, dst, ok := d.drop(2)
	if !ok || src != 4 || dst != 1 {
		t.Fatalf("unexpected drop result %d -> %d ok=%v", src, dst, ok)
	}
	if d.active() {
		t.Fatalf("drop should end the drag")
	}
}

func TestDragDropRejected(t *testing.T) {
	var d dragState
	if _, _, ok := d.drop(3); ok {
		t.Fatalf("drop without a mark must fail")
	}
	d.mark(3)
	if _, _, ok := d.drop(3); ok {
		t.Fatalf("drop onto the source must fail")
	}
	d.mark(3)
	if _, _, ok := d.drop(channel.VFO2); ok {
		t.Fatalf("drop onto a VFO must fail")
	}
	d.mark(3)
	d.cancel()
	if d.active() {
		t.Fatalf("cancel should end the drag")
	}
}
