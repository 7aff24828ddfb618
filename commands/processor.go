// Package commands implements the line command processor used by the
// interactive shell. Each command runs against one groups.Session and returns
// the text to print.
package commands

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"

	"chanplan/channel"
	"chanplan/groups"
	"chanplan/subtone"
)

// Processor handles command parsing and replies against the session state.
type Processor struct {
	session *groups.Session
}

// NewProcessor wraps the session every command reads and mutates.
func NewProcessor(session *groups.Session) *Processor {
	return &Processor{session: session}
}

// ProcessCommand parses a single command line and returns the response text.
// A response of "BYE" signals the caller to end the shell.
func (p *Processor) ProcessCommand(cmd string) string {
	cmd = strings.TrimSpace(cmd)
	if cmd == "" {
		return ""
	}

	verb, rest := splitVerb(cmd)
	parts := strings.Fields(rest)

	switch strings.ToUpper(verb) {
	case "HELP", "H", "?":
		return p.handleHelp()
	case "LIST", "L":
		return p.handleList()
	case "SHOW", "SH":
		if len(parts) != 1 {
			return "Usage: SHOW <channel>\n"
		}
		return p.handleShow(parts[0])
	case "SET":
		if len(parts) < 2 {
			return "Usage: SET <channel> key=value [key=value...]\n"
		}
		_, assignments := splitVerb(rest)
		return p.handleSet(parts[0], assignments)
	case "CLEAR":
		if len(parts) != 1 {
			return "Usage: CLEAR <channel>\n"
		}
		return p.handleClear(parts[0])
	case "MOVE", "MV":
		if len(parts) != 2 {
			return "Usage: MOVE <from> <to>\n"
		}
		return p.handleMove(parts[0], parts[1])
	case "COMMENT":
		if len(parts) == 0 {
			return "Usage: COMMENT <channel> [text]\n"
		}
		_, text := splitVerb(rest)
		return p.handleComment(parts[0], text)
	case "GROUPS":
		return p.handleGroups()
	case "LOAD":
		if rest == "" {
			return "Usage: LOAD <group>\n"
		}
		return p.handleLoad(rest)
	case "SAVE":
		return p.handleSave(rest)
	case "RENAME":
		if rest == "" {
			return "Usage: RENAME <new name>\n"
		}
		return p.handleRename(rest)
	case "DELETE", "DEL":
		return p.handleDelete(rest)
	case "EXPORT":
		return p.handleExport()
	case "BYE", "QUIT", "EXIT":
		return "BYE"
	default:
		return fmt.Sprintf("Unknown command: %s\nType HELP for available commands.\n", strings.ToUpper(verb))
	}
}

// handleHelp returns help text for every command.
func (p *Processor) handleHelp() string {
	return fmt.Sprintf(`Available commands:
HELP                           - Show this help
LIST                           - List populated channels
SHOW <ch>                      - Show every field of a channel
SET <ch> key=value [...]       - Edit a channel (validated, then saved)
CLEAR <ch>                     - Empty a channel slot
MOVE <from> <to>               - Move a channel; an occupied target shifts the rest
COMMENT <ch> [text]            - Set or remove a channel comment
GROUPS                         - List stored groups (* = active)
LOAD <group>                   - Switch to a stored group
SAVE [name]                    - Save the active group (optionally under a new name)
RENAME <name>                  - Rename the active group
DELETE [group]                 - Delete a group (default: active)
EXPORT                         - Print the active group as CSV
BYE                            - Leave the shell

Channels are 1-%d; %d and %d are VFOs and cannot be edited.
SET keys: %s
Values may contain spaces (SET 1 title=MY CALL) or be quoted.
Subtones accept stored values (8850, 23), display values (88.5, D023) or Off.
`, channel.MaxChannels, channel.VFO1, channel.VFO2, strings.Join(channel.EditableKeys(), ", "))
}

func (p *Processor) handleList() string {
	cells := p.session.Table().Cells()
	var b strings.Builder
	for _, cell := range cells {
		if cell.Empty || cell.VFO {
			continue
		}
		fmt.Fprintf(&b, "%2d %-8s %1s %1s %1s %-3s", cell.Channel, cell.Title, cell.Bandwidth, cell.Scan, cell.Offset, cell.Subtone)
		if c := p.session.Comment(cell.Channel - 1); c != "" {
			b.WriteString("  # ")
			b.WriteString(c)
		}
		b.WriteString("\n")
	}
	if b.Len() == 0 {
		return "No channels.\n"
	}
	return b.String()
}

func (p *Processor) handleShow(arg string) string {
	ch, err := parseChannel(arg, channel.TotalChannels)
	if err != nil {
		return err.Error() + "\n"
	}
	if channel.IsVFO(ch) {
		return fmt.Sprintf("Channel %d is VFO%d.\n", ch, ch-channel.MaxChannels)
	}
	slot := ch - 1
	if _, ok := p.session.Table().Get(slot); !ok {
		return fmt.Sprintf("Channel %d is empty.\n", ch)
	}
	cand := p.session.Table().Candidate(slot)
	var b strings.Builder
	fmt.Fprintf(&b, "Channel %d\n", ch)
	for _, key := range channel.EditableKeys() {
		col, _ := channel.ColumnFor(key)
		value := cand[key]
		if key == channel.KeyTxSub || key == channel.KeyRxSub {
			value = subtone.ClassifyString(value).String()
		}
		fmt.Fprintf(&b, "  %-22s %s\n", col.Label+":", value)
	}
	if c := p.session.Comment(slot); c != "" {
		fmt.Fprintf(&b, "  %-22s %s\n", "Comment:", c)
	}
	return b.String()
}

func (p *Processor) handleSet(arg, assignments string) string {
	slot, err := editableSlot(arg)
	if err != nil {
		return err.Error() + "\n"
	}
	pairs, err := parseAssignments(assignments)
	if err != nil {
		return err.Error() + "\n"
	}
	cand := p.session.Table().Candidate(slot)
	for _, pair := range pairs {
		key, value := pair[0], pair[1]
		if key == channel.KeyTxSub || key == channel.KeyRxSub {
			if stored, err := subtone.ParseDisplay(value); err == nil {
				value = strconv.Itoa(stored)
			}
		}
		if key == channel.KeyTxPower {
			value = strings.ToUpper(value)
		}
		cand[key] = value
	}
	res, err := p.session.Commit(slot, cand)
	if err != nil && !errors.Is(err, groups.ErrStorageFull) {
		return fmt.Sprintf("Edit failed: %v\n", err)
	}
	if !res.Valid {
		var b strings.Builder
		b.WriteString("Not saved:\n")
		for _, msg := range res.Errors {
			b.WriteString("  - ")
			b.WriteString(msg)
			b.WriteString("\n")
		}
		return b.String()
	}
	if err != nil {
		return storageMessage(err)
	}
	return fmt.Sprintf("Channel %d saved.\n", slot+1)
}

func (p *Processor) handleClear(arg string) string {
	slot, err := editableSlot(arg)
	if err != nil {
		return err.Error() + "\n"
	}
	if _, ok := p.session.Table().Get(slot); !ok {
		return fmt.Sprintf("Channel %d is already empty.\n", slot+1)
	}
	if err := p.session.Clear(slot); err != nil {
		return storageMessage(err)
	}
	return fmt.Sprintf("Channel %d cleared.\n", slot+1)
}

func (p *Processor) handleMove(fromArg, toArg string) string {
	from, err := editableSlot(fromArg)
	if err != nil {
		return err.Error() + "\n"
	}
	to, err := editableSlot(toArg)
	if err != nil {
		return err.Error() + "\n"
	}
	moved, err := p.session.Move(from, to)
	if err != nil {
		return storageMessage(err)
	}
	if !moved {
		return "Nothing to move.\n"
	}
	return fmt.Sprintf("Channel %d moved to %d.\n", from+1, to+1)
}

func (p *Processor) handleComment(arg, text string) string {
	slot, err := editableSlot(arg)
	if err != nil {
		return err.Error() + "\n"
	}
	if err := p.session.SetComment(slot, text); err != nil {
		return storageMessage(err)
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Sprintf("Comment on channel %d removed.\n", slot+1)
	}
	return fmt.Sprintf("Comment on channel %d saved.\n", slot+1)
}

func (p *Processor) handleGroups() string {
	names, err := p.session.Names()
	if err != nil {
		log.Printf("Commands: list groups: %v", err)
		return "Unable to list groups.\n"
	}
	if len(names) == 0 {
		return "No stored groups.\n"
	}
	var b strings.Builder
	for _, name := range names {
		marker := " "
		if name == p.session.Active() {
			marker = "*"
		}
		size := ""
		if csv, ok, err := p.session.ExportGroup(name); err == nil && ok {
			size = humanize.Bytes(uint64(len(csv)))
		}
		fmt.Fprintf(&b, "%s %s (%s)\n", marker, name, size)
	}
	return b.String()
}

func (p *Processor) handleLoad(name string) string {
	loaded, err := p.session.LoadGroup(name)
	if err != nil {
		return storageMessage(err)
	}
	if !loaded {
		if s := p.session.Suggest(name); s != "" {
			return fmt.Sprintf("No group named %q. Did you mean %q?\n", name, s)
		}
		return fmt.Sprintf("No group named %q.\n", name)
	}
	return fmt.Sprintf("Loaded %q (%d channels).\n", name, p.session.Table().Populated())
}

func (p *Processor) handleSave(name string) string {
	if name != "" {
		if err := p.session.RenameActive(name); err != nil {
			return renameMessage(err)
		}
	}
	if p.session.Active() == "" {
		return "No active group. Use SAVE <name>.\n"
	}
	if err := p.session.SaveActive(); err != nil {
		return storageMessage(err)
	}
	return fmt.Sprintf("Saved %q.\n", p.session.Active())
}

func (p *Processor) handleRename(name string) string {
	old := p.session.Active()
	if err := p.session.RenameActive(name); err != nil {
		return renameMessage(err)
	}
	if old == "" {
		return fmt.Sprintf("Active group is now %q.\n", p.session.Active())
	}
	return fmt.Sprintf("Renamed %q to %q.\n", old, p.session.Active())
}

func (p *Processor) handleDelete(name string) string {
	target := name
	if target == "" {
		target = p.session.Active()
	}
	if target == "" {
		return "No active group to delete.\n"
	}
	if err := p.session.DeleteGroup(target); err != nil {
		return storageMessage(err)
	}
	if active := p.session.Active(); active != "" {
		return fmt.Sprintf("Deleted %q. Active group: %q.\n", target, active)
	}
	return fmt.Sprintf("Deleted %q.\n", target)
}

func (p *Processor) handleExport() string {
	if len(p.session.Table().Headers()) == 0 {
		return "Nothing to export.\n"
	}
	return p.session.Export() + "\n"
}

func renameMessage(err error) string {
	if errors.Is(err, groups.ErrGroupExists) {
		return "A group with that name already exists.\n"
	}
	return storageMessage(err)
}

func storageMessage(err error) string {
	if errors.Is(err, groups.ErrStorageFull) {
		return "Storage is full; changes are kept in memory but not saved.\n"
	}
	log.Printf("Commands: storage error: %v", err)
	return fmt.Sprintf("Storage error: %v\n", err)
}

// parseAssignments splits "key=value ..." text into pairs. A word without
// "=" continues the previous value, so titles may contain spaces; a value
// wrapped in double quotes has them removed.
func parseAssignments(text string) ([][2]string, error) {
	allowed := make(map[string]bool)
	for _, key := range channel.EditableKeys() {
		allowed[key] = true
	}
	var pairs [][2]string
	for _, word := range strings.Fields(text) {
		key, value, ok := strings.Cut(word, "=")
		key = strings.ToLower(key)
		if ok && allowed[key] {
			pairs = append(pairs, [2]string{key, value})
			continue
		}
		if ok || len(pairs) == 0 {
			return nil, fmt.Errorf("Unknown field %q. Type HELP for SET keys.", key)
		}
		pairs[len(pairs)-1][1] += " " + word
	}
	for i := range pairs {
		v := pairs[i][1]
		if len(v) >= 2 && v[0] == '"' && v[len(v)-1] == '"' {
			pairs[i][1] = v[1 : len(v)-1]
		}
	}
	return pairs, nil
}

// splitVerb returns the first word and the trimmed remainder of line.
func splitVerb(line string) (string, string) {
	line = strings.TrimSpace(line)
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i+1:])
}

func parseChannel(arg string, max int) (int, error) {
	ch, err := strconv.Atoi(strings.TrimSpace(arg))
	if err != nil || ch < 1 || ch > max {
		return 0, fmt.Errorf("Invalid channel %q. Use 1-%d.", arg, max)
	}
	return ch, nil
}

// editableSlot converts a 1-based channel to a slot index, rejecting VFOs.
func editableSlot(arg string) (int, error) {
	ch, err := parseChannel(arg, channel.TotalChannels)
	if err != nil {
		return 0, err
	}
	if channel.IsVFO(ch) {
		return 0, fmt.Errorf("Channel %d is a VFO and cannot be edited.", ch)
	}
	return ch - 1, nil
}
