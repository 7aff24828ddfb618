package ui

import (
	"strconv"

	"github.com/rivo/tview"

	"chanplan/channel"
	"chanplan/strutil"
	"chanplan/subtone"
)

var (
	powerOptions     = []string{"H", "M", "L"}
	bandwidthOptions = []string{"25000", "12500"}
)

func subtoneLabels() []string {
	opts := subtone.Options()
	out := make([]string, len(opts))
	for i, t := range opts {
		out[i] = t.String()
	}
	return out
}

func optionIndex(options []string, value string) int {
	for i, opt := range options {
		if opt == value {
			return i
		}
	}
	return 0
}

func fieldLabel(key string) string {
	col, ok := channel.ColumnFor(key)
	if !ok {
		return key
	}
	return col.Label
}

// Purpose: Build the channel edit form from a candidate.
// Key aspects: Subtones are chosen from the Off/CTCSS/DCS option list, power
// and bandwidth from their fixed sets, flags as checkboxes.
// Upstream: Editor.openEditForm.
// Downstream: readForm on save.
func newEditForm(c channel.Candidate) *tview.Form {
	form := tview.NewForm()
	form.AddInputField(fieldLabel(channel.KeyTitle), c[channel.KeyTitle], 10, nil, nil)
	form.AddInputField(fieldLabel(channel.KeyTxFreq)+" (Hz)", c[channel.KeyTxFreq], 12, tview.InputFieldInteger, nil)
	form.AddInputField(fieldLabel(channel.KeyRxFreq)+" (Hz)", c[channel.KeyRxFreq], 12, tview.InputFieldInteger, nil)

	tones := subtoneLabels()
	for _, key := range []string{channel.KeyTxSub, channel.KeyRxSub} {
		current := subtone.ClassifyString(c[key]).String()
		form.AddDropDown(fieldLabel(key), tones, optionIndex(tones, current), nil)
	}
	form.AddDropDown(fieldLabel(channel.KeyTxPower), powerOptions, optionIndex(powerOptions, strutil.NormalizeUpper(c[channel.KeyTxPower])), nil)
	form.AddDropDown(fieldLabel(channel.KeyBandwidth), bandwidthOptions, optionIndex(bandwidthOptions, c[channel.KeyBandwidth]), nil)
	for _, key := range channel.FlagKeys {
		form.AddCheckbox(fieldLabel(key), c[key] == "1", nil)
	}
	return form
}

// readForm collects the form back into a candidate for validation.
func readForm(form *tview.Form) channel.Candidate {
	c := channel.Candidate{}
	if f, ok := form.GetFormItemByLabel(fieldLabel(channel.KeyTitle)).(*tview.InputField); ok {
		c[channel.KeyTitle] = f.GetText()
	}
	for _, key := range []string{channel.KeyTxFreq, channel.KeyRxFreq} {
		if f, ok := form.GetFormItemByLabel(fieldLabel(key) + " (Hz)").(*tview.InputField); ok {
			c[key] = f.GetText()
		}
	}
	for _, key := range []string{channel.KeyTxSub, channel.KeyRxSub} {
		if d, ok := form.GetFormItemByLabel(fieldLabel(key)).(*tview.DropDown); ok {
			_, label := d.GetCurrentOption()
			stored, err := subtone.ParseDisplay(label)
			if err != nil {
				c[key] = label
				continue
			}
			c[key] = strconv.Itoa(stored)
		}
	}
	if d, ok := form.GetFormItemByLabel(fieldLabel(channel.KeyTxPower)).(*tview.DropDown); ok {
		_, c[channel.KeyTxPower] = d.GetCurrentOption()
	}
	if d, ok := form.GetFormItemByLabel(fieldLabel(channel.KeyBandwidth)).(*tview.DropDown); ok {
		_, c[channel.KeyBandwidth] = d.GetCurrentOption()
	}
	for _, key := range channel.FlagKeys {
		if cb, ok := form.GetFormItemByLabel(fieldLabel(key)).(*tview.Checkbox); ok {
			c[key] = "0"
			if cb.IsChecked() {
				c[key] = "1"
			}
		}
	}
	return c
}
