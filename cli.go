package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"chanplan/channel"
	"chanplan/commands"
	"chanplan/csvcodec"
	"chanplan/groups"
	"chanplan/kvstore"
	"chanplan/ui"
)

func newUICommand() *cobra.Command {
	return &cobra.Command{
		Use:   "ui",
		Short: "Open the channel grid editor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runUI(cmd)
		},
	}
}

func runUI(cmd *cobra.Command) error {
	a, err := openApp(os.Stderr, true)
	if err != nil {
		return err
	}
	defer a.Close()
	ed := ui.New(a.session, ui.Options{
		EnableMouse:  a.cfg.UI.EnableMouse,
		ToastTimeout: time.Duration(a.cfg.UI.ToastSeconds) * time.Second,
		Columns:      a.cfg.UI.Columns,
		CopyText:     clipboard.WriteAll,
	})
	a.logs.SetConsoleSink(ed.LogWriter(), false)
	defer a.logs.SetConsoleSink(nil, false)
	return ed.Run()
}

func newImportCommand() *cobra.Command {
	var name string
	var fromClipboard bool
	cmd := &cobra.Command{
		Use:   "import [file.csv]",
		Short: "Import a radio CSV file as a group and make it active",
		Long: `Import a CSV exported from the radio's programming software. The group
is named after the file (without .csv) unless --name is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var text string
			switch {
			case fromClipboard:
				clip, err := clipboard.ReadAll()
				if err != nil {
					return fmt.Errorf("read clipboard: %w", err)
				}
				text = clip
			case len(args) == 1:
				data, err := os.ReadFile(args[0])
				if err != nil {
					return fmt.Errorf("read %s: %w", args[0], err)
				}
				text = string(data)
				if name == "" {
					name = groups.NameFromFile(args[0])
				}
			default:
				return errors.New("import needs a file or --clipboard")
			}
			if strings.TrimSpace(name) == "" {
				return errors.New("group name is empty; use --name")
			}

			a, err := openApp(os.Stderr, false)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.session.Import(name, text); err != nil {
				return fmt.Errorf("import %q: %s", name, describeStorageError(err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Imported %q: %d channels, %s\n",
				a.session.Active(), a.session.Table().Populated(), humanize.Bytes(uint64(len(text))))
			return nil
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "group name (default: file name without .csv)")
	cmd.Flags().BoolVar(&fromClipboard, "clipboard", false, "read CSV text from the clipboard")
	return cmd
}

func newExportCommand() *cobra.Command {
	var file string
	var toClipboard bool
	cmd := &cobra.Command{
		Use:   "export [group]",
		Short: "Write a group as radio CSV (default: the active group)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(os.Stderr, false)
			if err != nil {
				return err
			}
			defer a.Close()

			text, err := exportText(a.session, args)
			if err != nil {
				return err
			}
			switch {
			case toClipboard:
				if err := clipboard.WriteAll(text); err != nil {
					return fmt.Errorf("write clipboard: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Copied %s to the clipboard\n", humanize.Bytes(uint64(len(text))))
			case file != "":
				if err := os.WriteFile(file, []byte(text), 0o644); err != nil {
					return fmt.Errorf("write %s: %w", file, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s)\n", file, humanize.Bytes(uint64(len(text))))
			default:
				fmt.Fprintln(cmd.OutOrStdout(), text)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&file, "file", "", "write to this file instead of stdout")
	cmd.Flags().BoolVar(&toClipboard, "clipboard", false, "copy to the clipboard")
	return cmd
}

func exportText(session *groups.Session, args []string) (string, error) {
	if len(args) == 0 {
		if session.Active() == "" {
			return "", groups.ErrNoActiveGroup
		}
		return session.Export(), nil
	}
	text, ok, err := session.ExportGroup(args[0])
	if err != nil {
		return "", err
	}
	if !ok {
		return "", missingGroup(session, args[0])
	}
	return text, nil
}

func newGroupsCommand() *cobra.Command {
	return &cobra.Command{
		Use:     "groups",
		Aliases: []string{"ls"},
		Short:   "List stored groups",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(os.Stderr, false)
			if err != nil {
				return err
			}
			defer a.Close()
			return printGroups(cmd.OutOrStdout(), a)
		},
	}
}

func printGroups(out io.Writer, a *app) error {
	names, err := a.session.Names()
	if err != nil {
		return err
	}
	for _, name := range names {
		marker := " "
		if name == a.session.Active() {
			marker = "*"
		}
		text, _, err := a.session.ExportGroup(name)
		if err != nil {
			return err
		}
		populated := channel.FromDocument(csvcodec.Parse(text)).Populated()
		fmt.Fprintf(out, "%s %-20s %2d channels  %s\n", marker, name, populated, humanize.Bytes(uint64(len(text))))
	}
	stats, err := kvstore.Measure(a.store, "")
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "%s groups, %s keys, %s stored\n",
		humanize.Comma(int64(len(names))), humanize.Comma(int64(stats.Keys)), humanize.Bytes(uint64(stats.Bytes)))
	return nil
}

func newRenameCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <old> <new>",
		Short: "Rename a stored group",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(os.Stderr, false)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := renameGroup(a.session, args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Renamed %q to %q\n", args[0], strings.TrimSpace(args[1]))
			return nil
		},
	}
}

// renameGroup renames a stored group. If another group was active it is
// loaded again afterwards, so the active group does not change; with no
// active group the renamed one stays active.
func renameGroup(session *groups.Session, oldName, newName string) error {
	previous := session.Active()
	if previous != oldName {
		loaded, err := session.LoadGroup(oldName)
		if err != nil {
			return err
		}
		if !loaded {
			return missingGroup(session, oldName)
		}
	}
	renameErr := session.RenameActive(newName)
	if previous != "" && previous != oldName {
		if _, err := session.LoadGroup(previous); err != nil && renameErr == nil {
			return err
		}
	}
	return renameErr
}

func newDeleteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <group>",
		Short: "Delete a stored group and its comments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(os.Stderr, false)
			if err != nil {
				return err
			}
			defer a.Close()
			ok, err := a.session.Exists(args[0])
			if err != nil {
				return err
			}
			if !ok {
				return missingGroup(a.session, args[0])
			}
			if err := a.session.DeleteGroup(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %q\n", args[0])
			if active := a.session.Active(); active != "" {
				fmt.Fprintf(cmd.OutOrStdout(), "Active group: %q\n", active)
			}
			return nil
		},
	}
}

func newValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <file.csv>",
		Short: "Check every channel of a CSV file against the radio's rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			bad := validateTable(cmd.OutOrStdout(), channel.FromDocument(csvcodec.Parse(string(data))))
			if bad > 0 {
				return fmt.Errorf("%d channel(s) failed validation", bad)
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All channels valid")
			return nil
		},
	}
}

// validateTable prints the errors of each populated channel and returns how
// many channels failed.
func validateTable(out io.Writer, table *channel.Table) int {
	bad := 0
	for slot := 0; slot < channel.MaxChannels; slot++ {
		if _, ok := table.Get(slot); !ok {
			continue
		}
		res := channel.Validate(table.Candidate(slot))
		if res.Valid {
			continue
		}
		bad++
		fmt.Fprintf(out, "Channel %d:\n", slot+1)
		for _, msg := range res.Errors {
			fmt.Fprintf(out, "  - %s\n", msg)
		}
	}
	return bad
}

func newShellCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Edit the active group with line commands",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(os.Stderr, false)
			if err != nil {
				return err
			}
			defer a.Close()
			return runShell(cmd.InOrStdin(), cmd.OutOrStdout(), commands.NewProcessor(a.session), a.session.Active())
		},
	}
}

func newBackupCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backup <dest>",
		Short: "Checkpoint the Pebble store into dest and verify it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(os.Stderr, false)
			if err != nil {
				return err
			}
			defer a.Close()
			pdb, ok := a.store.(*kvstore.Pebble)
			if !ok {
				return fmt.Errorf("backup needs the pebble backend, configured backend is %s", a.cfg.Storage.Backend)
			}
			if err := pdb.Checkpoint(args[0]); err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
			defer cancel()
			stats, err := kvstore.VerifyCheckpoint(ctx, args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Checkpoint %s verified: %s keys, %s in %s\n",
				args[0], humanize.Comma(stats.Keys), humanize.Bytes(uint64(stats.Bytes)), stats.Duration.Round(time.Millisecond))
			return nil
		},
	}
}

func missingGroup(session *groups.Session, name string) error {
	if s := session.Suggest(name); s != "" {
		return fmt.Errorf("no group named %q (did you mean %q?)", name, s)
	}
	return fmt.Errorf("no group named %q", name)
}
