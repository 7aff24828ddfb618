package main

import (
	"bufio"
	"fmt"
	"io"

	"chanplan/commands"
)

// runShell reads commands line by line until EOF or BYE.
func runShell(in io.Reader, out io.Writer, proc *commands.Processor, active string) error {
	if active == "" {
		fmt.Fprintln(out, "no active group; LOAD one or SAVE <name> after editing")
	} else {
		fmt.Fprintf(out, "active group %q\n", active)
	}
	fmt.Fprintln(out, "enter commands (HELP for a list, BYE to quit)")

	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			break
		}
		resp := proc.ProcessCommand(scanner.Text())
		if resp == "BYE" {
			fmt.Fprintln(out, "73")
			return nil
		}
		fmt.Fprint(out, resp)
	}
	fmt.Fprintln(out)
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("input error: %w", err)
	}
	return nil
}
