// Command subtonelookup classifies subtone values typed at a prompt, or lists
// the TX/RX subtones of every channel in a radio CSV file.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"chanplan/channel"
	"chanplan/csvcodec"
	"chanplan/subtone"
)

func main() {
	csvPath := flag.String("file", "", "radio CSV file to summarize instead of reading stdin")
	flag.Parse()

	if *csvPath != "" {
		if err := summarize(*csvPath); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	fmt.Printf("%d CTCSS tones, %d DCS codes\n", len(subtone.CTCSSTones), len(subtone.DCSCodes))
	fmt.Println("enter stored values, Hz tones or Dnnn codes (Ctrl+C to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}
		stored, err := subtone.ParseDisplay(input)
		if err != nil {
			fmt.Println(err)
			continue
		}
		tone := subtone.Classify(stored)
		fmt.Printf("%s -> stored=%d, kind=%s, display=%s, family=%q\n",
			input, stored, tone.Kind, tone, subtone.Family(stored))
	}

	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "input error: %v\n", err)
	}
}

func summarize(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	table := channel.FromDocument(csvcodec.Parse(string(data)))
	txHeader := channel.HeaderFor(channel.KeyTxSub)
	rxHeader := channel.HeaderFor(channel.KeyRxSub)
	for slot := 0; slot < channel.MaxChannels; slot++ {
		if _, ok := table.Get(slot); !ok {
			continue
		}
		tx := table.Field(slot, txHeader)
		rx := table.Field(slot, rxHeader)
		fmt.Printf("%02d %-8s tx=%-6s rx=%-6s\n", slot+1, table.Field(slot, channel.HeaderFor(channel.KeyTitle)),
			subtone.ClassifyString(tx), subtone.ClassifyString(rx))
	}
	return nil
}
