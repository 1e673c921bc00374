// parsecheck is a standalone tool for poking at the message parser
// and alert extractor against pasted webhook text from a terminal or
// a file argument, without standing up the rest of the daemon.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"algotrade/internal/alertextractor"
	"algotrade/internal/parser"
)

func main() {
	var src io.Reader = os.Stdin
	if len(os.Args) > 1 {
		f, err := os.Open(os.Args[1])
		if err != nil {
			fmt.Fprintln(os.Stderr, "failed to open input:", err)
			os.Exit(1)
		}
		defer f.Close()
		src = f
	}

	data, err := io.ReadAll(bufio.NewReader(src))
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to read input:", err)
		os.Exit(1)
	}
	msg := string(data)

	blocks := parser.ParseMessage(msg)
	fmt.Printf("parsed %d block(s)\n", len(blocks))
	for i, b := range blocks {
		fmt.Printf("\n[%d] %s(%s)\n", i, b.Exchange, b.Symbol)
		for _, a := range b.Actions {
			fmt.Printf("    %s(", a.Name)
			for j, p := range a.Params {
				if j > 0 {
					fmt.Print(", ")
				}
				if p.Name != "" {
					fmt.Printf("%s=%s", p.Name, p.Value)
				} else {
					fmt.Printf("%s", p.Value)
				}
			}
			fmt.Println(")")
		}
	}

	if text, ok := alertextractor.Extract(msg); ok {
		fmt.Printf("\nalert remainder: %q\n", text)
	} else {
		fmt.Println("\nno {!} alert marker present")
	}
}
