package main

import (
	"fmt"
	"os"

	"github.com/rxscan/rxscan/internal/rules"
)

// checkrules validates a rule table document (.json or .xlsx) and prints a
// short summary, so a broken table is caught before deployment.
func main() {
	if len(os.Args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: checkrules <rules-file>")
		os.Exit(2)
	}
	t, err := rules.Load(os.Args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid rules document: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("ok: %d interaction, %d overdose, %d food rules\n",
		len(t.Interactions), len(t.Overdose), len(t.Food))
}
