package main

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/ivoronin/dupehound/internal/budget"
	"github.com/ivoronin/dupehound/internal/config"
)

// fmtBytes is a shorthand for humanize.IBytes (human-readable byte sizes).
var fmtBytes = humanize.IBytes

// parseDecision parses an answer to a budget pause.
//
//	""          raise to suggestion
//	"c"         continue
//	"r"         raise to suggestion
//	"r 200MiB"  raise to 200MiB
func parseDecision(line string, suggestion int64) (budget.Decision, error) {
	fields := strings.Fields(strings.ToLower(line))
	if len(fields) == 0 {
		return budget.Raise(suggestion), nil
	}
	switch fields[0] {
	case "c", "continue":
		if len(fields) > 1 {
			return budget.Decision{}, fmt.Errorf("continue takes no arguments")
		}
		return budget.Continue(), nil
	case "r", "raise":
		switch len(fields) {
		case 1:
			return budget.Raise(suggestion), nil
		case 2:
			size, err := config.ParseSize(fields[1])
			if err != nil {
				return budget.Decision{}, fmt.Errorf("invalid size %q: %w", fields[1], err)
			}
			return budget.Raise(size), nil
		}
		return budget.Decision{}, fmt.Errorf("usage: r [size]")
	}
	return budget.Decision{}, fmt.Errorf("unknown answer %q", fields[0])
}
