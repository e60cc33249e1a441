package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"

	"github.com/ivoronin/dupehound/internal/pathtoken"
	"github.com/ivoronin/dupehound/internal/types"
)

// renderGroups prints ranked groups as a table, one row per member.
// Tokens identify members for `dupehound decode` and external tools.
func renderGroups(w io.Writer, mode types.Mode, groups []types.Group) {
	if len(groups) == 0 {
		fmt.Fprintln(w, "No duplicates found.")
		return
	}

	label := "Digest"
	if mode == types.ModeName {
		label = "Name"
	}

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"#", label, "Size", "Path", "Token"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetAutoWrapText(false)
	table.SetAutoMergeCellsByColumnIndex([]int{0, 1})
	table.SetColumnAlignment([]int{
		tablewriter.ALIGN_RIGHT, tablewriter.ALIGN_LEFT, tablewriter.ALIGN_RIGHT,
		tablewriter.ALIGN_LEFT, tablewriter.ALIGN_LEFT,
	})

	var reclaim int64
	members := 0
	for i, g := range groups {
		reclaim += g.ReclaimBytes()
		for _, f := range g.Members() {
			members++
			table.Append([]string{
				strconv.Itoa(i + 1),
				shortLabel(mode, g.Label()),
				fmtBytes(uint64(f.Size)),
				f.Path,
				pathtoken.Encode(f.Path),
			})
		}
	}
	table.SetFooter([]string{
		"", fmt.Sprintf("%d groups", len(groups)), "",
		fmt.Sprintf("%d files", members), "reclaimable " + fmtBytes(uint64(reclaim)),
	})
	table.Render()
}

// shortLabel abbreviates content digests; names are shown whole.
func shortLabel(mode types.Mode, label string) string {
	if mode == types.ModeContent && len(label) > 12 {
		return label[:12]
	}
	return label
}
