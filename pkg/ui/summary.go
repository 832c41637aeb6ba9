package ui

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"rashset/pkg/collector"
)

// PrintRunStart describes where a run will write and which sources it uses
func PrintRunStart(root, metadataPath string, sources []string) {
	PrintBanner()
	PrintInfo("Dataset root", root)
	PrintInfo("Metadata log", metadataPath)
	if len(sources) == 0 {
		PrintWarning("No sources configured; nothing will be collected")
		return
	}
	PrintInfo("Sources", strings.Join(sources, ", "))
}

// PrintRunSummary prints the outcome counts of a run
func PrintRunSummary(stats collector.Stats, root string) {
	fmt.Fprintln(Out)
	PrintHighlight("[RUN COMPLETE]")
	PrintInfo("Saved", fmt.Sprintf("%d", stats.Saved))

	labels := make([]string, 0, len(stats.SavedByLabel))
	for label := range stats.SavedByLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	for _, label := range labels {
		fmt.Fprintf(Out, "  %s %s\n", Dim(label+":"), Green(fmt.Sprintf("%d", stats.SavedByLabel[label])))
	}

	PrintInfo("Duplicates", fmt.Sprintf("%d", stats.Duplicates))
	PrintInfo("Failed", fmt.Sprintf("%d", stats.FailureCount()))
	if stats.AdapterFailures > 0 {
		PrintWarning("Search failures", stats.AdapterFailures)
	}
	PrintInfo("Elapsed", stats.Duration.Round(time.Millisecond).String())
	PrintSuccess(fmt.Sprintf("Images stored under %s", root))
}
