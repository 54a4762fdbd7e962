// Package reporting prints the final state of a deployment run: the stage
// record the sequencer accumulated and a snapshot of the workloads in the
// target namespace. Warnings and failures are visually distinct so a
// degraded-but-usable rollout does not read like a broken one.
package reporting

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"

	"ragctl/internal/kube"
	"ragctl/internal/orchestrator"
)

var (
	readyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	degradedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("3")).Bold(true)
	failedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	skippedStyle  = lipgloss.NewStyle().Faint(true)
	headerStyle   = lipgloss.NewStyle().Bold(true)
)

func outcomeStyle(outcome orchestrator.Outcome) lipgloss.Style {
	switch outcome {
	case orchestrator.OutcomeReady:
		return readyStyle
	case orchestrator.OutcomeDegraded:
		return degradedStyle
	case orchestrator.OutcomeFailed:
		return failedStyle
	case orchestrator.OutcomeSkipped:
		return skippedStyle
	default:
		return skippedStyle
	}
}

// PrintRunRecord writes the per-stage outcome table for a finished (or
// halted) run.
func PrintRunRecord(w io.Writer, record *orchestrator.RunRecord) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Deployment summary (namespace %q)", record.Namespace)))
	for _, stage := range record.Stages {
		line := fmt.Sprintf("  %-10s %s", stage.Name, outcomeStyle(stage.Outcome).Render(string(stage.Outcome)))
		if stage.Detail != "" {
			line += fmt.Sprintf("  (%s)", stage.Detail)
		}
		if stage.Err != nil {
			line += fmt.Sprintf("  %s", failedStyle.Render(stage.Err.Error()))
		}
		fmt.Fprintln(w, line)
	}
	if record.Degraded() {
		fmt.Fprintln(w, degradedStyle.Render("Some stages are degraded; they may settle on their own. Re-run to reconcile."))
	}
}

// PrintWorkloads writes the workload snapshot rows for the namespace.
func PrintWorkloads(w io.Writer, namespace string, workloads []kube.WorkloadStatus) {
	fmt.Fprintln(w, headerStyle.Render(fmt.Sprintf("Workloads in %q", namespace)))
	if len(workloads) == 0 {
		fmt.Fprintln(w, skippedStyle.Render("  (none found)"))
		return
	}
	for _, wl := range workloads {
		ready := fmt.Sprintf("%d/%d", wl.Ready, wl.Desired)
		style := readyStyle
		if !wl.IsReady() {
			style = degradedStyle
		}
		fmt.Fprintf(w, "  %-12s %-28s %s\n", wl.Kind, wl.Name, style.Render(ready))
	}
}
