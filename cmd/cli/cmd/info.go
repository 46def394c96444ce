package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"

	"github.com/spf13/cobra"

	"github.com/metaflame/internal/session"
	"github.com/metaflame/internal/viewtree"
	"github.com/metaflame/pkg/model"
)

var (
	infoJSON bool
	infoTop  int
)

// infoCmd summarizes a trace file
var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Summarize a trace file",
	Long: `Load a trace file, build the aggregate call tree and print the trace bounds,
thread count, stack depth, the rendered mesh sizes and the heaviest frames of the
initial inspector slice.`,
	RunE: runInfo,
}

func init() {
	rootCmd.AddCommand(infoCmd)
	addInputFlags(infoCmd)
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "Print the summary as JSON")
	infoCmd.Flags().IntVarP(&infoTop, "top", "n", 10, "Number of frames to list")
}

// InfoSummary is the output of the info command.
type InfoSummary struct {
	Input    string               `json:"input"`
	Info     model.TraceInfo      `json:"info"`
	Vertices map[session.View]int `json:"vertices"`
	Top      []FrameShare         `json:"top"`
}

// FrameShare is one frame's share of the inspector root.
type FrameShare struct {
	Name    string  `json:"name"`
	Depth   int     `json:"depth"`
	Percent float64 `json:"percent"`
}

func runInfo(cmd *cobra.Command, args []string) error {
	sess, err := openSession(cmd.Context(), GetConfig(), GetLogger())
	if err != nil {
		return err
	}
	summary := summarize(sess, inputFile, infoTop)
	if infoJSON {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(summary)
	}
	printSummary(cmd.OutOrStdout(), summary)
	return nil
}

func summarize(sess *session.Session, input string, top int) InfoSummary {
	s := InfoSummary{
		Input:    input,
		Info:     sess.Info(),
		Vertices: make(map[session.View]int, len(session.AllViews)),
	}
	for _, v := range session.AllViews {
		s.Vertices[v] = sess.Mesh(v).Len()
	}

	vt := sess.InspectorTree()
	metric := sess.Settings(session.ViewInspector).Metric
	vt.BreadthFirst(func(n *viewtree.Node, depth int) {
		if depth == 0 {
			return
		}
		s.Top = append(s.Top, FrameShare{Name: n.Name, Depth: depth, Percent: n.Percent(metric, vt.Root)})
	})
	sort.SliceStable(s.Top, func(i, j int) bool { return s.Top[i].Percent > s.Top[j].Percent })
	if top >= 0 && len(s.Top) > top {
		s.Top = s.Top[:top]
	}
	return s
}

func printSummary(w io.Writer, s InfoSummary) {
	fmt.Fprintf(w, "=== %s ===\n", s.Input)
	fmt.Fprintf(w, "Traces:     %d\n", s.Info.Nodes)
	fmt.Fprintf(w, "Time range: %s (%d)\n", s.Info.Range(), s.Info.Range().Len())
	fmt.Fprintf(w, "Threads:    %d\n", s.Info.NumThreads)
	fmt.Fprintf(w, "Max depth:  %d\n", s.Info.MaxDepth)
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Meshes ===")
	for _, v := range session.AllViews {
		fmt.Fprintf(w, "  %-10s %d vertices\n", v, s.Vertices[v])
	}
	fmt.Fprintln(w)
	fmt.Fprintln(w, "=== Top Frames (inspector) ===")
	for i, f := range s.Top {
		fmt.Fprintf(w, "  %2d. %6.2f%%  %s\n", i+1, f.Percent, truncateString(f.Name, 80))
	}
}

func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
