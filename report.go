package kstats

import (
	"fmt"
	"strings"
)

// Report is a snapshot of a Registry. Each Stats value is internally
// consistent; different timings are read one after another, so a report
// taken during updates may mix slightly different moments.
type Report struct {
	Graphs []GraphReport
}

type GraphReport struct {
	Name string
	// Generation is the index of this graph among graphs sharing Name.
	Generation int
	Paths      []PathReport
}

type PathReport struct {
	Stats
	Segments []SegmentReport
}

type SegmentReport struct {
	Stats
	Task string
}

// Route joins the segment task names with "->".
func (p PathReport) Route() string {
	tasks := make([]string, len(p.Segments))
	for i, s := range p.Segments {
		tasks[i] = s.Task
	}
	return strings.Join(tasks, "->")
}

// Report snapshots every graph, path and segment.
func (r *Registry) Report() Report {
	graphs := r.Graphs()
	generations := make(map[string]int, len(graphs))

	report := Report{Graphs: make([]GraphReport, 0, len(graphs))}
	for _, g := range graphs {
		gr := g.Report()
		gr.Generation = generations[g.name]
		generations[g.name]++
		report.Graphs = append(report.Graphs, gr)
	}
	return report
}

// Report snapshots the graph's paths and segments.
func (g *Graph) Report() GraphReport {
	paths := g.Paths()
	gr := GraphReport{
		Name:  g.name,
		Paths: make([]PathReport, 0, len(paths)),
	}
	for _, p := range paths {
		segments := p.Segments()
		pr := PathReport{
			Stats:    p.Stats(),
			Segments: make([]SegmentReport, 0, len(segments)),
		}
		for _, s := range segments {
			pr.Segments = append(pr.Segments, SegmentReport{
				Stats: s.Stats(),
				Task:  s.task,
			})
		}
		gr.Paths = append(gr.Paths, pr)
	}
	return gr
}

// String renders the report as an indented tree.
func (r Report) String() string {
	var sb strings.Builder
	for _, g := range r.Graphs {
		fmt.Fprintf(&sb, "graph %s", g.Name)
		if g.Generation > 0 {
			fmt.Fprintf(&sb, " #%d", g.Generation)
		}
		sb.WriteString("\n")
		for i, p := range g.Paths {
			fmt.Fprintf(&sb, "  path %d [%s] %s\n", i, p.Route(), p.Stats)
			for _, s := range p.Segments {
				fmt.Fprintf(&sb, "    %s %s\n", s.Task, s.Stats)
			}
		}
	}
	return sb.String()
}

func (s Stats) String() string {
	if s.Called == 0 {
		return "calls=0"
	}
	avg, _ := s.Average()
	return fmt.Sprintf("calls=%d total=%v min=%v max=%v avg=%v",
		s.Called, s.Aggregate, s.Min, s.Max, avg)
}
