package engine

import "github.com/pollwheel/pollwheel/model"

// FindCycles flags every question that sits on, or can reach through
// jump destinations, a logic loop. The graph has an edge A -> B when any
// of A's rules names B as destination; "end" and dangling ids add no
// edge. Runs once at validation time, never on the navigation path.
func FindCycles(questions model.QuestionList) map[string]bool {
	known := questionSet(questions)
	edges := make(map[string][]string, len(questions))
	for _, q := range questions {
		id := q.Base().ID
		for _, rule := range q.Base().Logic {
			dest := rule.Destination
			if dest == "" || dest == model.DestinationEnd {
				continue
			}
			if _, ok := known[dest]; ok {
				edges[id] = append(edges[id], dest)
			}
		}
	}

	const (
		white = iota // unvisited
		gray         // on the recursion stack
		black        // done
	)
	color := make(map[string]int, len(questions))
	flagged := make(map[string]bool)

	var visit func(id string) bool
	visit = func(id string) bool {
		color[id] = gray
		for _, next := range edges[id] {
			switch {
			case color[next] == gray, flagged[next]:
				flagged[id] = true
			case color[next] == white:
				if visit(next) {
					flagged[id] = true
				}
			}
		}
		color[id] = black
		return flagged[id]
	}

	for _, q := range questions {
		if color[q.Base().ID] == white {
			visit(q.Base().ID)
		}
	}
	return flagged
}

func questionSet(questions model.QuestionList) map[string]struct{} {
	set := make(map[string]struct{}, len(questions))
	for _, q := range questions {
		set[q.Base().ID] = struct{}{}
	}
	return set
}
