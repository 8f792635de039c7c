package engine

import (
	"strings"

	"github.com/shaiso/graphrun/internal/domain"
)

// Стили категорий узлов в диаграмме.
var chartClassDefs = []string{
	"classDef trigger fill:#e6f7ff,stroke:#1890ff,stroke-width:2px",
	"classDef utility fill:#f6ffed,stroke:#52c41a,stroke-width:2px",
	"classDef ai fill:#fff2e8,stroke:#fa8c16,stroke-width:2px",
	"classDef action fill:#f9f0ff,stroke:#722ed1,stroke-width:2px",
}

// Chart строит Mermaid flowchart для workflow.
//
//	flowchart TD
//	    start["Start"]
//	    start -->|equals yes| check
//	    classDef trigger ...
//	    class start trigger
func Chart(wf *domain.Workflow) string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")

	for i := range wf.Nodes {
		node := &wf.Nodes[i]
		b.WriteString("    " + node.ID + `["` + chartLabel(node.Label()) + "\"]\n")
	}

	for _, edge := range wf.Edges {
		if edge.HasCondition() {
			value, _ := edge.ExpectedValue()
			b.WriteString("    " + edge.StartNodeID + " -->|" +
				chartLabel(edge.Condition+" "+value) + "| " + edge.EndNodeID + "\n")
		} else {
			b.WriteString("    " + edge.StartNodeID + " --> " + edge.EndNodeID + "\n")
		}
	}

	b.WriteString("\n    %% Node styling\n")
	for _, def := range chartClassDefs {
		b.WriteString("    " + def + "\n")
	}
	b.WriteString("\n")

	for _, node := range wf.Nodes {
		if node.Category == "" {
			continue
		}
		b.WriteString("    class " + node.ID + " " + node.Category + "\n")
	}

	return b.String()
}

// chartLabel экранирует символы, ломающие синтаксис Mermaid.
func chartLabel(s string) string {
	r := strings.NewReplacer(`"`, "#quot;", "|", "#124;", "\n", " ")
	return r.Replace(s)
}
