package graph_test

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/matzehuels/flowmap/pkg/graph"
)

func ExampleWriteGraph() {
	g := graph.Graph{
		Nodes: []graph.Node{{ID: "CRM", Label: "CRM"}, {ID: "ERP", Label: "ERP"}},
		Edges: []graph.Edge{{
			From:               "CRM",
			To:                 "ERP",
			Flows:              []graph.Flow{{DataForm: "JSON", Frequency: "Daily", IntegrationPattern: "API"}},
			IntegrationPattern: "API",
			Frequency:          "Daily",
			Label:              "API\nJSON",
			FlowCount:          1,
		}},
	}

	var buf bytes.Buffer
	if err := graph.WriteGraph(g, &buf); err != nil {
		fmt.Println("Error:", err)
		return
	}
	fmt.Print(buf.String())
	// Output:
	// {
	//   "nodes": [
	//     {
	//       "id": "CRM",
	//       "label": "CRM"
	//     },
	//     {
	//       "id": "ERP",
	//       "label": "ERP"
	//     }
	//   ],
	//   "edges": [
	//     {
	//       "from": "CRM",
	//       "to": "ERP",
	//       "flows": [
	//         {
	//           "data_form": "JSON",
	//           "frequency": "Daily",
	//           "integration_pattern": "API"
	//         }
	//       ],
	//       "integration_pattern": "API",
	//       "frequency": "Daily",
	//       "label": "API\nJSON",
	//       "flow_count": 1
	//     }
	//   ]
	// }
}

func ExampleReadGraph() {
	jsonData := `{
		"nodes": [{"id": "CRM"}, {"id": "ERP"}],
		"edges": [{"from": "CRM", "to": "ERP", "flow_count": 2}]
	}`

	g, err := graph.ReadGraph(strings.NewReader(jsonData))
	if err != nil {
		fmt.Println("Error:", err)
		return
	}

	fmt.Println("Nodes:", g.NodeCount())
	fmt.Println("Edges:", g.EdgeCount())
	fmt.Println("First edge:", g.Edges[0].From, "→", g.Edges[0].To)
	// Output:
	// Nodes: 2
	// Edges: 1
	// First edge: CRM → ERP
}

func ExampleEdgeKey() {
	fmt.Println(graph.EdgeKey("A", "B") == graph.EdgeKey("A", "B"))
	fmt.Println(graph.EdgeKey("A", "B") == graph.EdgeKey("B", "A"))
	// Output:
	// true
	// false
}
