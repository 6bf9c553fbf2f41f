// Package graph projects the document index into a visualization dataset.
package graph

import (
	"github.com/shihwesley/chronicler-sub000/internal/models"
	"github.com/shihwesley/chronicler-sub000/internal/resolver"
)

// Graph is the nodes+edges dataset consumed by visualization surfaces.
// It is recomputed per request, never stored.
type Graph struct {
	Nodes []models.GraphNode `json:"nodes"`
	Edges []models.GraphEdge `json:"edges"`
}

// Build derives the graph from a point-in-time document snapshot.
//
// Edges come solely from each document's declared dependencies: body
// links are informal cross-references a reader follows, declared edges
// are the dependency graph a machine should trust. BacklinkCount counts
// body-link references, a measure of how often a document is read.
func Build(docs []*models.Document, res *resolver.Resolver) Graph {
	g := Graph{
		Nodes: make([]models.GraphNode, 0, len(docs)),
		Edges: []models.GraphEdge{},
	}

	for _, doc := range docs {
		id := doc.ComponentID
		if id == "" {
			// Headerless documents still render as isolated nodes.
			id = doc.Location
		}
		g.Nodes = append(g.Nodes, models.GraphNode{
			ID:            id,
			Location:      doc.Location,
			Label:         doc.Title,
			Layer:         doc.Layer,
			OwnerTeam:     doc.OwnerTeam,
			SecurityLevel: doc.SecurityLevel,
			BacklinkCount: len(res.Backlinks(doc.ComponentID)),
		})

		for _, e := range doc.Edges {
			if e.Target == "" {
				continue
			}
			g.Edges = append(g.Edges, models.GraphEdge{
				Source:           id,
				Target:           e.Target,
				RelationshipType: e.RelationshipType,
				Protocol:         e.Protocol,
			})
		}
	}
	return g
}
