// Package models defines the domain types for Chronicler.
package models

// LinkNotation tags the syntactic form a body link was written in.
// The set is closed: dispatch on it with a switch, not subtyping.
type LinkNotation string

const (
	// NotationDirect is a URI-like reference: comp://identity[/subreference].
	NotationDirect LinkNotation = "direct"
	// NotationBracketed is a double-bracket reference: [[identity[#subreference]]].
	NotationBracketed LinkNotation = "bracketed"
	// NotationInline is a standard markdown link whose path ends in .md:
	// [label](path.md[#subreference]). Resolved by location, not identity.
	NotationInline LinkNotation = "inline"
)

// Link is one embedded reference found in a document body.
//
// LineNumber is 1-based and counted against the whole file, header block
// included. StartColumn/EndColumn are byte offsets within the line,
// 0-based, end exclusive. Spans within one line never overlap.
type Link struct {
	Notation       LinkNotation `json:"notation"`
	RawText        string       `json:"raw_text"`
	TargetIdentity string       `json:"target"`
	Subreference   string       `json:"subreference,omitempty"`
	LineNumber     int          `json:"line"`
	StartColumn    int          `json:"start_column"`
	EndColumn      int          `json:"end_column"`
}

// Heading is one markdown heading in a document body.
type Heading struct {
	Text       string `json:"text"`
	Level      int    `json:"level"`
	LineNumber int    `json:"line"`
}

// DocEdge is a declared relationship from the header dependencies list.
// These drive the visualization graph; body links do not.
type DocEdge struct {
	Target           string `json:"target"`
	RelationshipType string `json:"type"`
	Protocol         string `json:"protocol,omitempty"`
}

// Document is one parsed component document.
//
// A Document is replaced wholesale on every change; nothing mutates it
// field-by-field after Parse returns.
type Document struct {
	Location string `json:"location"`

	// Header-derived fields; all default to empty when the header is
	// missing or undecodable. ComponentID is not guaranteed unique.
	ComponentID   string    `json:"component_id"`
	Version       string    `json:"version,omitempty"`
	OwnerTeam     string    `json:"owner_team,omitempty"`
	Layer         string    `json:"layer,omitempty"`
	SecurityLevel string    `json:"security_level,omitempty"`
	Edges         []DocEdge `json:"edges,omitempty"`
	Tags          []string  `json:"tags,omitempty"`
	Satellites    []string  `json:"satellites,omitempty"`

	// RawHeaderFields is the full decoded header for consumers that
	// need fields not promoted above.
	RawHeaderFields map[string]any `json:"header,omitempty"`

	// Body-derived fields. Headings and Links are ordered by ascending
	// line number.
	Title    string    `json:"title"`
	Headings []Heading `json:"headings,omitempty"`
	Links    []Link    `json:"links,omitempty"`

	// Body is the raw body text, kept for the search mirror.
	Body string `json:"-"`

	Checksum string `json:"checksum"`
}

// GraphNode is one document in the visualization dataset.
type GraphNode struct {
	ID            string `json:"id"`
	Location      string `json:"location"`
	Label         string `json:"label"`
	Layer         string `json:"layer,omitempty"`
	OwnerTeam     string `json:"owner_team,omitempty"`
	SecurityLevel string `json:"security_level,omitempty"`
	BacklinkCount int    `json:"backlink_count"`
}

// GraphEdge is one declared relationship in the visualization dataset.
type GraphEdge struct {
	Source           string `json:"source"`
	Target           string `json:"target"`
	RelationshipType string `json:"type"`
	Protocol         string `json:"protocol,omitempty"`
}

// DocumentMetadata is a lightweight representation returned by list operations.
type DocumentMetadata struct {
	Location string `json:"location"`
	Checksum string `json:"checksum"`
}
