// Package parser turns raw component-document text into a models.Document.
// It extracts the YAML header block, headings, and the three embedded link
// notations, and never fails: malformed input degrades to empty fields.
package parser

import (
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/shihwesley/chronicler-sub000/internal/checksum"
	"github.com/shihwesley/chronicler-sub000/internal/models"
)

// Scheme is the URI scheme recognized for direct links (comp://identity).
const Scheme = "comp"

// headerMarker delimits the YAML header block on its own line.
const headerMarker = "---"

var (
	headingRe   = regexp.MustCompile(`^(#{1,6})\s+(.+?)\s*$`)
	directRe    = regexp.MustCompile(Scheme + `://([A-Za-z0-9][A-Za-z0-9_-]*)(/[A-Za-z0-9_/-]+)?`)
	bracketedRe = regexp.MustCompile(`\[\[([^\[\]]+)\]\]`)
	inlineRe    = regexp.MustCompile(`\[([^\]]*)\]\(([^()\s#]+\.md)(?:#([^()\s]*))?\)`)
)

// Parse produces a Document from raw file content. It always returns a
// usable Document: a missing or undecodable header yields empty
// header-derived fields, and the body is still scanned for headings and
// links. Line numbers are counted against the whole file, header included.
func Parse(location string, content []byte) *models.Document {
	doc := &models.Document{
		Location: location,
		Checksum: checksum.Sum(content),
	}

	lines := splitLines(string(content))
	header, bodyStart := splitHeader(lines)
	applyHeader(doc, header)

	doc.Body = strings.Join(lines[bodyStart:], "\n")
	scanBody(doc, lines, bodyStart)

	if doc.Title == "" {
		doc.Title = doc.ComponentID
	}
	return doc
}

func splitLines(s string) []string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// splitHeader detects a leading marker-delimited header block. It returns
// the decoded header mapping (nil on any decode failure) and the index of
// the first body line. Without the marker pattern the header is empty and
// the body is the entire content. A literal marker appearing later in the
// body is not escaped; that limitation is part of the format.
func splitHeader(lines []string) (map[string]any, int) {
	if len(lines) == 0 || lines[0] != headerMarker {
		return nil, 0
	}
	for i := 1; i < len(lines); i++ {
		if lines[i] != headerMarker {
			continue
		}
		block := strings.Join(lines[1:i], "\n")
		var m map[string]any
		if err := yaml.Unmarshal([]byte(block), &m); err != nil {
			// Undecodable header: empty mapping, but the offset still
			// accounts for the consumed lines.
			return nil, i + 1
		}
		return m, i + 1
	}
	// Opening marker without a closing one: no header.
	return nil, 0
}

func applyHeader(doc *models.Document, header map[string]any) {
	doc.RawHeaderFields = header
	if header == nil {
		return
	}
	doc.ComponentID = headerString(header, "id")
	doc.Version = headerString(header, "version")
	doc.OwnerTeam = headerString(header, "owner")
	doc.Layer = headerString(header, "layer")
	doc.SecurityLevel = headerString(header, "security_level")
	doc.Tags = headerStrings(header, "tags")
	doc.Satellites = headerStrings(header, "satellites")
	doc.Edges = headerEdges(header)
}

func headerString(header map[string]any, key string) string {
	if s, ok := header[key].(string); ok {
		return strings.TrimSpace(s)
	}
	return ""
}

func headerStrings(header map[string]any, key string) []string {
	raw, ok := header[key].([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range raw {
		if s, ok := item.(string); ok {
			s = strings.TrimSpace(s)
			if s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

// headerEdges reads the declared dependencies list. Malformed entries
// (not a mapping, or missing a target) are dropped, never fatal.
func headerEdges(header map[string]any) []models.DocEdge {
	raw, ok := header["dependencies"].([]any)
	if !ok {
		return nil
	}
	var out []models.DocEdge
	for _, item := range raw {
		entry, ok := item.(map[string]any)
		if !ok {
			continue
		}
		target := headerString(entry, "target")
		if target == "" {
			continue
		}
		out = append(out, models.DocEdge{
			Target:           target,
			RelationshipType: headerString(entry, "type"),
			Protocol:         headerString(entry, "protocol"),
		})
	}
	return out
}

// scanBody walks body lines once, collecting headings and links. bodyStart
// is the 0-based index of the first body line, so lineNumber = index + 1
// stays valid against the original file.
func scanBody(doc *models.Document, lines []string, bodyStart int) {
	for i := bodyStart; i < len(lines); i++ {
		line := lines[i]
		lineNo := i + 1

		if m := headingRe.FindStringSubmatch(line); m != nil {
			h := models.Heading{Text: m[2], Level: len(m[1]), LineNumber: lineNo}
			doc.Headings = append(doc.Headings, h)
			if h.Level == 1 && doc.Title == "" {
				doc.Title = h.Text
			}
		}

		doc.Links = append(doc.Links, scanLine(line, lineNo)...)
	}
}

// scanLine runs the three notation matchers over one line and returns
// their links ordered by start column with overlapping spans dropped.
func scanLine(line string, lineNo int) []models.Link {
	var found []models.Link

	for _, m := range bracketedRe.FindAllStringSubmatchIndex(line, -1) {
		inner := line[m[2]:m[3]]
		target, subref := splitFragment(inner, "#")
		if target == "" {
			continue // malformed bracketed reference, skip the instance
		}
		found = append(found, models.Link{
			Notation:       models.NotationBracketed,
			RawText:        line[m[0]:m[1]],
			TargetIdentity: target,
			Subreference:   subref,
			LineNumber:     lineNo,
			StartColumn:    m[0],
			EndColumn:      m[1],
		})
	}

	for _, m := range inlineRe.FindAllStringSubmatchIndex(line, -1) {
		link := models.Link{
			Notation:       models.NotationInline,
			RawText:        line[m[0]:m[1]],
			TargetIdentity: line[m[4]:m[5]],
			LineNumber:     lineNo,
			StartColumn:    m[0],
			EndColumn:      m[1],
		}
		if m[6] >= 0 {
			link.Subreference = line[m[6]:m[7]]
		}
		found = append(found, link)
	}

	for _, m := range directRe.FindAllStringSubmatchIndex(line, -1) {
		link := models.Link{
			Notation:       models.NotationDirect,
			RawText:        line[m[0]:m[1]],
			TargetIdentity: line[m[2]:m[3]],
			LineNumber:     lineNo,
			StartColumn:    m[0],
			EndColumn:      m[1],
		}
		if m[4] >= 0 {
			link.Subreference = strings.TrimPrefix(line[m[4]:m[5]], "/")
		}
		found = append(found, link)
	}

	// Spans within one line must never overlap: the earliest match wins
	// and anything starting inside an accepted span is dropped (e.g. a
	// comp:// URI written inside double brackets).
	sort.SliceStable(found, func(a, b int) bool {
		return found[a].StartColumn < found[b].StartColumn
	})
	out := found[:0]
	lastEnd := -1
	for _, l := range found {
		if l.StartColumn < lastEnd {
			continue
		}
		out = append(out, l)
		lastEnd = l.EndColumn
	}
	return out
}

// splitFragment splits s at the first occurrence of sep, trimming both
// halves. The second value is empty when sep is absent.
func splitFragment(s, sep string) (string, string) {
	if i := strings.Index(s, sep); i >= 0 {
		return strings.TrimSpace(s[:i]), strings.TrimSpace(s[i+len(sep):])
	}
	return strings.TrimSpace(s), ""
}
