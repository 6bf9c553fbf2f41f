package mcpserver

// DocumentFormatContract describes the canonical component document format
// that LLM consumers should follow when creating or updating documents.
const DocumentFormatContract = `# Chronicler Document Format Contract

Every component document stored in Chronicler MUST follow this structure.

## Structure

` + "```" + `markdown
---
id: component-identity              # REQUIRED for linkability; kebab-case
version: 2.1.0                      # OPTIONAL
owner: platform-team                # OPTIONAL
layer: service                      # OPTIONAL
security_level: internal            # OPTIONAL
tags:                               # OPTIONAL - YAML list
  - billing
satellites:                         # OPTIONAL - auxiliary artifacts
  - runbook.md
dependencies:                       # OPTIONAL - declared graph edges
  - target: user-store
    type: calls
    protocol: grpc
---

Body text in standard Markdown. Headings (#, ##, ...) are indexed.

Links can use three notations:
1. Direct scheme: comp://user-store or comp://user-store/schema
2. Bracketed: [[user-store]] or [[user-store#schema]]
3. Inline: [the user store](services/user-store.md#schema)
` + "```" + `

## Rules

1. **The header block is delimited by ` + "`" + `---` + "`" + ` fences** and must be the
   first thing in the file. A document without a header is still indexed,
   but cannot be linked to by identity.
2. **` + "`" + `id` + "`" + ` is the component identity.** Bracketed and direct links
   resolve against it. If two documents claim the same identity, the most
   recently registered one wins.
3. **Inline links resolve by location**, not identity: the ` + "`" + `.md` + "`" + `
   path is looked up directly, so it must match the document's workspace
   location.
4. **` + "`" + `dependencies` + "`" + ` entries declare graph edges.** Each needs a
   ` + "`" + `target` + "`" + ` identity; ` + "`" + `type` + "`" + ` and ` + "`" + `protocol` + "`" + `
   are optional. Body links never create graph edges, only backlink counts.
5. **File locations** end with ` + "`" + `.md` + "`" + ` and use forward slashes.
6. **Encoding** is UTF-8 with a trailing newline.

## Example

` + "```" + `markdown
---
id: auth
version: 3.2.0
owner: identity-team
layer: service
dependencies:
  - target: user-store
    type: calls
    protocol: grpc
---

# Auth Service

Issues tokens via comp://token-service/issuing and persists sessions
in [[user-store#sessions]].

See [the gateway notes](edge/gateway.md#auth) for routing details.
` + "```" + `
`
