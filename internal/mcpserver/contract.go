package mcpserver

// NoteFormatURI identifies the note format resource.
const NoteFormatURI = "mimir://note-format"

// NoteFormatContract describes the canonical note format that agents must
// follow when writing vault notes.
const NoteFormatContract = `# Mimir Note Format Contract

Every note in the vault is a Markdown file with a YAML header.

## Structure

` + "```" + `markdown
---
title: "Note Title"                     # REQUIRED
created: 2026-03-01T12:00:00.000Z       # ISO-8601, defaults to now when missing
updated: 2026-03-01T12:00:00.000Z       # ISO-8601, rewritten by vault_link
tags: [tag-one, tag-two]                # defaults to []
type: concept                           # defaults to concept
links: [related-note]                   # declared related notes, defaults to []
confidence: high                        # OPTIONAL: high | medium | low
auto-maintained: true                   # OPTIONAL
---

# Note Title

Body text in standard Markdown.

## Connections
- Related to: [[other-note]]
` + "```" + `

## Rules

1. **One concept per note.** Prefer small, tightly scoped notes and update an
   existing note instead of creating a duplicate. Search first.
2. **` + "`" + `type` + "`" + `** is one of concept, person, project, decision, daily,
   fleeting, reference, core-memory.
3. **Wikilinks** use double brackets: ` + "`" + `[[other-note]]` + "`" + ` or ` + "`" + `[[folder/note]]` + "`" + `.
   ` + "`" + `[[target|label]]` + "`" + ` shows a label; only the target is used for the graph.
   A target resolves to an exact path, then to target + ` + "`" + `.md` + "`" + `, then to any
   note with that file name (first match wins).
4. **Connections.** ` + "`" + `vault_link` + "`" + ` adds bullets under ` + "`" + `## Connections` + "`" + ` and
   appends the target to ` + "`" + `links` + "`" + `. Keep the heading text exact.
5. **File paths** end with ` + "`" + `.md` + "`" + `, use forward slashes, and never contain ` + "`" + `..` + "`" + `.

## Layout

- ` + "`" + `concepts/` + "`" + `, ` + "`" + `people/` + "`" + `, ` + "`" + `projects/` + "`" + `, ` + "`" + `decisions/` + "`" + `, ` + "`" + `fleeting/` + "`" + ` by note type.
- ` + "`" + `_daily/YYYY-MM-DD.md` + "`" + ` holds a short summary per day.
- ` + "`" + `_core.md` + "`" + ` (type core-memory) keeps durable facts about the user.
- ` + "`" + `_index.md` + "`" + ` lists the notes of a folder once it grows past five notes.
`
