package mcpserver

// SyntaxGuide summarizes the outline syntax the converter understands and
// what each construct becomes in the published site.
const SyntaxGuide = `# Logpress Outline Syntax

Source graphs are outline markdown: every block is a "- " bullet, nested
by two spaces. Pages live in pages/, daily notes in journals/ named
YYYY_MM_DD.md.

## Page properties

The first block may hold only "key:: value" lines. They become front matter.

` + "```" + `markdown
title:: Weekly standup
alias:: standup, sync
tags:: meeting-notes, project-x
private:: true          # page is not published
` + "```" + `

## References

| Source                     | Output                                  |
|----------------------------|-----------------------------------------|
| ` + "`[[Page]]`" + `               | ` + "`[[Page]]`" + `, or a stub when unknown     |
| ` + "`[[alias]]`" + `              | ` + "`[[Page\\|alias]]`" + `                      |
| ` + "`[label]([[Page]])`" + `      | ` + "`[[Page\\|label]]`" + `                      |
| ` + "`#[[multi word]]`" + `       | wikilink to the tag page                |
| ` + "`((block-uuid))`" + `         | the block text with a link to its page  |
| ` + "`{{embed [[Page]]}}`" + `     | ` + "`![[Page]]`" + `                            |
| ` + "`{{embed ((uuid))}}`" + `     | the block quoted                        |

References resolve by exact name, then alias, then namespace
(` + "`[[x/y]]`" + ` against ` + "`x/y`" + ` or a page named ` + "`y`" + ` under ` + "`x`" + `), then name prefix.
Anything else produces a stub page listing its referrers.

## Tasks

` + "`TODO`/`DOING`/`NOW`/`LATER`/`WAITING`" + ` become ` + "`- [ ]`" + ` (DOING and NOW
marked 🔄, LATER 📅, WAITING ⏳), ` + "`DONE`" + ` becomes ` + "`- [x]`" + ` and ` + "`CANCELLED`" + `
becomes ` + "`- [x] ❌`" + `. Priorities ` + "`[#A]`/`[#B]`/`[#C]`" + ` become 🔴/🟡/🟢.
SCHEDULED and DEADLINE lines are kept as 📅 and ⏰ lines.

## Queries

` + "`{{query (and (page-tags project) (property status active))}}`" + ` is evaluated
at build time and replaced by a table. Supported forms: and, or, not,
page-tags, property, task, priority, between, page, namespace, a bare
[[reference]] and "full text". Block properties ` + "`query-table`" + `,
` + "`query-properties`, `query-sort-by`, `query-sort-desc`" + ` control rendering.

## Math and code

` + "`$x^2$`" + ` and ` + "`$$...$$`" + ` are kept as math. A dollar amount such as ` + "`$100`" + `
is escaped. Code spans and fenced blocks are never rewritten.
`
