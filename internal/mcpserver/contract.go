package mcpserver

// ContentFormatContract describes the document source format that LLM
// consumers should follow when writing documentation.
const ContentFormatContract = `# dox Content Format Contract

Every documentation source served by dox MUST follow this structure.

## Structure

` + "```" + `markdown
---
title: Webhooks                     # OPTIONAL - defaults to the title-cased last slug segment
description: Reliable events.       # OPTIONAL - defaults to empty
group: Integrations                 # OPTIONAL - defaults to Docs
badge: beta                         # OPTIONAL
keywords: [webhooks, events]        # OPTIONAL - YAML list or comma-separated string
timeEstimate: 7 min                 # OPTIONAL - defaults to 5 min
lastUpdated: 2024-12-03             # OPTIONAL - defaults to the compile date
---

import { Callout } from '/snippets/callouts.yaml'

Body text in GitHub-flavoured Markdown.

<Callout kind="warning" />
` + "```" + `

## Rules

1. **Frontmatter is optional** but, when present, the ` + "`" + `---` + "`" + ` fences must be the first
   thing in the file. Malformed YAML is ignored and every field takes its default.
2. **File layout:** a page served at ` + "`" + `/a/b` + "`" + ` lives at ` + "`" + `a/b.mdx` + "`" + ` or ` + "`" + `a/b/index.mdx` + "`" + ` in a
   content root. The home page is ` + "`" + `home.mdx` + "`" + ` or ` + "`" + `home/index.mdx` + "`" + `. Roots are searched in order
   and the first match wins.
3. **Snippet imports** have exactly the shape ` + "`" + `import { A, B } from '/snippets/<file>'` + "`" + `, one
   per line. They are removed from the body. Each name must be registered in the snippet
   registry, otherwise it is reported as a diagnostic and left unresolved.
4. **Snippet tags** ` + "`" + `<Name />` + "`" + ` or ` + "`" + `<Name prop="value" />` + "`" + ` render the registered component.
   A tag on its own line renders as a block. A tag naming an unresolved import fails rendering.
5. **Headings** of level 2 and 3 form the page's table of contents and get stable anchor ids.
6. **Assets** (images, downloads) are stored under the ` + "`" + `assets/` + "`" + ` directory of a content root and referenced as ` + "`" + `/assets/<path>` + "`" + `.
7. **Encoding** is UTF-8 with a trailing newline.

## Example

` + "```" + `markdown
---
title: Authentication
group: Core
keywords: [oauth, api keys]
---

import { KeyTable } from '/snippets/auth.yaml'

## API keys

<KeyTable />

![Key rotation](/assets/images/rotation.png)
` + "```" + `
`
