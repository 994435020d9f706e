/*
Package compiler turns generator output into build steps.

The primary input shape is one wrapper element holding action elements:

	<boltArtifact id="app" title="Todo App">
	  <boltAction type="file" filePath="src/main.tsx">...</boltAction>
	  <boltAction type="shell">npm run dev</boltAction>
	</boltArtifact>

The tags are read with a small tokenizer (lexer.go) rather than an XML parser:
only these two shapes are understood and nothing else is validated. Text
without a wrapper falls back to fenced code blocks and, failing that, to a
coarse "looks like source code" check.
*/
package compiler
