// Package chunker splits corpus files into fixed line windows for embedding.
//
// The corpus is mixed-language text (source files, protocol documents, test
// files, skill cards), so chunk boundaries are line-based rather than
// syntax-aware: every window carries its 1-based start and end line, which
// downstream consumers use both to cite hit locations and to observe file
// length without re-reading files.
//
// # Basic Usage
//
//	c := chunker.New(60)
//	for _, chunk := range c.ChunkText(content) {
//	    fmt.Printf("lines %d-%d: %d bytes\n",
//	        chunk.StartLine, chunk.EndLine, len(chunk.Content))
//	}
//
// Windows holding only blank lines produce no chunk, so sparse files do not
// generate empty embeddings.
package chunker
