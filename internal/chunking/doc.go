// Package chunking splits extracted story text into reading-sized chunks.
//
// A fallback chain tries smarter strategies first: the agent strategy plans
// all break points over the whole numbered text, the llm strategy asks for a
// single-pass break plan, and the simple strategy packs paragraphs greedily.
// The orchestrator enforces scene-break markers as hard boundaries, prepends
// a "*Previously:*" recap to every chunk after the first, and numbers the
// batch for storage. Recaps never count toward a chunk's word count.
package chunking
