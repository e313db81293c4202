// Package extraction locates clean story text inside a submission.
//
// Submissions arrive as email bodies (text and HTML), optionally with a URL
// to a hosted post and a password for protected WordPress posts. Extraction
// runs a fallback chain of strategies in priority order:
//
//   - agent: an LLM inspects the submission and routes it to one of the
//     deterministic strategies below, surfacing the URL and password when a
//     fetch is needed
//   - inline: the story is in the body itself; HTML is converted to
//     markdown-flavoured text so paragraph structure survives
//   - url: the story is behind a link; the page is fetched, unlocked with the
//     post password when required, and the post content area is selected out
//     of the page chrome
//
// A strategy that declines or fails advances the chain. The extracted text
// keeps scene-break markers and blank-line paragraph separation intact, which
// the chunking stage depends on.
package extraction
