// Package delivery turns stored chunks into EPUB artifacts and emails them to
// the configured reading device, one chunk per scheduling pass.
//
// The scheduler picks the lowest-numbered unsent chunk of the oldest chunked
// story, renders it, sends it, and stamps sent_at with a conditional update so
// a chunk can never go out twice. Test mode swaps the SMTP sender for one that
// only logs.
package delivery
