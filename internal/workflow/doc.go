// Package workflow drives the story lifecycle end to end.
//
// The manager runs three loops: a poller that claims the oldest pending story
// and walks it through extraction and chunking, a retry sweep that feeds
// failed stories with remaining budget back in, and a delivery ticker that
// asks the scheduler for the next due chunk. Stories stuck in processing from
// a crashed run are reset to pending at startup. Submit is the shared entry
// point for manual story submissions.
package workflow
