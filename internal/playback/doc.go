// Package playback drives speech synthesis and audio playback for card
// texts, with word-level highlight progression synchronized to the playback
// position and bounded retry on synthesis failures.
package playback
