// Package logtail reads and follows plain log files.
//
// It backs the file sources of `swarmtail serve`: Snapshot returns the last
// N complete lines of a file together with the byte offset they end at, and
// Follow picks up from that offset, polling for appended lines.
//
// # Reading
//
// Snapshot makes one pass over the file with a ring of maxLines entries, so
// memory stays O(maxLines) regardless of file size. A trailing line without
// a newline is not returned; it is still being written and Follow will
// deliver it once complete. Missing files read as empty.
//
// # Following
//
// Follow polls every DefaultPoll (250ms) once it reaches EOF. If the file
// shrinks below the current read position it is assumed to have been
// truncated or rotated in place and is read again from the start.
//
//	lines, offset, err := logtail.Snapshot(path, 100)
//	...
//	err = logtail.Follow(ctx, path, logtail.FollowOptions{Offset: offset}, func(line string) bool {
//		return send(line)
//	})
//
// Follow stops when ctx is done or emit returns false.
package logtail
