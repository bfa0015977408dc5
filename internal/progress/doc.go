// Package progress provides the append-only, resettable progress log that
// the lifecycle manager writes and the presentation layer reads.
//
// # Views and the emitted stream
//
// A Log has two faces:
//   - The current view: the entries appended since the last Reset. Reset
//     clears the view and the new entry becomes position 0.
//   - The emitted stream: every entry ever appended, delivered in order to
//     watchers registered with Watch. Every entry carries a Seq that counts
//     up from 1 and is never rewound by Reset.
//
// Readers take copies with Snapshot; a snapshot is never mutated after it is
// returned, so display code can hold it while the manager keeps writing.
package progress
