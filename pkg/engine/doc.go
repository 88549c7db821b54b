/*
Package engine decides which files need copying and copies them.

	+-----------+     +----------+     +-----------+     +---------+
	|  mapping  | --> |  expand  | --> |  decide   | --> |  copy   |
	| (--file)  |     | per pair |     | (history) |     | +record |
	+-----------+     +----------+     +-----------+     +---------+

🎯 Decision, per pair:
 1. --force copies unconditionally.
 2. A history record equal to the source's current mtime skips.
 3. Otherwise an existing destination is replaced only when the source is
    newer by more than one whole second; a missing destination is copied.

History is written only after a copy succeeds, so a failed copy is retried on
the next run. A failure on one pair is logged and the run moves on; the final
summary line is always printed.
*/
package engine
