/*
Package mapping interprets syncfiles mapping files.

	+-----------+      +------------+      +-----------+
	|  Parse /  | ---> |  Document  | ---> |  Pairs()  |
	|  Load     |      | groups+vars|      | pair.Set  |
	+-----------+      +------------+      +-----------+

🎯 Format:

	// comment
	FROM=C:\work
	TO=/home/me/work
	C:\work\notes.txt
	$FROM\todo.txt:::$TO/todo.txt

	Group:prod
	/etc/app.conf:::/backup/app.conf

- Lines are trimmed; blank lines and "//" comments are ignored.
- "Group:<name>" switches the group for the lines that follow. Lines before
  any header belong to "global", which is always selected.
- A line with exactly one "=" defines a variable. Definitions are collected
  across the whole file regardless of group; later ones win.
- "SRC:::DST" maps SRC to DST after "$NAME" substitution.
- Any other line is a shorthand source path that must start with $FROM. Its
  destination is $TO + "\" + the remainder. The backslash is part of the
  format and does not follow the host separator.

Variables are resolved when the document is parsed, so a Document is
immutable once returned.
*/
package mapping
