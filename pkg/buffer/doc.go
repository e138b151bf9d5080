// Copyright 2025 walteh LLC
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

/*
Package buffer implements the recipe language: the line-oriented text a user
edits to describe changes to a directory tree.

	+-----------+    Parse     +----------+
	|  recipe   | -----------> |  Buffer  |
	|  (text)   | <----------- | (typed)  |
	+-----------+    Format    +----------+

📝 Grammar (one statement per line):

	<left> : <right>

The line is split at the right-most " : ". The right side, trimmed, is the
target path. The left side is split on spaces:

	abc             : /var/my        existing entry, untouched
	A | ADD         : /new           create empty file (or dir when path ends in /)
	C | COPY abc    : /copy          copy the entry owning abc
	D | DEL | DELETE abc : /var/my   remove the entry owning abc
	M | MV | MOVE | RENAME abc : /x  move the entry owning abc
	O | OPEN abc    : /var/my        record the path in the chooser file

A single token without uppercase letters is a bare index. Anything else
starts with a verb (case-sensitive) and ends with the index operand. Blank
lines and lines without the separator are skipped.

🔍 Index resolution:
Every index used by a verb refers to an existing entry of the same buffer,
matched exactly or by an unambiguous prefix. Buffer.Resolve is backed by a
table built once in New.

Parsing never touches the filesystem. Format output parses back to an equal
buffer, though not necessarily to identical text.
*/
package buffer
