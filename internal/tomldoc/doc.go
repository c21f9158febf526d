// SPDX-License-Identifier: MPL-2.0

// Package tomldoc provides a lossless, editable view of a TOML document.
//
// A Document keeps the original text of every line it did not touch. Edits are
// expressed against key paths (Set, Remove) or against commented-out entries
// (CommentOut, Uncomment), and every edit is re-validated with go-toml so a
// mutation can never leave the document in a state that fails to parse.
//
// Typical use:
//
//	doc, err := tomldoc.Parse(data)
//	if err != nil {
//		return err
//	}
//	if err := doc.Set(tomldoc.Path{"profile", "dev", "opt-level"}, 1); err != nil {
//		return err
//	}
//	return os.WriteFile(path, doc.Bytes(), 0o644)
package tomldoc
