// Package secrets redacts credentials and personal identifiers from the
// context phrases a scan returns.
//
// Matched keywords are reported back to callers together with surrounding
// document text. The default configuration runs the gitleaks rule set and
// DocumentRules over that text, then replaces each detected value while
// keeping rule IDs and counts for logging.
package secrets
