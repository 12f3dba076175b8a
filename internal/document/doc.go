// Package document converts the vault object tree to and from the XML
// document stored, encrypted, inside a vault file.
//
// The document has a <VaultFile> root holding <Meta> and <Root>. Groups nest
// inside <Root>; entries sit inside the group they belong to. Values a UI
// should mask carry Protected="True". Reading heals missing metadata,
// identifiers and timestamps rather than rejecting the document.
package document
