// Package normalisers provides document parsers that turn raw bytes
// into plain text.
//
// Each format (plain text, Markdown, HTML, DOCX, PDF, XLSX) has its
// own normaliser in a subpackage. The Registry dispatches a raw
// document to the highest-priority normaliser claiming its MIME type.
package normalisers
