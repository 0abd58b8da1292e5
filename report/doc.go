// Package report renders tracking history into files: text, HTML, JSON
// and CSV reports and an HTML map with a marker for every entry which
// has coordinates.
//
// Files are written through afero so callers decide where they land.
package report
