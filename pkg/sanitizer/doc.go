// Package sanitizer normalizes free-text input before it is validated and
// stored.
//
// Every function is idempotent: applying it twice gives the same result as
// applying it once. Invalid input never produces an error; it collapses to an
// empty string or an empty slice, which validation then rejects.
//
// Normalization includes:
//   - Strings: collapse whitespace runs, trim, drop control and format
//     characters and invalid UTF-8
//   - Titles and room names: string normalization plus a rune cap
//   - Identifiers: lowercase slugs of letters, digits, '-' and '_'
//   - Slices: drop empties and duplicates after per-item normalization
package sanitizer
