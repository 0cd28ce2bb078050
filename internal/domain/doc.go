// Package domain models the public casualty datasets published by the
// Tech For Palestine collective.
//
// # Data Sources
//
// Two datasets are consumed:
//
//   - The daily aggregate series (casualties_daily), served as CSV from the
//     data.techforpalestine.org API and mirrored as a JSON array in the
//     palestine-datasets GitHub repository. One row per report date.
//   - The victims registry (killed-in-gaza), served as CSV. One row per
//     named individual.
//
// # Daily Aggregate Conventions
//
// Counters ending in "_cum" are cumulative and non-decreasing in practice,
// though nothing here enforces it. Early rows predate some counters, so every
// counter is nullable. The "ext_" prefix marks values extrapolated by the
// publisher to fill reporting gaps.
//
// Integer columns are occasionally rendered with a trailing ".0" by upstream
// tooling. [Count] accepts both forms.
//
// Tables returned to callers are always sorted ascending by report date with
// no duplicate dates; see [NormalizeDaily].
//
// # Registry Schema Drift
//
// The registry's column names have changed between revisions (en_name,
// english, english_name, ...). [Aliases] maps each canonical field to the
// source names it has appeared under, and [ParseVictims] resolves them once
// per load against the header actually present.
//
// Coercion is lenient: a field that fails to parse becomes null and the row
// is kept. Lines that cannot be split into fields at all (unescaped
// delimiters or quotes in free-text name fields) are skipped one by one.
package domain
