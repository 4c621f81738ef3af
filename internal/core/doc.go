// Package core provides the business logic of the school library service.
//
// The centre of the package is the bulk user import. An uploaded file is
// staged in temporary storage, decoded in full, and then every row is driven
// through the same sequence:
//
//  1. Skip the row if every field is empty
//  2. Normalize: trim values, derive the canonical email, check required fields
//  3. Validate name and phone syntax
//  4. Reject the row if an account with the same username already exists
//  5. Resolve (get or create) the organization and program by exact name
//  6. Create the account with the configured placeholder password
//
// Rows rejected at any step are reported with their original data and a
// reason; they never leave side effects behind. Failures that are not about
// a single row (unreadable file, store outage) abort the import with an
// *ImportError and discard every partial result. The staged file is removed
// on every exit path.
//
// The package also serves the smaller read and write paths of the API:
// credential checks, user profiles, and the book and exemplar catalog.
// Persistence is reached only through the UserStore, ReferenceStore and
// CatalogStore interfaces; temporary files only through FileStore.
package core
