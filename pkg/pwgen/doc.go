// Package pwgen drives a web password generator page and checks what it
// produces.
//
// The package is layered bottom-up:
//
//   - Locators name the nine page controls and Resolve binds them to a page,
//     failing with a page-contract error that names every missing control.
//   - Options, Classes and Verify describe a generator setting and check a
//     password against it.
//   - Reconciler, LengthControl and CopyVerifier drive the checkboxes, the
//     length input and slider, and the copy controls, reading the page state
//     back instead of assuming an action worked.
//   - Scenarios composes them into the catalogue run by the harness package.
//
// Waiting is always bounded polling through harness.Await; nothing sleeps
// for a fixed time.
package pwgen
