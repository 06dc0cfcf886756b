// Package harness runs UI test scenarios against browser pages.
//
// A Scenario is a named, tagged check that receives its own freshly loaded
// page. The Provisioner prepares that page (browser, clipboard-enabled
// context, navigation, readiness) and tears it down afterwards; the Runner
// schedules scenarios in parallel and reports a Result per scenario; RunT
// does the same as Go subtests.
//
// Scenarios stop with a *Failure whose Kind separates assertion mismatches
// from broken page contracts, expired waits and environment problems.
// Await is the only waiting primitive: a bounded poll that expires with a
// timing Failure.
package harness
