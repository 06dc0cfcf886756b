// Package browser provides web browser automation through interchangeable
// drivers (Playwright and chromedp) behind a single Page abstraction.
//
// # Architecture
//
// The package is built around three core concepts:
//
//  1. Page: the narrow set of primitives a UI test needs (navigate, fill,
//     click, press, read values and states, evaluate scripts, wait for a
//     predicate, screenshot).
//  2. Session: a named Page with bookkeeping. Sessions own their browser,
//     context and page; closing a session closes all three.
//  3. SessionManager: registry of active sessions bound to one Driver.
//
// # Session Lifecycle
//
//  1. Initialize: start the driver (optionally installing browsers)
//  2. Start: StartSession launches a browser and opens an isolated context
//  3. Use: the session is handed to exactly one test scenario
//  4. Close: CloseSession releases everything, success or failure
//
// # Errors
//
// Driver timeouts are reported wrapped in ErrTimeout so callers can tell a
// bounded wait that expired from other driver failures.
//
// # Example Usage
//
//	manager := browser.NewSessionManager()
//	if err := manager.Initialize(browser.DriverPlaywright, browser.InitOptions{}); err != nil {
//	    return err
//	}
//	defer manager.Shutdown()
//
//	session, err := manager.StartSession("smoke", browser.SessionOptions{
//	    Headless:    true,
//	    Permissions: browser.ClipboardPermissions,
//	})
//	if err != nil {
//	    return err
//	}
//	defer manager.CloseSession("smoke")
//
//	err = session.Navigate("https://example.com", browser.NavigateOptions{WaitUntil: "load"})
package browser
