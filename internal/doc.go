// Package internal contains the implementation packages of storybridge.
//
// # Package Organization
//
//   - resolver: raw component paths to dotted identifiers
//   - engine: template engines (html/template files, templ components)
//   - renderer: render dispatch, preview context and fallback cards
//   - inspector: component metadata and variable extraction
//   - lister: component discovery under the template roots
//   - server: HTTP routes, CORS, gating and live reload
//   - watcher: debounced file system notifications
//   - client: HTTP client with render cache and circuit breaker
//   - scaffolding: Storybook installation stubs
//   - config, logging, errors, metrics, validation, version: ambient
//     concerns shared by the above
//   - testutils: helpers for tests
//
// # Request Flow
//
// A render request reaches the server, is resolved to an identifier, is
// looked up by the engine chain and comes back either as markup wrapped
// in an envelope or as a fallback card. Template changes seen by the
// watcher drop the engine cache and notify live reload clients.
package internal
