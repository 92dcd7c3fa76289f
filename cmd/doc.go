// Package cmd provides the command-line interface for storybridge.
//
// # Available Commands
//
//   - serve: Start the preview server with live reload
//   - list: List the component identifiers the server would report
//   - describe: Show the metadata of one component
//   - render: Render one component to stdout
//   - health: Query the health endpoint of a running server
//   - install: Install the Storybook integration into a project
//   - config: Show or validate the effective configuration
//   - version: Show build information
//
// # Command Examples
//
//	// Start the server on another port
//	storybridge serve --port 9090
//
//	// List components as JSON
//	storybridge list --format json
//
//	// Render a component with arguments
//	storybridge render components.button --args '{"text":"Save"}' --theme dark
//
//	// Render through a running server instead of the local templates
//	storybridge render components.button --server http://localhost:8080
//
//	// Install the Storybook files without touching package.json
//	storybridge install --skip-npm
//
// # Configuration
//
// Every command reads .storybridge.yml from the working directory, or the
// file named by --config or STORYBRIDGE_CONFIG_FILE. Individual values are
// overridden with STORYBRIDGE_<SECTION>_<KEY> environment variables, for
// example STORYBRIDGE_SERVER_PORT or STORYBRIDGE_COMPONENTS_ROOTS.
package cmd
