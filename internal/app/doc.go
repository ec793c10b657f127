// Package app wires the Marketing Data Engine together and manages its lifecycle.
//
// # Initialization Flow
//
//	1. Load configuration (.env, MDE_* environment, optional YAML file)
//	2. Initialize slog logging and OpenTelemetry providers
//	3. Build the schema registry, dataset store and websocket hub
//	4. Create the pipeline and health services
//	5. Mount the chi router and middleware chain
//	6. Start the HTTP server and runtime metric collector
//
// # Usage
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run()
//
// Run blocks until SIGINT or SIGTERM, then shuts the server down, closes websocket clients
// and flushes telemetry. Initialization errors are returned; the package never calls os.Exit.
package app
