// Package app wires PredictFlow together and owns its lifecycle.
//
// New resolves paths, initializes OpenTelemetry and business metrics, loads
// the model artifact when present, builds the services and the chi router
// and creates the HTTP server. Start binds the listener and, when enabled,
// watches the artifact for hot reload. Stop shuts the server down and flushes
// telemetry.
//
// Typical use from a command:
//
//	application, err := app.NewApplication()
//	if err != nil {
//	    return err
//	}
//	return application.Run()
package app
