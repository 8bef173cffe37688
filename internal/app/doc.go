// Package app provides the per-invocation application context for flatplay.
//
// An App binds the configuration, the project and every component operating
// on it: the state store, the audit log, the manifest locator, the builder
// and the session controller. Commands create one App per invocation.
//
// # Creating an App
//
// Use New with functional options:
//
//	// Production usage
//	a, err := app.New(projectDir)
//
//	// Testing with custom dependencies
//	a, err := app.New(dir,
//	    app.WithConfig(cfg),
//	    app.WithRunner(system.NewMockRunner()),
//	    app.WithSpawner(system.NewMockSpawner()),
//	    app.WithProcesses(system.NewMockProcesses()),
//	    app.WithBus(session.NewMockBus()),
//	)
//
// # Available Options
//
//	WithConfig(cfg)              // Skip loading config.toml and the environment
//	WithFS(fs)                   // Custom filesystem
//	WithHost(host)               // Skip sandbox detection
//	WithExecutor(exec)           // Short-lived commands
//	WithRunner(runner)           // Streaming builder commands
//	WithSpawner(spawner)         // Detached application runs
//	WithProcesses(procs)         // Liveness and signals
//	WithBus(bus)                 // Session bus client
//	WithOutput(stdout, stderr)   // Subprocess output
package app
