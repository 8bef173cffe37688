// Package testutil provides test fixtures and utilities.
//
// # Fixtures
//
// Manifest fixtures are embedded using go:embed:
//
//	fixtures/org.example.App.json   // meson app with a cmake-ninja dependency
//	fixtures/org.example.Tool.yaml  // simple buildsystem, module reference
//	fixtures/not-a-manifest.json    // JSON without an application id
//
// # Test Environment
//
// NewTestEnv creates a project and state directory under t.TempDir and an
// App wired to mocks, installed as app.Default:
//
//	env := testutil.NewTestEnv(t)
//	path := env.AddManifest(testutil.AppManifest, "")
//	env.MarkBuilt(path)
//	env.Runner.AddResponse("flatpak-builder", 1, "error: boom")
package testutil
