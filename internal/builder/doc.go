// Package builder wraps flatpak-builder and flatpak to build, refresh and
// export a manifest's application.
//
// A build runs in stages, each an external command whose failure stops
// the pipeline:
//
//  1. flatpak build-init, when the repository is not initialized
//  2. flatpak-builder --download-only, when sources were never fetched
//  3. flatpak-builder --build-only --stop-at=<app>, for the dependencies
//  4. the application module's build system inside flatpak build
//
// flatpak-builder is used natively when installed, otherwise through the
// org.flatpak.Builder Flatpak.
package builder
