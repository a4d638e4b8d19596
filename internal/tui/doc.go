// Package tui implements the interactive terminal menu for git-hyper.
//
// # Overview
//
// The package follows the bubbletea Elm architecture: Model holds all UI
// state, Update handles key events and command results, and View renders
// the current screen. Blocking work (store access, ssh-keygen, the GitHub
// probe) always runs inside tea.Cmd functions so the event loop never
// stalls.
//
// # Screens
//
// The menu dispatches to one screen per operation: an add-account form
// with a generate-or-reuse key toggle, selection lists for switching and
// removing accounts, a current-account view showing the public key and
// fingerprint, and a result screen that every mutation funnels into.
// Delete requires an explicit y/N confirmation.
package tui
