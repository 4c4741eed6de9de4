// Package commands implements the wcnotify CLI commands.
package commands
