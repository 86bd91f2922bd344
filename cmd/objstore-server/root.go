package main

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "objstore-server",
	Short: "Content-addressable object store server",
	Long: `objstore-server runs the HTTP boundary, background garbage collector,
and database migrations for the content-addressable object store.

Configuration is read entirely from OBJSTORE_-prefixed environment
variables; see internal/config for the full surface.`,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
}
