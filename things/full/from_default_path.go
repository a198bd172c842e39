// Package full populates a things.Things workspace from datafiles on disk.
package full

import (
	"github.com/karolak6612/itemedit/clients"
	"github.com/karolak6612/itemedit/paths"
	"github.com/karolak6612/itemedit/things"
)

// FromDefaultPaths finds the datafiles in the default locations the paths
// package searches and loads them for the passed client.
//
// The spr archive can be excluded due to its size.
//
// Appropriate for tests or web frontends. Inappropriate for tools where the
// path should be specifiable by the user on the command line.
func FromDefaultPaths(client clients.SupportedClient, withSpr bool) (*things.Things, error) {
	sprFile := ""
	if withSpr {
		sprFile = paths.Find("items.spr")
	}
	return FromPaths(client,
		paths.Find("items.otb"),
		paths.Find("items.xml"),
		paths.Find("items.dat"),
		sprFile)
}
