package full

import (
	"flag"

	"github.com/karolak6612/itemedit/clients"
	"github.com/karolak6612/itemedit/paths"
	"github.com/karolak6612/itemedit/things"
)

var (
	itemsOTBPath  string
	itemsXMLPath  string
	datPath       string
	sprPath       string
	clientVersion uint
)

type PathFlag string

const (
	FlagItemsOTBPath = PathFlag("items_otb_path")
	FlagItemsXMLPath = PathFlag("items_xml_path")
	FlagDatPath      = PathFlag("dat_path")
	FlagSprPath      = PathFlag("spr_path")
)

// SetupFilePathFlags registers flags to manually define paths to the
// datafiles registerable in things.Things: --items_otb_path,
// --items_xml_path, --dat_path, --spr_path, plus --client_version to pick
// the registry entry.
//
// These paths are then consumed by FromFilePathFlags.
func SetupFilePathFlags() {
	paths.SetupFilePathFlag("items.otb", string(FlagItemsOTBPath), &itemsOTBPath)
	paths.SetupFilePathFlag("items.xml", string(FlagItemsXMLPath), &itemsXMLPath)
	paths.SetupFilePathFlag("items.dat", string(FlagDatPath), &datPath)
	paths.SetupFilePathFlag("items.spr", string(FlagSprPath), &sprPath)
	flag.UintVar(&clientVersion, "client_version", 854, "Numeric client version to load, e.g. 854 or 1098")
}

// FromFilePathFlags initializes a things.Things workspace populated with the
// files specified by the flags registered in SetupFilePathFlags. The flags
// need to be registered and parsed by the time this function is invoked.
func FromFilePathFlags() (*things.Things, error) {
	c, err := clients.ByVersion(uint32(clientVersion))
	if err != nil {
		return nil, err
	}
	return FromPaths(c, itemsOTBPath, itemsXMLPath, datPath, sprPath)
}

// PathFlagValue returns the value for the passed flag path (such as the path
// to the dat file).
func PathFlagValue(key PathFlag) string {
	switch key {
	case FlagItemsOTBPath:
		return itemsOTBPath
	case FlagItemsXMLPath:
		return itemsXMLPath
	case FlagDatPath:
		return datPath
	case FlagSprPath:
		return sprPath
	default:
		return ""
	}
}
