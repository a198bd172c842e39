// Binary itemserv serves the item browser over HTTP: an HTML list of the
// loaded item database plus PNG/GIF endpoints for sprites and items.
//
// The workspace is loaded from the file path flags registered by
// things/full, so the usual --items_otb_path, --items_xml_path, --dat_path,
// --spr_path and --client_version flags apply.
package main

import (
	"flag"
	"net/http"
	"os"

	"badc0de.net/pkg/flagutil/v1"
	"github.com/common-nighthawk/go-figure"
	"github.com/golang/glog"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/karolak6612/itemedit/things/full"
	"github.com/karolak6612/itemedit/web"
)

var (
	listenAddress = flag.String("listen_address", ":8080", "http listen address for itemserv")
)

func main() {
	full.SetupFilePathFlags()
	flagutil.Parse()
	flag.Set("logtostderr", "true")

	figure.NewFigure("itemserv", "", true).Print()

	th, err := full.FromFilePathFlags()
	if err != nil {
		glog.Exitf("loading item workspace: %v", err)
	}
	if list := th.Items(); list != nil {
		glog.Infof("serving %d items for client %d", len(list.Items), th.Client().Version)
	}

	r := mux.NewRouter()
	h := web.NewHandler(th, full.PathFlagValue(full.FlagSprPath))
	h.RegisterRoutes(r)

	chain := handlers.CombinedLoggingHandler(os.Stderr, handlers.CompressHandler(r))

	glog.Infof("listening on %s", *listenAddress)
	glog.Fatal(http.ListenAndServe(*listenAddress, chain))
}
