package full

import (
	"sync/atomic"

	"github.com/golang/glog"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/karolak6612/itemedit/clients"
	"github.com/karolak6612/itemedit/dat"
	items "github.com/karolak6612/itemedit/otb/items"
	"github.com/karolak6612/itemedit/paths"
	"github.com/karolak6612/itemedit/spr"
	"github.com/karolak6612/itemedit/things"
)

// FromPaths populates a things.Things workspace using datafiles found at the
// passed paths. Any path passed as an empty string is omitted. The three
// files are independent on disk, so they load concurrently; the first
// failure cancels the lot.
//
// The spr file stays open for the workspace's lifetime since the atlas
// decodes sprites on demand.
func FromPaths(client clients.SupportedClient, itemsOTBPath, itemsXMLPath, datPath, sprPath string) (*things.Things, error) {
	t := things.New(client)
	var cancel atomic.Bool

	var g errgroup.Group
	g.Go(func() error {
		if itemsOTBPath == "" {
			return nil
		}
		glog.V(1).Infof("full.FromPaths(): opening items otb: %q", itemsOTBPath)
		f, err := paths.NoFindOpen(itemsOTBPath)
		if err != nil {
			cancel.Store(true)
			return errors.Wrap(err, "opening items otb")
		}
		defer f.Close()
		itemsOTB, err := items.New(f, &cancel)
		if err != nil {
			cancel.Store(true)
			return errors.Wrap(err, "parsing items otb")
		}

		if itemsXMLPath != "" {
			glog.V(1).Infof("full.FromPaths(): opening items xml: %q", itemsXMLPath)
			xf, err := paths.NoFindOpen(itemsXMLPath)
			if err != nil {
				cancel.Store(true)
				return errors.Wrap(err, "opening items xml")
			}
			defer xf.Close()
			if err := itemsOTB.AddXMLInfo(xf); err != nil {
				cancel.Store(true)
				return errors.Wrap(err, "parsing items xml")
			}
		}
		t.AddItems(itemsOTB)
		return nil
	})

	g.Go(func() error {
		if datPath == "" {
			return nil
		}
		glog.V(1).Infof("full.FromPaths(): opening dat: %q", datPath)
		f, err := paths.NoFindOpen(datPath)
		if err != nil {
			cancel.Store(true)
			return errors.Wrap(err, "opening dat")
		}
		defer f.Close()
		opts := client.DatOptions()
		opts.Cancel = &cancel
		dataset, err := dat.NewDataset(f, opts)
		if err != nil {
			cancel.Store(true)
			return errors.Wrap(err, "parsing dat")
		}
		t.AddDataset(dataset)
		return nil
	})

	g.Go(func() error {
		if sprPath == "" {
			return nil
		}
		glog.V(1).Infof("full.FromPaths(): opening spr: %q", sprPath)
		f, err := paths.NoFindOpen(sprPath)
		if err != nil {
			cancel.Store(true)
			return errors.Wrap(err, "opening spr")
		}
		opts := client.SprOptions()
		opts.Cancel = &cancel
		atlas, err := spr.NewAtlas(f, opts)
		if err != nil {
			f.Close()
			cancel.Store(true)
			return errors.Wrap(err, "parsing spr")
		}
		t.AddAtlas(atlas)
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return t, nil
}
