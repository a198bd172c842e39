// Package things ties the three datafiles together: the server item
// database, the client appearance dataset and the sprite atlas. It resolves
// server items to their client appearance and checks the two sides against
// each other.
package things

import (
	"bytes"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/karolak6612/itemedit/clients"
	"github.com/karolak6612/itemedit/compositor"
	"github.com/karolak6612/itemedit/dat"
	"github.com/karolak6612/itemedit/item"
	items "github.com/karolak6612/itemedit/otb/items"
	"github.com/karolak6612/itemedit/spr"
)

// Item is a server item joined with its client appearance. Client is nil
// when the server item points at a client ID the dataset does not carry.
type Item struct {
	Server *items.ServerItem
	Client *dat.ClientItem

	parent *Things
}

// Name returns the server-side item name.
func (i *Item) Name() string {
	return i.Server.DisplayName()
}

// Things is the loaded workspace for one client version.
type Things struct {
	client clients.SupportedClient

	items   *items.Items
	dataset *dat.Dataset
	atlas   *spr.Atlas
}

// New creates an empty workspace for the given client. Datafiles are
// attached with the Add functions.
func New(c clients.SupportedClient) *Things {
	return &Things{client: c}
}

// Client returns the registry entry this workspace was loaded for.
func (t *Things) Client() clients.SupportedClient { return t.client }

func (t *Things) AddItems(i *items.Items) {
	t.items = i
}

func (t *Things) AddDataset(d *dat.Dataset) {
	t.dataset = d
}

func (t *Things) AddAtlas(a *spr.Atlas) {
	t.atlas = a
}

// Items returns the attached server item database, which may be nil.
func (t *Things) Items() *items.Items { return t.items }

// Dataset returns the attached appearance dataset, which may be nil.
func (t *Things) Dataset() *dat.Dataset { return t.dataset }

// Atlas returns the attached sprite atlas, which may be nil.
func (t *Things) Atlas() *spr.Atlas { return t.atlas }

// DatasetSignature returns the signature read from the attached dat file,
// or zero when none is attached.
func (t *Things) DatasetSignature() uint32 {
	if t.dataset == nil {
		return 0
	}
	return t.dataset.Header.Signature
}

// AtlasSignature returns the signature read from the attached spr file, or
// zero when none is attached.
func (t *Things) AtlasSignature() uint32 {
	if t.atlas == nil {
		return 0
	}
	return t.atlas.Signature()
}

// Item resolves a server ID to the joined item.
func (t *Things) Item(serverID uint16) (*Item, error) {
	if t.items == nil {
		return nil, errors.New("things: no item database attached")
	}
	srv, err := t.items.ItemByServerID(serverID)
	if err != nil {
		return nil, err
	}
	it := &Item{Server: srv, parent: t}
	if t.dataset != nil {
		it.Client = t.dataset.Item(srv.ClientID)
		if it.Client == nil {
			glog.V(1).Infof("server item %d: client id %d not in dataset", serverID, srv.ClientID)
		}
	}
	return it, nil
}

// ItemWithClientID resolves a client ID to the joined item.
func (t *Things) ItemWithClientID(clientID uint16) (*Item, error) {
	if t.items == nil {
		return nil, errors.New("things: no item database attached")
	}
	srv, err := t.items.ItemByClientID(clientID)
	if err != nil {
		return nil, err
	}
	it := &Item{Server: srv, parent: t}
	if t.dataset != nil {
		it.Client = t.dataset.Item(clientID)
	}
	return it, nil
}

// Report is the outcome of Reconcile: the server items whose client side is
// absent, and the ones whose stored sprite hash no longer matches the
// sprites the client actually ships.
type Report struct {
	MissingClient  []uint16
	MismatchedHash []uint16
}

// Clean reports whether the reconciliation found nothing wrong.
func (r *Report) Clean() bool {
	return len(r.MissingClient) == 0 && len(r.MismatchedHash) == 0
}

// Reconcile walks every non-deprecated server item, resolves its client
// appearance and recomputes the sprite hash against the atlas. It needs the
// dataset and the atlas attached.
func (t *Things) Reconcile() (*Report, error) {
	if t.items == nil || t.dataset == nil || t.atlas == nil {
		return nil, errors.New("things: reconcile needs items, dataset and atlas")
	}

	rep := &Report{}
	for i := range t.items.Items {
		srv := &t.items.Items[i]
		if srv.Type == item.TypeDeprecated {
			continue
		}
		cli := t.dataset.Item(srv.ClientID)
		if cli == nil {
			rep.MissingClient = append(rep.MissingClient, srv.ID)
			continue
		}
		digest, err := compositor.SpriteHash(cli, t.atlas)
		if err != nil {
			return nil, errors.Wrapf(err, "hashing client item %d", cli.ID)
		}
		if !bytes.Equal(srv.SpriteHash, digest[:]) {
			rep.MismatchedHash = append(rep.MismatchedHash, srv.ID)
		}
	}
	glog.V(1).Infof("reconcile: %d missing, %d mismatched of %d items",
		len(rep.MissingClient), len(rep.MismatchedHash), len(t.items.Items))
	return rep, nil
}

// RehashItem recomputes and stores the sprite hash for one server item.
func (t *Things) RehashItem(serverID uint16) error {
	it, err := t.Item(serverID)
	if err != nil {
		return err
	}
	if it.Client == nil {
		return errors.Errorf("things: server item %d has no client appearance", serverID)
	}
	digest, err := compositor.SpriteHash(it.Client, t.atlas)
	if err != nil {
		return errors.Wrapf(err, "hashing client item %d", it.Client.ID)
	}
	it.Server.SpriteHash = digest[:]
	return nil
}
