package itemsotb

import (
	"encoding/xml"
	"io"

	"github.com/golang/glog"
)

// items.xml carries editor-facing metadata the binary database lacks; names
// in it are kept verbatim next to the OTB name.

type xmlItems struct {
	Item []*xmlItem `xml:"item"`
}

type xmlItem struct {
	ID        uint16         `xml:"id,attr,omitempty"`
	Name      string         `xml:"name,attr,omitempty"`
	Article   string         `xml:"article,attr,omitempty"`
	Attribute []xmlAttribute `xml:"attribute,omitempty"`

	Attributes map[string][]string `xml:"-,omitempty"`
}

type xmlAttribute struct {
	Key   string `xml:"key,attr"`
	Value string `xml:"value,attr"`
}

// AddXMLInfo overlays items.xml metadata onto already decoded items, matching
// by server ID. Entries for IDs the database does not carry are logged and
// skipped; fluid description pseudo-items (20000 and up) are skipped outright.
func (items *Items) AddXMLInfo(r io.Reader) error {
	dec := xml.NewDecoder(r)
	parsed := xmlItems{}
	if err := dec.Decode(&parsed); err != nil {
		return err
	}
	for _, x := range parsed.Item {
		if x.ID >= 20000 {
			continue
		}

		x.Attributes = make(map[string][]string)
		for _, attr := range x.Attribute {
			x.Attributes[attr.Key] = append(x.Attributes[attr.Key], attr.Value)
		}

		it, err := items.ItemByServerID(x.ID)
		if err != nil {
			glog.Warningf("items.xml entry %d has no otb item, skipping", x.ID)
			continue
		}
		it.xml = x
	}
	return nil
}

// Description returns the first XML-supplied description, if any.
func (it *ServerItem) Description() string {
	if it.xml != nil && len(it.xml.Attributes["description"]) > 0 {
		return it.xml.Attributes["description"][0]
	}
	return ""
}
