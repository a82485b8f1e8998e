// Package didl builds and parses DIDL-Lite media item fragments as used by
// UPnP ContentDirectory search responses and AVTransport metadata.
package didl

import (
	"encoding/xml"
	"strings"
)

// Item is a single DIDL-Lite object.item entry returned by a ContentDirectory
// search, or constructed for embedding in an AVTransport SetAVTransportURI /
// SetNextAVTransportURI call.
type Item struct {
	ID     string
	Title  string
	Artist string
	Actor  string
	Author string
	Creator string
	Class  string
	URL    string
	// ResXML, when set, is a serialized <res> element that BuildMetadata
	// embeds verbatim (after StripResNamespace), so that protocolInfo and
	// any renderer-specific attributes survive untouched. ParseItems does
	// not fill it: items parsed from a search result have an empty ResXML,
	// and metadata built from them carries no <res> element.
	ResXML string
}

// rawItem mirrors the wire shape of a DIDL-Lite <item> element closely
// enough for decoding/encoding without needing a full DIDL-Lite schema.
type rawItem struct {
	XMLName xml.Name   `xml:"item"`
	ID      string     `xml:"id,attr"`
	Title   string     `xml:"title"`
	Artist  string     `xml:"artist"`
	Actor   string     `xml:"actor"`
	Author  string     `xml:"author"`
	Creator string     `xml:"creator"`
	Class   string     `xml:"class"`
	Res     rawRes     `xml:"res"`
}

type rawRes struct {
	ProtocolInfo string `xml:"protocolInfo,attr"`
	Value        string `xml:",chardata"`
}

// didlDoc is the wrapper namespace document used both when parsing a
// ContentDirectory Search response's escaped Result string and when
// building outgoing SetAVTransportURI metadata.
type didlDoc struct {
	XMLName xml.Name `xml:"DIDL-Lite"`
	NSDC    string   `xml:"xmlns:dc,attr"`
	NSUPnP  string   `xml:"xmlns:upnp,attr"`
	NSDIDL  string   `xml:"xmlns,attr"`
	Items   []rawItem `xml:"item"`
}

const (
	nsDC   = "http://purl.org/dc/elements/1.1/"
	nsUPnP = "urn:schemas-upnp-org:metadata-1-0/upnp/"
	nsDIDL = "urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/"
)

// ParseItems decodes a DIDL-Lite document (the unescaped Result payload of a
// ContentDirectory Search response) into a slice of Item values.
func ParseItems(didlXML string) ([]Item, error) {
	var doc didlDoc
	if err := xml.Unmarshal([]byte(didlXML), &doc); err != nil {
		return nil, err
	}
	items := make([]Item, 0, len(doc.Items))
	for _, ri := range doc.Items {
		items = append(items, Item{
			ID:      ri.ID,
			Title:   ri.Title,
			Artist:  ri.Artist,
			Actor:   ri.Actor,
			Author:  ri.Author,
			Creator: ri.Creator,
			Class:   ri.Class,
			URL:     strings.TrimSpace(ri.Res.Value),
		})
	}
	return items, nil
}
