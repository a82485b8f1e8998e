package didl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseItems(t *testing.T) {
	doc := `<DIDL-Lite xmlns:dc="http://purl.org/dc/elements/1.1/" xmlns:upnp="urn:schemas-upnp-org:metadata-1-0/upnp/" xmlns="urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/">
		<item id="1" parentID="-1" restricted="1">
			<dc:title>Mambo No. 5</dc:title>
			<upnp:artist>Lou Bega</upnp:artist>
			<upnp:class>object.item.audioItem.musicTrack</upnp:class>
			<res protocolInfo="http-get:*:audio/mpeg:*">http://nas/music/mambo.mp3</res>
		</item>
	</DIDL-Lite>`

	items, err := ParseItems(doc)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "1", items[0].ID)
	assert.Equal(t, "http://nas/music/mambo.mp3", items[0].URL)
}

func TestParseItemsMalformed(t *testing.T) {
	_, err := ParseItems("<not-xml")
	assert.Error(t, err)
}

func TestTransliterate(t *testing.T) {
	assert.Equal(t, "Kaese und Bluemchen, Strasse", Transliterate("Käse und Blümchen, Straße"))
	assert.Equal(t, "ASCII only", Transliterate("ASCII only"))
}

func TestBuildMetadataOmitsEmptyFields(t *testing.T) {
	meta := BuildMetadata("Söhne", "", "", "", "", "", "")
	assert.Contains(t, meta, "<dc:title>Soehne</dc:title>")
	assert.NotContains(t, meta, "dc:creator")
	assert.Contains(t, meta, "object.item.audioItem.musicTrack")
}

func TestBuildMetadataEscapesAmpersand(t *testing.T) {
	meta := BuildMetadata("Rock & Roll", "AC/DC", "", "", "", "", "")
	assert.Contains(t, meta, "Rock &amp; Roll")
}

func TestStripResNamespace(t *testing.T) {
	in := `<ns0:res xmlns:ns0="urn:foo" protocolInfo="http-get:*:audio/mpeg:*">http://x/y.mp3</ns0:res>`
	out := StripResNamespace(in)
	assert.True(t, strings.HasPrefix(out, "<res "))
	assert.Contains(t, out, "</res>")
	assert.NotContains(t, out, "ns0")
}

func TestStripResNamespaceNoPrefix(t *testing.T) {
	in := `<res protocolInfo="http-get:*:audio/mpeg:*">http://x/y.mp3</res>`
	assert.Equal(t, in, StripResNamespace(in))
}
