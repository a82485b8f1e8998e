package mediaserver

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derHeinz/dlna-mediacontroller/internal/didl"
	"github.com/derHeinz/dlna-mediacontroller/internal/soap"
)

type firstPicker struct{}

func (firstPicker) Pick(items []didl.Item) didl.Item { return items[0] }

func TestBuildSearchCriteriaIncludesOptionalFilters(t *testing.T) {
	criteria := buildSearchCriteria(Criteria{Title: "Mambo", Artist: "Lou Bega", Kind: "audio"})
	assert.Contains(t, criteria, `derivedfrom "object.item.audioItem"`)
	assert.Contains(t, criteria, `dc:title contains "Mambo"`)
	assert.Contains(t, criteria, `upnp:artist contains "Lou Bega"`)
}

func TestBuildSearchCriteriaUnknownKindFallsBackToAudio(t *testing.T) {
	criteria := buildSearchCriteria(Criteria{Kind: "unknown"})
	assert.Contains(t, criteria, `derivedfrom "object.item.audioItem"`)
}

func TestSearchAndPickNoMatches(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>
			<u:SearchResponse xmlns:u="urn:schemas-upnp-org:service:ContentDirectory:1">
				<Result></Result><NumberReturned>0</NumberReturned><TotalMatches>0</TotalMatches>
			</u:SearchResponse>
		</s:Body></s:Envelope>`))
	}))
	defer srv.Close()

	client := soap.NewClient(2 * time.Second)
	ms := New(client, srv.URL)

	_, ok, err := ms.SearchAndPick(context.Background(), Criteria{Artist: "Nobody"}, firstPicker{})
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSearchAndPickReturnsMatch(t *testing.T) {
	didlDoc := `&lt;DIDL-Lite xmlns:dc=&quot;http://purl.org/dc/elements/1.1/&quot; xmlns:upnp=&quot;urn:schemas-upnp-org:metadata-1-0/upnp/&quot; xmlns=&quot;urn:schemas-upnp-org:metadata-1-0/DIDL-Lite/&quot;&gt;&lt;item id=&quot;1&quot;&gt;&lt;dc:title&gt;Mambo No. 5&lt;/dc:title&gt;&lt;upnp:artist&gt;Lou Bega&lt;/upnp:artist&gt;&lt;res&gt;http://nas/mambo.mp3&lt;/res&gt;&lt;/item&gt;&lt;/DIDL-Lite&gt;`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `<?xml version="1.0"?><s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/"><s:Body>
			<u:SearchResponse xmlns:u="urn:schemas-upnp-org:service:ContentDirectory:1">
				<Result>%s</Result><NumberReturned>1</NumberReturned><TotalMatches>1</TotalMatches>
			</u:SearchResponse>
		</s:Body></s:Envelope>`, didlDoc)
	}))
	defer srv.Close()

	client := soap.NewClient(2 * time.Second)
	ms := New(client, srv.URL)

	item, ok, err := ms.SearchAndPick(context.Background(), Criteria{Artist: "Lou Bega"}, firstPicker{})
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "Mambo No. 5", item.Title)
}
