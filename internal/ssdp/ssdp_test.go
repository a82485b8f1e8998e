package ssdp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseResponseExtractsHeaders(t *testing.T) {
	raw := "HTTP/1.1 200 OK\r\n" +
		"LOCATION: http://192.168.1.20:1400/description.xml\r\n" +
		"USN: uuid:abc::urn:schemas-upnp-org:device:MediaRenderer:1\r\n" +
		"SERVER: Linux/3.0 UPnP/1.0 MyRenderer/1.0\r\n\r\n"

	d := parseResponse(raw)
	assert.Equal(t, "http://192.168.1.20:1400/description.xml", d.Location)
	assert.Contains(t, d.USN, "MediaRenderer")
	assert.Contains(t, d.Server, "MyRenderer")
}

func TestParseResponseIgnoresMalformedLines(t *testing.T) {
	d := parseResponse("not a header line\r\n\r\n")
	assert.Empty(t, d.Location)
}

func TestResolveURLAbsolute(t *testing.T) {
	out, err := resolveURL("http://192.168.1.20:1400/description.xml", "http://elsewhere/ctrl")
	require.NoError(t, err)
	assert.Equal(t, "http://elsewhere/ctrl", out)
}

func TestResolveURLRelative(t *testing.T) {
	out, err := resolveURL("http://192.168.1.20:1400/description.xml", "/MediaRenderer/AVTransport/Control")
	require.NoError(t, err)
	assert.Equal(t, "http://192.168.1.20:1400/MediaRenderer/AVTransport/Control", out)
}

func TestProbeDeviceResolvesControlURLs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`<?xml version="1.0"?>
		<root xmlns="urn:schemas-upnp-org:device-1-0">
			<device>
				<friendlyName>Living Room</friendlyName>
				<serviceList>
					<service>
						<serviceType>urn:schemas-upnp-org:service:AVTransport:1</serviceType>
						<controlURL>/MediaRenderer/AVTransport/Control</controlURL>
					</service>
					<service>
						<serviceType>urn:schemas-upnp-org:service:ConnectionManager:1</serviceType>
						<controlURL>/MediaRenderer/ConnectionManager/Control</controlURL>
					</service>
				</serviceList>
			</device>
		</root>`))
	}))
	defer srv.Close()

	desc, err := ProbeDevice(context.Background(), srv.URL+"/description.xml")
	require.NoError(t, err)
	assert.Equal(t, "Living Room", desc.FriendlyName)
	assert.Equal(t, srv.URL+"/MediaRenderer/AVTransport/Control", desc.AVTransportControlURL)
	assert.Equal(t, srv.URL+"/MediaRenderer/ConnectionManager/Control", desc.ConnectionManagerControlURL)
}
