// Package ssdp discovers UPnP MediaRenderer devices on the local network
// via SSDP M-SEARCH and resolves their AVTransport control URL from the
// device description document.
package ssdp

import (
	"context"
	"encoding/xml"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// MediaRendererSearchTarget is the SSDP search target for UPnP
// MediaRenderer devices, replacing the teacher's Sonos-specific
// ZonePlayer search target (see DESIGN.md).
const MediaRendererSearchTarget = "urn:schemas-upnp-org:device:MediaRenderer:1"

const ssdpAddr = "239.255.255.250:1900"

// Discovered is a single device that answered an M-SEARCH probe.
type Discovered struct {
	Location string
	USN      string
	Server   string
}

// Discover sends an SSDP M-SEARCH for MediaRenderer devices and collects
// responses for the given duration (or until ctx is done, whichever comes
// first), deduplicated by Location URL.
func Discover(ctx context.Context, searchTarget string, timeout time.Duration) ([]Discovered, error) {
	conn, err := net.ListenPacket("udp4", ":0")
	if err != nil {
		return nil, fmt.Errorf("ssdp listen: %w", err)
	}
	defer conn.Close()

	addr, err := net.ResolveUDPAddr("udp4", ssdpAddr)
	if err != nil {
		return nil, fmt.Errorf("resolve ssdp multicast addr: %w", err)
	}

	request := "M-SEARCH * HTTP/1.1\r\n" +
		"HOST: " + ssdpAddr + "\r\n" +
		"MAN: \"ssdp:discover\"\r\n" +
		"MX: 3\r\n" +
		"ST: " + searchTarget + "\r\n\r\n"

	if _, err := conn.WriteTo([]byte(request), addr); err != nil {
		return nil, fmt.Errorf("ssdp send: %w", err)
	}

	deadline := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(deadline) {
		deadline = ctxDeadline
	}
	if err := conn.SetReadDeadline(deadline); err != nil {
		return nil, fmt.Errorf("set read deadline: %w", err)
	}

	seen := make(map[string]Discovered)
	buf := make([]byte, 4096)
	for {
		n, _, err := conn.ReadFrom(buf)
		if err != nil {
			break // deadline exceeded or socket closed: discovery window is over
		}
		d := parseResponse(string(buf[:n]))
		if d.Location == "" {
			continue
		}
		seen[d.Location] = d
	}

	results := make([]Discovered, 0, len(seen))
	for _, d := range seen {
		results = append(results, d)
	}
	return results, nil
}

func parseResponse(raw string) Discovered {
	var d Discovered
	for _, line := range strings.Split(raw, "\r\n") {
		parts := strings.SplitN(line, ":", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.ToUpper(strings.TrimSpace(parts[0]))
		value := strings.TrimSpace(parts[1])
		switch key {
		case "LOCATION":
			d.Location = value
		case "USN":
			d.USN = value
		case "SERVER":
			d.Server = value
		}
	}
	return d
}

// DeviceDescription is the subset of a UPnP device description document
// this controller cares about: its friendly name and the control URLs of
// its AVTransport and ConnectionManager services.
type DeviceDescription struct {
	FriendlyName            string
	AVTransportControlURL   string
	ConnectionManagerControlURL string
}

type descriptionDoc struct {
	Device struct {
		FriendlyName string `xml:"friendlyName"`
		ServiceList  struct {
			Services []struct {
				ServiceType string `xml:"serviceType"`
				ControlURL  string `xml:"controlURL"`
			} `xml:"service"`
		} `xml:"serviceList"`
	} `xml:"device"`
}

// ProbeDevice fetches and parses a device description document, resolving
// relative control URLs against the description's own location.
func ProbeDevice(ctx context.Context, location string) (DeviceDescription, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return DeviceDescription{}, fmt.Errorf("build device description request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return DeviceDescription{}, fmt.Errorf("fetch device description: %w", err)
	}
	defer resp.Body.Close()

	var doc descriptionDoc
	if err := xml.NewDecoder(resp.Body).Decode(&doc); err != nil {
		return DeviceDescription{}, fmt.Errorf("parse device description: %w", err)
	}

	desc := DeviceDescription{FriendlyName: doc.Device.FriendlyName}
	for _, svc := range doc.Device.ServiceList.Services {
		url, err := resolveURL(location, svc.ControlURL)
		if err != nil {
			continue
		}
		switch {
		case strings.Contains(svc.ServiceType, ":AVTransport:"):
			desc.AVTransportControlURL = url
		case strings.Contains(svc.ServiceType, ":ConnectionManager:"):
			desc.ConnectionManagerControlURL = url
		}
	}
	return desc, nil
}

func resolveURL(base, ref string) (string, error) {
	baseURL, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url %q: %w", base, err)
	}
	refURL, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("parse control url %q: %w", ref, err)
	}
	return baseURL.ResolveReference(refURL).String(), nil
}
