package soap

import (
	"context"
	"encoding/xml"
	"fmt"
)

// SearchResult is the raw parsed result of a ContentDirectory Search call.
// Result is the DIDL-Lite document containing the matched items, already
// unescaped by the XML decoder, and is parsed separately by
// internal/mediaserver.
type SearchResult struct {
	Result         string
	NumberReturned int
	TotalMatches   int
}

// DefaultRequestedCount is the RequestedCount sent to ContentDirectory
// Search when the caller doesn't configure one.
const DefaultRequestedCount = 200

const searchBody = `<u:Search xmlns:u="urn:schemas-upnp-org:service:ContentDirectory:1"><ContainerID>0</ContainerID><SearchCriteria>%s</SearchCriteria><Filter>*</Filter><StartingIndex>0</StartingIndex><RequestedCount>%d</RequestedCount><SortCriteria>+upnp:artist,+upnp:album,+dc:title</SortCriteria></u:Search>`

// Search issues a ContentDirectory Search against the media server's
// control URL with the given SearchCriteria expression. requestedCount
// caps how many matches the server returns in one page; callers should
// pass DefaultRequestedCount unless configured otherwise.
func (c *Client) Search(ctx context.Context, controlURL, criteria string, requestedCount int) (SearchResult, error) {
	if requestedCount <= 0 {
		requestedCount = DefaultRequestedCount
	}
	body := fmt.Sprintf(searchBody, Escape(criteria), requestedCount)
	raw, err := c.invoke(ctx, controlURL, "ContentDirectory", "Search", body)
	if err != nil {
		return SearchResult{}, err
	}

	var resp struct {
		Result         string `xml:"SearchResponse>Result"`
		NumberReturned int    `xml:"SearchResponse>NumberReturned"`
		TotalMatches   int    `xml:"SearchResponse>TotalMatches"`
	}
	if err := xml.Unmarshal(wrapBody(raw), &resp); err != nil {
		return SearchResult{}, fmt.Errorf("decode search response: %w", err)
	}
	return SearchResult{
		Result:         resp.Result,
		NumberReturned: resp.NumberReturned,
		TotalMatches:   resp.TotalMatches,
	}, nil
}

// GetProtocolInfo queries a renderer's ConnectionManager service for the
// set of sink protocol infos, used to detect audio/video/image capability.
func (c *Client) GetProtocolInfo(ctx context.Context, controlURL string) (sink string, err error) {
	const body = `<u:GetProtocolInfo xmlns:u="urn:schemas-upnp-org:service:ConnectionManager:1"></u:GetProtocolInfo>`
	raw, err := c.invoke(ctx, controlURL, "ConnectionManager", "GetProtocolInfo", body)
	if err != nil {
		return "", err
	}
	var resp struct {
		Sink string `xml:"GetProtocolInfoResponse>Sink"`
	}
	if err := xml.Unmarshal(wrapBody(raw), &resp); err != nil {
		return "", fmt.Errorf("decode protocol info: %w", err)
	}
	return resp.Sink, nil
}
