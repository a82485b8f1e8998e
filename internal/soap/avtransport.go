package soap

import (
	"context"
	"encoding/xml"
	"fmt"
)

// TransportState mirrors the AVTransport:1 CurrentTransportState values this
// controller distinguishes between.
type TransportState string

const (
	TransportStopped           TransportState = "STOPPED"
	TransportPlaying           TransportState = "PLAYING"
	TransportTransitioning     TransportState = "TRANSITIONING"
	TransportPausedPlayback    TransportState = "PAUSED_PLAYBACK"
	TransportNoMediaPresent    TransportState = "NO_MEDIA_PRESENT"
)

// TransportInfo is the parsed result of GetTransportInfo.
type TransportInfo struct {
	CurrentTransportState TransportState
	CurrentTransportStatus string
	CurrentSpeed           string
}

// PositionInfo is the parsed result of GetPositionInfo. Track is the
// UPnP-standard integer position indicator used as the progress counter;
// see DESIGN.md for why this replaces the non-existent "RelCount" field the
// original source attempted to read.
type PositionInfo struct {
	Track         int
	TrackDuration string
	TrackMetaData string
	TrackURI      string
	RelTime       string
	AbsTime       string
}

// MediaInfo is the parsed result of GetMediaInfo.
type MediaInfo struct {
	NrTracks       int
	CurrentURI     string
	CurrentURIMetaData string
	NextURI        string
	NextURIMetaData string
}

const setAVTransportURIBody = `<u:SetAVTransportURI xmlns:u="urn:schemas-upnp-org:service:AVTransport:1"><InstanceID>0</InstanceID><CurrentURI>%s</CurrentURI><CurrentURIMetaData>%s</CurrentURIMetaData></u:SetAVTransportURI>`

const setNextAVTransportURIBody = `<u:SetNextAVTransportURI xmlns:u="urn:schemas-upnp-org:service:AVTransport:1"><InstanceID>0</InstanceID><NextURI>%s</NextURI><NextURIMetaData>%s</NextURIMetaData></u:SetNextAVTransportURI>`

const playBody = `<u:Play xmlns:u="urn:schemas-upnp-org:service:AVTransport:1"><InstanceID>0</InstanceID><Speed>1</Speed></u:Play>`

const pauseBody = `<u:Pause xmlns:u="urn:schemas-upnp-org:service:AVTransport:1"><InstanceID>0</InstanceID></u:Pause>`

const stopBody = `<u:Stop xmlns:u="urn:schemas-upnp-org:service:AVTransport:1"><InstanceID>0</InstanceID></u:Stop>`

const getTransportInfoBody = `<u:GetTransportInfo xmlns:u="urn:schemas-upnp-org:service:AVTransport:1"><InstanceID>0</InstanceID></u:GetTransportInfo>`

const getPositionInfoBody = `<u:GetPositionInfo xmlns:u="urn:schemas-upnp-org:service:AVTransport:1"><InstanceID>0</InstanceID></u:GetPositionInfo>`

const getMediaInfoBody = `<u:GetMediaInfo xmlns:u="urn:schemas-upnp-org:service:AVTransport:1"><InstanceID>0</InstanceID></u:GetMediaInfo>`

// SetAVTransportURI sets the current track and its metadata.
func (c *Client) SetAVTransportURI(ctx context.Context, controlURL, uri, metadata string) error {
	body := fmt.Sprintf(setAVTransportURIBody, Escape(uri), Escape(metadata))
	_, err := c.invoke(ctx, controlURL, "AVTransport", "SetAVTransportURI", body)
	return err
}

// SetNextAVTransportURI queues the next track for gapless transition.
func (c *Client) SetNextAVTransportURI(ctx context.Context, controlURL, uri, metadata string) error {
	body := fmt.Sprintf(setNextAVTransportURIBody, Escape(uri), Escape(metadata))
	_, err := c.invoke(ctx, controlURL, "AVTransport", "SetNextAVTransportURI", body)
	return err
}

// Play starts playback of the current transport URI.
func (c *Client) Play(ctx context.Context, controlURL string) error {
	_, err := c.invoke(ctx, controlURL, "AVTransport", "Play", playBody)
	return err
}

// Pause pauses playback.
func (c *Client) Pause(ctx context.Context, controlURL string) error {
	_, err := c.invoke(ctx, controlURL, "AVTransport", "Pause", pauseBody)
	return err
}

// Stop stops playback.
func (c *Client) Stop(ctx context.Context, controlURL string) error {
	_, err := c.invoke(ctx, controlURL, "AVTransport", "Stop", stopBody)
	return err
}

// GetTransportInfo reads the renderer's current transport state.
func (c *Client) GetTransportInfo(ctx context.Context, controlURL string) (TransportInfo, error) {
	raw, err := c.invoke(ctx, controlURL, "AVTransport", "GetTransportInfo", getTransportInfoBody)
	if err != nil {
		return TransportInfo{}, err
	}
	var resp struct {
		CurrentTransportState  string `xml:"GetTransportInfoResponse>CurrentTransportState"`
		CurrentTransportStatus string `xml:"GetTransportInfoResponse>CurrentTransportStatus"`
		CurrentSpeed           string `xml:"GetTransportInfoResponse>CurrentSpeed"`
	}
	if err := xml.Unmarshal(wrapBody(raw), &resp); err != nil {
		return TransportInfo{}, fmt.Errorf("decode transport info: %w", err)
	}
	return TransportInfo{
		CurrentTransportState:  TransportState(resp.CurrentTransportState),
		CurrentTransportStatus: resp.CurrentTransportStatus,
		CurrentSpeed:           resp.CurrentSpeed,
	}, nil
}

// GetPositionInfo reads the renderer's current playback position.
func (c *Client) GetPositionInfo(ctx context.Context, controlURL string) (PositionInfo, error) {
	raw, err := c.invoke(ctx, controlURL, "AVTransport", "GetPositionInfo", getPositionInfoBody)
	if err != nil {
		return PositionInfo{}, err
	}
	var resp struct {
		Track         int    `xml:"GetPositionInfoResponse>Track"`
		TrackDuration string `xml:"GetPositionInfoResponse>TrackDuration"`
		TrackMetaData string `xml:"GetPositionInfoResponse>TrackMetaData"`
		TrackURI      string `xml:"GetPositionInfoResponse>TrackURI"`
		RelTime       string `xml:"GetPositionInfoResponse>RelTime"`
		AbsTime       string `xml:"GetPositionInfoResponse>AbsTime"`
	}
	if err := xml.Unmarshal(wrapBody(raw), &resp); err != nil {
		return PositionInfo{}, fmt.Errorf("decode position info: %w", err)
	}
	return PositionInfo{
		Track:         resp.Track,
		TrackDuration: resp.TrackDuration,
		TrackMetaData: resp.TrackMetaData,
		TrackURI:      resp.TrackURI,
		RelTime:       resp.RelTime,
		AbsTime:       resp.AbsTime,
	}, nil
}

// GetMediaInfo reads the renderer's current media assignment.
func (c *Client) GetMediaInfo(ctx context.Context, controlURL string) (MediaInfo, error) {
	raw, err := c.invoke(ctx, controlURL, "AVTransport", "GetMediaInfo", getMediaInfoBody)
	if err != nil {
		return MediaInfo{}, err
	}
	var resp struct {
		NrTracks           int    `xml:"GetMediaInfoResponse>NrTracks"`
		CurrentURI         string `xml:"GetMediaInfoResponse>CurrentURI"`
		CurrentURIMetaData string `xml:"GetMediaInfoResponse>CurrentURIMetaData"`
		NextURI            string `xml:"GetMediaInfoResponse>NextURI"`
		NextURIMetaData    string `xml:"GetMediaInfoResponse>NextURIMetaData"`
	}
	if err := xml.Unmarshal(wrapBody(raw), &resp); err != nil {
		return MediaInfo{}, fmt.Errorf("decode media info: %w", err)
	}
	return MediaInfo{
		NrTracks:           resp.NrTracks,
		CurrentURI:         resp.CurrentURI,
		CurrentURIMetaData: resp.CurrentURIMetaData,
		NextURI:            resp.NextURI,
		NextURIMetaData:    resp.NextURIMetaData,
	}, nil
}

// wrapBody re-wraps the raw inner-body bytes captured from the envelope so
// the action-specific response struct can be decoded from it directly.
func wrapBody(raw []byte) []byte {
	wrapped := append([]byte("<body>"), raw...)
	return append(wrapped, []byte("</body>")...)
}
