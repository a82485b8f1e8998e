package renderer

import (
	"context"

	"github.com/derHeinz/dlna-mediacontroller/internal/soap"
)

// SoapPlayer adapts a soap.Client bound to one renderer's AVTransport
// control URL to the integrator.Player interface.
type SoapPlayer struct {
	client     *soap.Client
	controlURL string
}

// NewSoapPlayer builds a SoapPlayer for a renderer's control URL.
func NewSoapPlayer(client *soap.Client, controlURL string) *SoapPlayer {
	return &SoapPlayer{client: client, controlURL: controlURL}
}

func (p *SoapPlayer) SetCurrent(ctx context.Context, url, metadata string) error {
	return p.client.SetAVTransportURI(ctx, p.controlURL, url, metadata)
}

func (p *SoapPlayer) SetNext(ctx context.Context, url, metadata string) error {
	return p.client.SetNextAVTransportURI(ctx, p.controlURL, url, metadata)
}

func (p *SoapPlayer) Play(ctx context.Context) error {
	return p.client.Play(ctx, p.controlURL)
}

func (p *SoapPlayer) Pause(ctx context.Context) error {
	return p.client.Pause(ctx, p.controlURL)
}

func (p *SoapPlayer) Stop(ctx context.Context) error {
	return p.client.Stop(ctx, p.controlURL)
}

func (p *SoapPlayer) TransportState(ctx context.Context) (soap.TransportInfo, error) {
	return p.client.GetTransportInfo(ctx, p.controlURL)
}

func (p *SoapPlayer) PositionInfo(ctx context.Context) (soap.PositionInfo, error) {
	return p.client.GetPositionInfo(ctx, p.controlURL)
}
