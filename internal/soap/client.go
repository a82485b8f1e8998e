// Package soap implements a minimal AVTransport:1 and ContentDirectory:1
// client over UPnP SOAP, generalized to an arbitrary renderer control URL
// rather than a fixed device family.
package soap

import (
	"bytes"
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client issues SOAP requests against a renderer or media server's control
// URL. It carries no device identity of its own; callers pass the control
// URL on every call, since a single process may talk to many renderers.
type Client struct {
	httpClient *http.Client
}

// NewClient builds a Client with the given per-request timeout.
func NewClient(timeout time.Duration) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
	}
}

const envelopeTemplate = `<?xml version="1.0"?>
<s:Envelope xmlns:s="http://schemas.xmlsoap.org/soap/envelope/" s:encodingStyle="http://schemas.xmlsoap.org/soap/encoding/">
<s:Body>
%s
</s:Body>
</s:Envelope>`

// Fault represents a SOAP UPnPError fault response.
type Fault struct {
	ErrorCode        int
	ErrorDescription string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("upnp fault %d: %s", f.ErrorCode, f.ErrorDescription)
}

type envelope struct {
	Body struct {
		Fault *struct {
			Detail struct {
				UPnPError struct {
					ErrorCode        int    `xml:"errorCode"`
					ErrorDescription string `xml:"errorDescription"`
				} `xml:"UPnPError"`
			} `xml:"detail"`
		} `xml:"Fault"`
		Raw []byte `xml:",innerxml"`
	} `xml:"Body"`
}

// Escape performs the minimal XML text escaping SOAP action bodies need for
// their argument values (&, <, >).
func Escape(s string) string {
	s = strings.ReplaceAll(s, "&", "&amp;")
	s = strings.ReplaceAll(s, "<", "&lt;")
	s = strings.ReplaceAll(s, ">", "&gt;")
	return s
}

// invoke sends a single SOAP action against controlURL and returns the raw
// inner XML of the response body (or a *Fault error on a SOAP fault). The
// caller's ctx bounds the request; combined with the Client's own
// timeout, whichever deadline is tighter wins.
func (c *Client) invoke(ctx context.Context, controlURL, serviceType, action, body string) ([]byte, error) {
	envelopeBody := fmt.Sprintf(envelopeTemplate, body)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, controlURL, bytes.NewBufferString(envelopeBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", `text/xml; charset="utf-8"`)
	req.Header.Set("SOAPACTION", fmt.Sprintf(`"urn:schemas-upnp-org:service:%s:1#%s"`, serviceType, action))
	req.Header.Set("User-Agent", "dlna-mediacontroller/1.0 UPnP/1.0")
	req.Close = true // sends Connection: close

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var env envelope
	if err := xml.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode soap envelope: %w", err)
	}
	if env.Body.Fault != nil {
		return nil, &Fault{
			ErrorCode:        env.Body.Fault.Detail.UPnPError.ErrorCode,
			ErrorDescription: env.Body.Fault.Detail.UPnPError.ErrorDescription,
		}
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("soap request failed: http %d", resp.StatusCode)
	}
	return env.Body.Raw, nil
}
