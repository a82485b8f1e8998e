package wake

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEnsureOnlineReturnsTrueWhenAlreadyReachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	assert.True(t, EnsureOnline(context.Background(), srv.URL, ""))
}

func TestEnsureOnlineHTTPErrorStillCountsAsOnline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	assert.True(t, EnsureOnline(context.Background(), srv.URL, ""))
}

func TestEnsureOnlineUnreachableWithNoMACFailsFast(t *testing.T) {
	assert.False(t, EnsureOnline(context.Background(), "http://127.0.0.1:1", ""))
}

func TestSendMagicPacketRejectsInvalidMAC(t *testing.T) {
	err := sendMagicPacket("not-a-mac")
	assert.Error(t, err)
}
