package addressbook

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/arnac-io/tokensweep/pkg/core"
)

const (
	usdc    = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	bonk    = "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263"
	unknown = "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R"
)

func TestBook_GetMetadata(t *testing.T) {
	var listCalls, assetCalls int32
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	defer srv.Close()

	mux.HandleFunc("/tokens", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&listCalls, 1)
		w.Write([]byte(`[
			{"address":"` + usdc + `","name":"USD Coin","symbol":"USDC","logoURI":"https://img/usdc.png"},
			{"address":"` + bonk + `","name":"Bonk","symbol":"Bonk"}
		]`))
	})
	mux.HandleFunc("/das", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&assetCalls, 1)
		var req struct {
			Method string            `json:"method"`
			Params map[string]string `json:"params"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, "getAsset", req.Method)
		switch req.Params["id"] {
		case bonk:
			w.Write([]byte(`{"result":{"content":{"json_uri":"` + srv.URL + `/bonk.json","metadata":{"name":"Bonk Inu","symbol":"BONK"}}}}`))
		default:
			w.Write([]byte(`{"error":{"code":-32000,"message":"not found"}}`))
		}
	})
	mux.HandleFunc("/bonk.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"name":"ignored","image":"https://img/bonk.png"}`))
	})

	book := NewAddressBook(zap.NewNop(), srv.URL+"/tokens", srv.URL+"/das")
	metadata := book.GetMetadata(context.Background(), []string{usdc, bonk, unknown, usdc})

	require.Equal(t, map[string]core.AssetMetadata{
		usdc:    {Mint: usdc, Name: "USD Coin", Symbol: "USDC", Image: "https://img/usdc.png"},
		bonk:    {Mint: bonk, Name: "Bonk", Symbol: "Bonk", Image: "https://img/bonk.png"},
		unknown: {Mint: unknown},
	}, metadata)
	require.Equal(t, int32(1), listCalls)
	require.Equal(t, int32(2), assetCalls)

	// the token list and found assets are cached, the unknown mint is looked up again.
	book.GetMetadata(context.Background(), []string{usdc, bonk, unknown})
	require.Equal(t, int32(1), listCalls)
	require.Equal(t, int32(3), assetCalls)
}

func TestBook_GetMetadata_sourcesDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	book := NewAddressBook(zap.NewNop(), srv.URL, srv.URL)
	metadata := book.GetMetadata(context.Background(), []string{usdc})
	require.Equal(t, map[string]core.AssetMetadata{usdc: {Mint: usdc}}, metadata)
}

func TestBook_GetMetadata_withoutDAS(t *testing.T) {
	book := NewAddressBook(zap.NewNop(), "", "")
	metadata := book.GetMetadata(context.Background(), []string{usdc})
	require.Equal(t, map[string]core.AssetMetadata{usdc: {Mint: usdc}}, metadata)
}

func TestBook_GetMetadata_tokenListDownloadedOnce(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "list served", status: http.StatusOK},
		{name: "list down", status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var listCalls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&listCalls, 1)
				w.WriteHeader(tt.status)
				w.Write([]byte(`[{"address":"` + usdc + `","name":"USD Coin","symbol":"USDC","logoURI":"https://img/usdc.png"}]`))
			}))
			defer srv.Close()
			book := NewAddressBook(zap.NewNop(), srv.URL, "", WithRetryAfter(time.Minute))

			var wg sync.WaitGroup
			for i := 0; i < 8; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					book.GetMetadata(context.Background(), []string{usdc})
				}()
			}
			wg.Wait()
			book.GetMetadata(context.Background(), []string{usdc})
			require.Equal(t, int32(1), atomic.LoadInt32(&listCalls))
		})
	}
}

func TestBook_GetMetadata_tokenListRetried(t *testing.T) {
	var listCalls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&listCalls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()
	book := NewAddressBook(zap.NewNop(), srv.URL, "", WithRetryAfter(0))

	book.GetMetadata(context.Background(), []string{usdc})
	metadata := book.GetMetadata(context.Background(), []string{usdc})
	require.Equal(t, map[string]core.AssetMetadata{usdc: {Mint: usdc}}, metadata)
	require.Equal(t, int32(2), atomic.LoadInt32(&listCalls))
}

func Test_mergeMetadata(t *testing.T) {
	tests := []struct {
		name    string
		current core.AssetMetadata
		found   core.AssetMetadata
		want    core.AssetMetadata
	}{
		{
			name:    "fills gaps",
			current: core.AssetMetadata{Mint: usdc, Name: "USD Coin"},
			found:   core.AssetMetadata{Mint: usdc, Name: "USDC", Symbol: "USDC", Image: "img"},
			want:    core.AssetMetadata{Mint: usdc, Name: "USD Coin", Symbol: "USDC", Image: "img"},
		},
		{
			name:    "nothing found",
			current: core.AssetMetadata{Mint: usdc},
			found:   core.AssetMetadata{Mint: usdc},
			want:    core.AssetMetadata{Mint: usdc},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, mergeMetadata(tt.current, tt.found))
		})
	}
}
