package server

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"

	"github.com/ankit-chaubey/shotmeta/core"
	"github.com/ankit-chaubey/shotmeta/core/canon"
	"github.com/ankit-chaubey/shotmeta/core/internal/fixture"
)

func newTestServer(t *testing.T, maxBytes int64) *httptest.Server {
	t.Helper()
	s := New(core.Config{MaxImageBytes: maxBytes}, zerolog.Nop())
	srv := httptest.NewServer(s.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func newClient(srv *httptest.Server) *connect.Client[ExtractRequest, ExtractResponse] {
	return connect.NewClient[ExtractRequest, ExtractResponse](
		srv.Client(),
		srv.URL+ExtractProcedure,
		connect.WithCodec(Codec{}),
	)
}

func TestExtract(t *testing.T) {
	client := newClient(newTestServer(t, 1<<20))

	res, err := client.CallUnary(context.Background(), connect.NewRequest(&ExtractRequest{
		Name:  "fuji.jpg",
		Image: fixture.FullFujifilm(fixture.ClassicChromeNote()),
	}))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	got := res.Msg
	if got.State != "success" || got.Reason != "" {
		t.Fatalf("unexpected state %q reason %q", got.State, got.Reason)
	}
	if got.RunID == "" || got.Format != "jpeg" {
		t.Fatalf("unexpected response %+v", got)
	}
	if got.Metadata.FilmSimulation != "Classic Chrome" || got.Metadata.ShutterSpeed != "1/250" {
		t.Fatalf("unexpected metadata %+v", got.Metadata)
	}
}

func TestExtractHardFailure(t *testing.T) {
	client := newClient(newTestServer(t, 1<<20))

	res, err := client.CallUnary(context.Background(), connect.NewRequest(&ExtractRequest{
		Image: fixture.JPEG(nil),
	}))
	if err != nil {
		t.Fatalf("hard failures are normal responses, got %v", err)
	}
	if res.Msg.State != "hard_failure" || res.Msg.Reason != string(core.ReasonNoMetadataSegment) {
		t.Fatalf("unexpected response %+v", res.Msg)
	}
	if res.Msg.Metadata != canon.Fallback() {
		t.Fatalf("expected fallback record, got %+v", res.Msg.Metadata)
	}
}

func TestExtractRejects(t *testing.T) {
	client := newClient(newTestServer(t, 64))

	cases := []struct {
		name  string
		image []byte
		code  connect.Code
	}{
		{"empty", nil, connect.CodeInvalidArgument},
		{"too large", bytes.Repeat([]byte{0xFF}, 65), connect.CodeResourceExhausted},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := client.CallUnary(context.Background(), connect.NewRequest(&ExtractRequest{Image: tc.image}))
			if connect.CodeOf(err) != tc.code {
				t.Fatalf("expected %v, got %v", tc.code, err)
			}
		})
	}
}

func TestExtractPlainJSON(t *testing.T) {
	srv := newTestServer(t, 1<<20)
	body, _ := json.Marshal(map[string]string{
		"name":  "a.jpg",
		"image": base64.StdEncoding.EncodeToString(fixture.ScenarioA()),
	})

	resp, err := srv.Client().Post(srv.URL+ExtractProcedure, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		t.Fatalf("status %d: %s", resp.StatusCode, b)
	}

	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"runId", "state", "metadata", "missing"} {
		if _, ok := out[key]; !ok {
			t.Errorf("response lacks %q", key)
		}
	}
	md, _ := out["metadata"].(map[string]any)
	if md["cameraName"] != "X-T5" || md["iso"] != float64(800) || md["lensName"] != canon.UnknownText {
		t.Errorf("unexpected metadata %v", md)
	}
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, 0)
	resp, err := srv.Client().Get(srv.URL + "/health")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	b, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK || string(b) != "ok" {
		t.Fatalf("unexpected health response %d %q", resp.StatusCode, b)
	}
}
