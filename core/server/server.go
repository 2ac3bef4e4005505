// Package server exposes the extraction pipeline as a Connect RPC service.
//
// Messages are plain Go structs carried by a JSON codec, so the service is
// callable with any Connect client or a bare HTTP POST of JSON.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"connectrpc.com/connect"
	"github.com/rs/zerolog"

	"github.com/ankit-chaubey/shotmeta/core"
	"github.com/ankit-chaubey/shotmeta/core/canon"
	"github.com/ankit-chaubey/shotmeta/core/pipeline"
	"github.com/ankit-chaubey/shotmeta/core/source"
)

const ExtractProcedure = "/shotmeta.v1.MetadataService/Extract"

type ExtractRequest struct {
	Name  string `json:"name"`
	Image []byte `json:"image"` // base64 in JSON
}

type ExtractResponse struct {
	RunID    string                       `json:"runId"`
	State    string                       `json:"state"`
	Reason   string                       `json:"reason,omitempty"`
	Format   string                       `json:"format,omitempty"`
	Metadata canon.CanonicalPhotoMetadata `json:"metadata"`
	Missing  []string                     `json:"missing"`
}

// Codec marshals messages with encoding/json. It takes over the "json"
// codec name, which connect otherwise binds to protojson.
type Codec struct{}

func (Codec) Name() string { return "json" }

func (Codec) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

func (Codec) Unmarshal(b []byte, v any) error { return json.Unmarshal(b, v) }

type Server struct {
	maxBytes int64
	log      zerolog.Logger
}

func New(cfg core.Config, log zerolog.Logger) *Server {
	return &Server{maxBytes: cfg.MaxImageBytes, log: log}
}

func (s *Server) Extract(ctx context.Context, req *connect.Request[ExtractRequest]) (*connect.Response[ExtractResponse], error) {
	r := req.Msg
	if len(r.Image) == 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, errors.New("image required"))
	}
	if s.maxBytes > 0 && int64(len(r.Image)) > s.maxBytes {
		return nil, connect.NewError(connect.CodeResourceExhausted,
			fmt.Errorf("image is %d bytes, limit is %d", len(r.Image), s.maxBytes))
	}
	name := r.Name
	if name == "" {
		name = "upload"
	}

	out := pipeline.NewExtractor(source.Bytes(r.Image), s.log).Run(ctx, name)
	missing := out.Missing
	if missing == nil {
		missing = []string{}
	}
	return connect.NewResponse(&ExtractResponse{
		RunID:    out.RunID,
		State:    string(out.State),
		Reason:   string(out.Reason),
		Format:   string(out.Format),
		Metadata: out.Metadata,
		Missing:  missing,
	}), nil
}

// Handler returns the HTTP handler serving the RPC and /health.
func (s *Server) Handler() http.Handler {
	opts := []connect.HandlerOption{connect.WithCodec(Codec{})}
	if s.maxBytes > 0 {
		// Leave room for the base64 expansion of the image.
		opts = append(opts, connect.WithReadMaxBytes(int(s.maxBytes/3*4)+64<<10))
	}
	mux := http.NewServeMux()
	mux.Handle(ExtractProcedure, connect.NewUnaryHandler(ExtractProcedure, s.Extract, opts...))
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	return cors(mux)
}

func cors(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Connect-Protocol-Version")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		h.ServeHTTP(w, r)
	})
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler()}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()
	s.log.Info().Str("addr", addr).Msg("listening")

	select {
	case err := <-errc:
		return err
	case <-ctx.Done():
		s.log.Info().Msg("shutting down")
		return srv.Shutdown(context.Background())
	}
}
