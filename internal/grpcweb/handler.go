package grpcweb

import (
	"encoding/binary"
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"appointment-scheduler/internal/middleware"
	"appointment-scheduler/internal/rpc"
)

// maxBody caps a single unary request so a browser can't make us buffer
// arbitrary amounts.
const maxBody = 4 << 20

// Bridge translates gRPC-Web (browser HTTP/1.1) to native gRPC.
type Bridge struct {
	conn   *grpc.ClientConn
	logger *zap.Logger
}

// New dials the gRPC server at addr (e.g. "localhost:50051"). Extra dial
// options are appended after the insecure transport credentials.
func New(addr string, logger *zap.Logger, opts ...grpc.DialOption) (*Bridge, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	conn, err := grpc.NewClient(addr, opts...)
	if err != nil {
		return nil, fmt.Errorf("grpcweb dial: %w", err)
	}
	return &Bridge{conn: conn, logger: logger.Named("grpcweb")}, nil
}

func (b *Bridge) Close() error { return b.conn.Close() }

// Handler returns an http.Handler that translates gRPC-Web to gRPC.
func (b *Bridge) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers",
			"Content-Type, X-Grpc-Web, X-User-Agent, Authorization, x-grpc-web, "+middleware.CalendarTokenHeader)
		w.Header().Set("Access-Control-Expose-Headers",
			"Grpc-Status, Grpc-Message, Grpc-Status-Details-Bin, grpc-status, grpc-message")
		w.Header().Set("Access-Control-Max-Age", "86400")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		if !binaryContentType(r.Header.Get("Content-Type")) {
			http.Error(w, "not grpc-web", http.StatusUnsupportedMediaType)
			return
		}
		if !strings.HasPrefix(r.URL.Path, "/"+rpc.ServiceName+"/") {
			writeError(w, codes.Unimplemented, "unknown service")
			return
		}

		b.forward(w, r)
	})
}

// binaryContentType reports whether ct is a binary grpc-web body. Text mode
// (base64 bodies) is not supported.
func binaryContentType(ct string) bool {
	ct, _, _ = strings.Cut(ct, ";")
	switch strings.TrimSpace(strings.ToLower(ct)) {
	case "application/grpc-web", "application/grpc-web+proto":
		return true
	}
	return false
}

func (b *Bridge) forward(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBody))
	if err != nil {
		writeError(w, codes.Internal, "read body failed")
		return
	}
	payload, err := unframe(body)
	if err != nil {
		writeError(w, codes.InvalidArgument, err.Error())
		return
	}

	md := metadata.MD{}
	if vals := r.Header.Values("Authorization"); len(vals) > 0 {
		md.Set("authorization", vals...)
	}
	if vals := r.Header.Values(middleware.CalendarTokenHeader); len(vals) > 0 {
		md.Set(middleware.CalendarTokenHeader, vals...)
	}
	ctx := metadata.NewOutgoingContext(r.Context(), md)

	// invoke with the raw codec: bytes pass through untouched
	resp := &rawMsg{}
	err = b.conn.Invoke(ctx, r.URL.Path, &rawMsg{data: payload}, resp, grpc.ForceCodec(rawCodec{}))
	if err != nil {
		st, _ := status.FromError(err)
		b.logger.Debug("call failed",
			zap.String("method", r.URL.Path),
			zap.String("code", st.Code().String()),
			zap.String("message", st.Message()),
		)
		writeError(w, st.Code(), st.Message())
		return
	}
	writeSuccess(w, resp.data)
}

// unframe returns the payload of the first frame: 1-byte flag, 4-byte
// big-endian length, message.
func unframe(body []byte) ([]byte, error) {
	if len(body) < 5 {
		return nil, fmt.Errorf("body too short")
	}
	if body[0]&0x80 != 0 {
		return nil, fmt.Errorf("unexpected trailer frame")
	}
	n := binary.BigEndian.Uint32(body[1:5])
	if uint64(n)+5 > uint64(len(body)) {
		return nil, fmt.Errorf("incomplete frame")
	}
	return body[5 : 5+n], nil
}

// rawMsg wraps raw protobuf bytes.
type rawMsg struct{ data []byte }

// rawCodec passes bytes through without marshal/unmarshal.
type rawCodec struct{}

func (rawCodec) Marshal(v any) ([]byte, error) {
	return v.(*rawMsg).data, nil
}

func (rawCodec) Unmarshal(data []byte, v any) error {
	m := v.(*rawMsg)
	m.data = append([]byte(nil), data...)
	return nil
}

func (rawCodec) Name() string { return "raw" }

func frame(flag byte, data []byte) []byte {
	f := make([]byte, 5+len(data))
	f[0] = flag
	binary.BigEndian.PutUint32(f[1:5], uint32(len(data)))
	copy(f[5:], data)
	return f
}

func writeError(w http.ResponseWriter, code codes.Code, msg string) {
	w.Header().Set("Content-Type", "application/grpc-web+proto")
	w.WriteHeader(http.StatusOK)
	trailer := fmt.Sprintf("grpc-status:%d\r\ngrpc-message:%s\r\n", code, msg)
	w.Write(frame(0x80, []byte(trailer)))
}

func writeSuccess(w http.ResponseWriter, data []byte) {
	w.Header().Set("Content-Type", "application/grpc-web+proto")
	w.WriteHeader(http.StatusOK)
	w.Write(frame(0x00, data))
	w.Write(frame(0x80, []byte("grpc-status:0\r\n")))
}
