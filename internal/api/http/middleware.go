package http

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"runtime/debug"
	"strings"

	"github.com/felixge/httpsnoop"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"foundation-backend/internal/config"
	"foundation-backend/internal/domain"
	"foundation-backend/internal/logger"
	"foundation-backend/internal/security"
)

const requestIDHeader = "X-Request-ID"

// requestLogger attaches a request-scoped logger and the resolved client
// address, and logs one line per request.
func requestLogger(proxies proxyTrust) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := r.Header.Get(requestIDHeader)
			if requestID == "" {
				requestID = uuid.NewString()
			}
			w.Header().Set(requestIDHeader, requestID)
			ctx := logger.WithRequest(r.Context(), requestID, r.Method, r.URL.Path)
			r = r.WithContext(context.WithValue(ctx, clientIPKey{}, proxies.resolve(r)))

			m := httpsnoop.CaptureMetrics(next, w, r)

			log := logger.FromContext(r.Context())
			args := []any{"status", m.Code, "duration_ms", m.Duration.Milliseconds(), "bytes", m.Written, "remote_ip", clientIP(r)}
			switch {
			case m.Code >= 500:
				log.Error("HTTP request", args...)
			case m.Code >= 400:
				log.Warn("HTTP request", args...)
			default:
				log.Info("HTTP request", args...)
			}
		})
	}
}

// recoverer turns a handler panic into a 500.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				logger.FromContext(r.Context()).Error("Handler panicked", "panic", rec, "stack", string(debug.Stack()))
				writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal server error", Code: "internal_error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// cors answers preflight requests and tags responses for allowed origins.
// A "*" entry allows any origin.
func cors(allowedOrigins []string) func(http.Handler) http.Handler {
	allowAll := false
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, o := range allowedOrigins {
		if o == "*" {
			allowAll = true
		}
		allowed[strings.TrimRight(o, "/")] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			origin := r.Header.Get("Origin")
			if origin != "" && (allowAll || allowed[origin]) {
				h := w.Header()
				h.Set("Access-Control-Allow-Origin", origin)
				h.Add("Vary", "Origin")
				h.Set("Access-Control-Allow-Credentials", "true")
				h.Set("Access-Control-Expose-Headers", requestIDHeader)
				if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
					h.Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
					h.Set("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Request-ID, X-Paystack-Signature")
					h.Set("Access-Control-Max-Age", "43200")
					w.WriteHeader(http.StatusNoContent)
					return
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// AuthMiddleware checks the bearer token on every route that is not listed
// as public in config.EndpointSecurityConfig.
type AuthMiddleware struct {
	tokens security.TokenManager
}

func NewAuthMiddleware(tokens security.TokenManager) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens}
}

// Handler must run inside the router so the matched route template is known.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		template := r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if t, err := route.GetPathTemplate(); err == nil {
				template = t
			}
		}
		if config.RequiredSecurityLevel(r.Method, template) == config.SecurityPublic {
			next.ServeHTTP(w, r)
			return
		}

		token, ok := bearerToken(r)
		if !ok {
			writeError(w, r, fmt.Errorf("%w: authorization token is not provided", domain.ErrUnauthorized))
			return
		}
		claims, err := m.tokens.ValidateToken(token)
		if err != nil {
			logger.FromContext(r.Context()).Warn("Rejected admin token", "error", err, "remote_ip", clientIP(r))
			writeError(w, r, err)
			return
		}
		if !claims.HasRole(security.RoleAdmin) {
			writeError(w, r, fmt.Errorf("%w: admin role required", domain.ErrUnauthorized))
			return
		}

		next.ServeHTTP(w, r.WithContext(withAdmin(r.Context(), claims)))
	})
}

func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "Bearer ") {
		token := strings.TrimSpace(header[7:])
		return token, token != ""
	}
	return "", false
}

type clientIPKey struct{}

// clientIP returns the address resolved by requestLogger, or the direct peer.
func clientIP(r *http.Request) string {
	if ip, ok := r.Context().Value(clientIPKey{}).(string); ok && ip != "" {
		return ip
	}
	return remoteHost(r)
}

func remoteHost(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// proxyTrust lists the reverse proxies whose forwarding headers are honoured.
type proxyTrust []netip.Prefix

func (p proxyTrust) trusts(ip string) bool {
	addr, err := netip.ParseAddr(ip)
	if err != nil {
		return false
	}
	addr = addr.Unmap()
	for _, prefix := range p {
		if prefix.Contains(addr) {
			return true
		}
	}
	return false
}

// resolve returns the direct peer unless it is a trusted proxy. Behind one,
// X-Forwarded-For is read right to left and the first untrusted hop wins.
func (p proxyTrust) resolve(r *http.Request) string {
	peer := remoteHost(r)
	if !p.trusts(peer) {
		return peer
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		hops := strings.Split(xff, ",")
		for i := len(hops) - 1; i >= 0; i-- {
			hop := strings.TrimSpace(hops[i])
			if hop == "" {
				continue
			}
			if i == 0 || !p.trusts(hop) {
				return hop
			}
		}
	}
	if xri := strings.TrimSpace(r.Header.Get("X-Real-IP")); xri != "" {
		return xri
	}
	return peer
}
