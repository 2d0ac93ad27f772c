package config

import "strings"

type SecurityLevel int

const (
	SecurityPublic SecurityLevel = iota // No authentication
	SecurityAdmin                       // Admin access token required
)

// EndpointSecurityConfig maps "METHOD /route/template" to its security level.
// Routes missing from the table require an admin token.
var EndpointSecurityConfig = map[string]SecurityLevel{
	"GET /health": SecurityPublic,

	// Donations - Public
	"POST /api/v1/donations":        SecurityPublic,
	"GET /api/v1/donations/verify":  SecurityPublic,
	"GET /api/v1/donations/public":  SecurityPublic,
	"POST /api/v1/payments/webhook": SecurityPublic,

	// Sign-up and contact - Public
	"POST /api/v1/volunteers": SecurityPublic,
	"POST /api/v1/inquiries":  SecurityPublic,

	// Published content - Public
	"GET /api/v1/orphanages":      SecurityPublic,
	"GET /api/v1/orphanages/{id}": SecurityPublic,
	"GET /api/v1/issues":          SecurityPublic,
	"GET /api/v1/issues/{id}":     SecurityPublic,
	"GET /api/v1/blog":            SecurityPublic,
	"GET /api/v1/blog/{slug}":     SecurityPublic,
	"GET /api/v1/events":          SecurityPublic,
	"GET /api/v1/events/{id}":     SecurityPublic,
	"GET /files/{path:.*}":        SecurityPublic,
	"HEAD /files/{path:.*}":       SecurityPublic,

	// Admin login - Public
	"POST /api/v1/admin/login": SecurityPublic,
}

// RequiredSecurityLevel looks up a route, defaulting to admin access.
func RequiredSecurityLevel(method, pathTemplate string) SecurityLevel {
	if level, ok := EndpointSecurityConfig[strings.ToUpper(method)+" "+pathTemplate]; ok {
		return level
	}
	return SecurityAdmin
}
