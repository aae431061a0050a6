package httpapi

import (
	"net/http"
	"time"

	"github.com/codecritics/codecritics/internal/config"
	"github.com/codecritics/codecritics/internal/domain"
	"github.com/codecritics/codecritics/internal/sourcehost"
)

// healthGateway is the narrow LLM boundary the health endpoint needs —
// which provider is currently active and each provider's construction
// snapshot, not the ability to call one.
type healthGateway interface {
	ActiveProvider() config.AIProvider
	ProviderSnapshots() []domain.ProviderHealth
}

// Health reports GET /health.
type Health struct {
	host    sourcehost.Client
	gateway healthGateway
	cfg     config.Config
}

// NewHealth constructs a Health handler.
func NewHealth(host sourcehost.Client, gateway healthGateway, cfg config.Config) *Health {
	return &Health{host: host, gateway: gateway, cfg: cfg}
}

type healthResponse struct {
	Status       string               `json:"status"`
	Identity     string               `json:"identity,omitempty"`
	Provider     string               `json:"provider"`
	Providers    []providerHealthBody `json:"providers"`
	MaxDiffSize  int                  `json:"maxDiffSize"`
	AllowListSet bool                 `json:"allowListConfigured"`
	RateLimit    *rateLimitBody       `json:"rateLimit,omitempty"`
	Error        string               `json:"error,omitempty"`
}

type rateLimitBody struct {
	Limit     int   `json:"limit"`
	Remaining int   `json:"remaining"`
	ResetUnix int64 `json:"resetUnix"`
}

// providerHealthBody is the wire form of a domain.ProviderHealth
// construction snapshot.
type providerHealthBody struct {
	Name          string `json:"name"`
	Constructible bool   `json:"constructible"`
	LastError     string `json:"lastError,omitempty"`
	LastCheckedAt string `json:"lastCheckedAt"`
}

func providerHealthBodies(snapshots []domain.ProviderHealth) []providerHealthBody {
	out := make([]providerHealthBody, 0, len(snapshots))
	for _, s := range snapshots {
		out = append(out, providerHealthBody{
			Name:          s.Name,
			Constructible: s.Constructible,
			LastError:     s.LastError,
			LastCheckedAt: s.LastCheckedAt.UTC().Format(time.RFC3339),
		})
	}
	return out
}

// ServeHTTP authenticates against the source host and echoes static
// configuration. Overall status is "ok" if the identity check
// succeeds, "degraded" (503) otherwise, so a monitor can distinguish
// "the process is up" from "the process can actually talk to GitHub".
func (h *Health) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{
		Provider:     string(h.gateway.ActiveProvider()),
		Providers:    providerHealthBodies(h.gateway.ProviderSnapshots()),
		MaxDiffSize:  h.cfg.MaxDiffSize,
		AllowListSet: len(h.cfg.AllowedRepositories) > 0,
	}

	identity, err := h.host.ValidateIdentity(r.Context())
	if err != nil {
		resp.Status = "degraded"
		resp.Error = "source host identity check failed"
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp.Identity = identity.Login
	resp.Status = "ok"

	if rl, err := h.host.RateLimit(r.Context()); err == nil {
		resp.RateLimit = &rateLimitBody{Limit: rl.Limit, Remaining: rl.Remaining, ResetUnix: rl.ResetUnix}
	}

	writeJSON(w, http.StatusOK, resp)
}
