package notify

import "github.com/sevigo/patch-warden/internal/core"

// Policy decides which decisions trigger a reply. Requests for changes and
// rejections are always answered.
type Policy struct {
	Accept bool `mapstructure:"accept"`
	Defer  bool `mapstructure:"defer"`
}

// Requires reports whether kind warrants a reply.
func (p Policy) Requires(kind core.DecisionKind) bool {
	switch kind {
	case core.RequestChanges, core.Reject:
		return true
	case core.Accept:
		return p.Accept
	case core.Defer:
		return p.Defer
	default:
		return false
	}
}
