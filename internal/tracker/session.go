package tracker

import (
	"time"

	"github.com/pageza/issuedesk/backend/config"
	"github.com/pageza/issuedesk/backend/internal/mockdata"
)

// Session is the per-user context the manager acts in.
type Session struct {
	CurrentUser  string
	SupportAgent string
	// Replies is the canned pool for simulated support answers. Empty uses
	// the generator's pool.
	Replies []string
	// ReplyDelayMin and ReplyDelayMax bound the wait before a simulated reply.
	ReplyDelayMin time.Duration
	ReplyDelayMax time.Duration
}

// DefaultSession replies after 2 to 5 seconds on behalf of the default support agent.
func DefaultSession(user string) Session {
	return Session{
		CurrentUser:   user,
		SupportAgent:  mockdata.DefaultSupportAgent,
		ReplyDelayMin: 2 * time.Second,
		ReplyDelayMax: 5 * time.Second,
	}
}

// SessionFromConfig builds the session of the configured user.
func SessionFromConfig(cfg *config.ClientConfig) Session {
	s := DefaultSession(cfg.CurrentUser)
	if cfg.SupportAgent != "" {
		s.SupportAgent = cfg.SupportAgent
	}
	return s
}

func (s Session) withDefaults() Session {
	d := DefaultSession("Current User")
	if s.CurrentUser == "" {
		s.CurrentUser = d.CurrentUser
	}
	if s.SupportAgent == "" {
		s.SupportAgent = d.SupportAgent
	}
	if s.ReplyDelayMax < s.ReplyDelayMin {
		s.ReplyDelayMax = s.ReplyDelayMin
	}
	return s
}
