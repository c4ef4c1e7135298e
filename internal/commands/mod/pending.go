package mod

import (
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// pendingWarnTTL is how long a violation menu stays usable
const pendingWarnTTL = 15 * time.Minute

// pendingWarn holds what /mod warn collected until the moderator picks the
// violations from the menu
type pendingWarn struct {
	Target      *discordgo.User
	ModeratorID string
	Clips       []string
	Reason      string
	expiresAt   time.Time
}

// pendingWarns keys pending warnings by the token carried in the menu's
// custom id. Clips do not fit in a custom id.
type pendingWarns struct {
	mu    sync.Mutex
	items map[string]*pendingWarn
	ttl   time.Duration
	now   func() time.Time
}

func newPendingWarns(ttl time.Duration) *pendingWarns {
	return &pendingWarns{
		items: make(map[string]*pendingWarn),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (m *Module) pendingWarns() *pendingWarns {
	m.pendingOnce.Do(func() {
		if m.pending == nil {
			m.pending = newPendingWarns(pendingWarnTTL)
		}
	})
	return m.pending
}

// put stores w and returns its token. Expired entries are dropped.
func (p *pendingWarns) put(w *pendingWarn) string {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	for token, item := range p.items {
		if now.After(item.expiresAt) {
			delete(p.items, token)
		}
	}

	token := uuid.NewString()
	w.expiresAt = now.Add(p.ttl)
	p.items[token] = w
	return token
}

// take removes and returns the entry for token. Only the moderator who ran
// the command can consume it.
func (p *pendingWarns) take(token, moderatorID string) (*pendingWarn, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	w, ok := p.items[token]
	if !ok {
		return nil, false
	}
	if p.now().After(w.expiresAt) {
		delete(p.items, token)
		return nil, false
	}
	if w.ModeratorID != moderatorID {
		return nil, false
	}
	delete(p.items, token)
	return w, true
}

func (p *pendingWarns) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.items)
}
