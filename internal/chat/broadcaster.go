package chat

import (
	"go.uber.org/zap"

	"github.com/hongjun500/linechat/internal/observe"
	"github.com/hongjun500/linechat/pkg/logger"
)

// DropFunc is told about every peer a broadcast removed from the registry.
type DropFunc func(p *Peer, name string, err error)

// Broadcaster delivers formatted lines to every registered peer, the sender
// included. A peer whose write fails is closed at once and removed from the
// registry after the pass, without waiting for its own handler to notice.
type Broadcaster struct {
	reg    *Registry
	log    *zap.Logger
	onDrop DropFunc
}

func NewBroadcaster(reg *Registry, log *zap.Logger, onDrop DropFunc) *Broadcaster {
	return &Broadcaster{reg: reg, log: logger.Or(log), onDrop: onDrop}
}

type failedPeer struct {
	peer *Peer
	err  error
}

// Broadcast writes msg to each registered peer and reports how many writes
// succeeded and failed. One failure never stops delivery to the rest.
func (b *Broadcaster) Broadcast(msg string) (delivered, failed int) {
	var dead []failedPeer
	b.reg.each(func(p *Peer) {
		if err := p.Send(msg); err != nil {
			// Close now so no later broadcast reaches it, even before release.
			_ = p.closeWith(ReasonWriteFailed, err)
			dead = append(dead, failedPeer{peer: p, err: err})
			return
		}
		delivered++
	})
	failed = len(dead)
	observe.AddDeliveries(delivered, failed)

	for _, d := range dead {
		name, removed := b.reg.release(d.peer)
		if !removed {
			continue
		}
		b.log.Warn("broadcast_write_failed",
			zap.String("client", d.peer.ID),
			zap.String("session", d.peer.Session),
			zap.String("name", name),
			zap.Error(d.err),
		)
		if b.onDrop != nil {
			b.onDrop(d.peer, name, d.err)
		}
	}
	return delivered, failed
}
