package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/aretw0/scout/pkg/domain"
)

// AllSites is the topic of subscribers that receive every site's events.
const AllSites = ""

// Event is one server-sent event.
type Event struct {
	Name string
	Data string
}

// StreamManager handles active SSE connections, keyed by site.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- Event]struct{}
	buffer      int
	logger      *slog.Logger
}

// NewStreamManager creates a manager whose subscribers buffer up to 32 events.
func NewStreamManager(logger *slog.Logger) *StreamManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &StreamManager{
		subscribers: make(map[string]map[chan<- Event]struct{}),
		buffer:      32,
		logger:      logger,
	}
}

// Subscribe registers a listener for site, or for every site with AllSites.
// The returned func unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(site string) (<-chan Event, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan Event, sm.buffer)
	if _, ok := sm.subscribers[site]; !ok {
		sm.subscribers[site] = make(map[chan<- Event]struct{})
	}
	sm.subscribers[site][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[site]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.subscribers, site)
				}
			}
			close(ch)
		})
	}
}

// Subscribers returns the number of listeners registered for site.
func (sm *StreamManager) Subscribers(site string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[site])
}

// Broadcast delivers ev to the listeners of site and to AllSites listeners.
// Slow listeners drop events instead of blocking the run.
func (sm *StreamManager) Broadcast(site string, ev Event) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	topics := []string{AllSites}
	if site != AllSites {
		topics = append(topics, site)
	}
	for _, topic := range topics {
		for ch := range sm.subscribers[topic] {
			select {
			case ch <- ev:
			default:
				sm.logger.Warn("SSE: client buffer full, dropping event", "site", site, "event", ev.Name)
			}
		}
	}
}

// Hooks returns lifecycle hooks that publish run progress as SSE events.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(_ context.Context, e *domain.NodeEvent) {
			sm.publish(e.Site, e.Type, e)
		},
		OnNodeLeave: func(_ context.Context, e *domain.NodeEvent) {
			sm.publish(e.Site, e.Type, e)
		},
		OnToolCall: func(_ context.Context, e *domain.ToolEvent) {
			sm.publish(e.Site, e.Type, e)
		},
		OnToolReturn: func(_ context.Context, e *domain.ToolEvent) {
			sm.publish(e.Site, e.Type, e)
		},
		OnScriptRun: func(_ context.Context, e *domain.ScriptEvent) {
			sm.publish(e.Site, e.Type, e)
		},
		OnRunFinished: func(_ context.Context, e *domain.RunEvent) {
			sm.publish(e.Site, e.Type, e)
		},
	}
}

func (sm *StreamManager) publish(site string, typ domain.EventType, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		sm.logger.Error("SSE: event encode failed", "event", typ, "error", err)
		return
	}
	sm.Broadcast(site, Event{Name: string(typ), Data: string(data)})
}
