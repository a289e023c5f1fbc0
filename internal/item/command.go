package item

import (
	"context"
	"time"
)

// DispatchReport is the per-item outcome of SendCommand.
type DispatchReport struct {
	Command   string
	Delivered []string
	Failed    map[string]error
}

// OK reports whether every item received the command.
func (r DispatchReport) OK() bool {
	return len(r.Failed) == 0
}

// SendCommand posts command to every item, one request per item.
//
// A failure for one item is logged and recorded, and never stops delivery to
// the remaining items. The report lists which items received the command.
func (s *Store) SendCommand(ctx context.Context, items []*Item, command string) DispatchReport {
	report := DispatchReport{
		Command:   command,
		Delivered: make([]string, 0, len(items)),
		Failed:    make(map[string]error),
	}

	for _, it := range items {
		if it == nil {
			continue
		}
		start := time.Now()
		err := s.post(ctx, it.Name, command)
		for _, r := range s.recorders {
			r.RecordCommand(ctx, it.Name, command, err)
		}
		if err != nil {
			s.logger.Error("command delivery failed",
				"item", it.Name,
				"command", command,
				"error", err,
			)
			report.Failed[it.Name] = err
			continue
		}
		s.logger.Debug("command delivered",
			"item", it.Name,
			"command", command,
			"duration", time.Since(start),
		)
		report.Delivered = append(report.Delivered, it.Name)
	}
	return report
}

func (s *Store) post(ctx context.Context, name, command string) error {
	if s.gateway == nil {
		return ErrNoGateway
	}
	return s.gateway.PostCommand(ctx, name, command)
}

// State returns the item's current state. It reports false when the item is
// not in the store, the gateway fails, or openHAB has no value (NULL).
func (s *Store) State(ctx context.Context, it *Item) (string, bool) {
	if it == nil || s.gateway == nil {
		return "", false
	}
	if _, ok := s.byName[it.Name]; !ok {
		return "", false
	}

	state, err := s.gateway.FetchState(ctx, it.Name)
	if err != nil {
		s.logger.Warn("state read failed", "item", it.Name, "error", err)
		return "", false
	}
	if state == NullState || state == "" {
		return "", false
	}
	return state, true
}
