package schedule

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/nerrad567/gray-logic-voice/internal/audit"
	"github.com/nerrad567/gray-logic-voice/internal/item"
)

// StoreDispatcher sends due commands through the current item Store.
//
// Store is called on every dispatch so a job fired after a refresh uses the
// refreshed graph. Item names missing from that graph are skipped.
type StoreDispatcher struct {
	Store func() *item.Store
}

// Dispatch sends command to the named items and reports the items that did
// not receive it.
func (d StoreDispatcher) Dispatch(ctx context.Context, command string, names []string) error {
	store := d.Store()
	if store == nil {
		return ErrNoStore
	}

	items := make([]*item.Item, 0, len(names))
	for _, name := range names {
		if it, ok := store.Item(name); ok {
			items = append(items, it)
		}
	}

	report := store.SendCommand(audit.WithSource(ctx, audit.SourceSchedule), items, command)
	if report.OK() {
		return nil
	}

	failed := make([]string, 0, len(report.Failed))
	for name := range report.Failed {
		failed = append(failed, name)
	}
	sort.Strings(failed)
	return fmt.Errorf("%s not delivered to %s", command, strings.Join(failed, ", "))
}
