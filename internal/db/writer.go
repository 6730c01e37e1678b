package db

import (
	"context"
	"time"
)

// Writer drains a queue of pending character snapshots on its own ticker,
// off the simulation's hot path: the tick goroutine must not perform
// synchronous database I/O. The tick goroutine calls Enqueue, which never
// blocks; Writer.Run flushes in the background.
type Writer struct {
	pg       *Postgres
	interval time.Duration
	queue    chan CharacterRow
}

func NewWriter(pg *Postgres, interval time.Duration, bufferSize int) *Writer {
	return &Writer{pg: pg, interval: interval, queue: make(chan CharacterRow, bufferSize)}
}

// Enqueue deposits a character snapshot for the next flush. If the queue is
// full the oldest pending write for that account isn't deduplicated — the
// row is simply dropped, since a later snapshot for the same account will
// supersede it on the next successful flush anyway.
func (w *Writer) Enqueue(row CharacterRow) {
	select {
	case w.queue <- row:
	default:
		log.Warnf("writer queue full, dropping snapshot for account %d", row.AccountID)
	}
}

// Run flushes queued snapshots in batches until ctx is canceled.
func (w *Writer) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	pending := make(map[int]CharacterRow)
	for {
		select {
		case <-ctx.Done():
			w.flush(context.Background(), pending)
			return
		case row := <-w.queue:
			pending[row.AccountID] = row
		case <-ticker.C:
			w.flush(ctx, pending)
			pending = make(map[int]CharacterRow)
		}
	}
}

func (w *Writer) flush(ctx context.Context, pending map[int]CharacterRow) {
	if w.pg == nil || !w.pg.IsConnected() {
		return
	}
	for _, row := range pending {
		if err := w.pg.UpsertCharacter(ctx, row); err != nil {
			log.Warnf("failed to persist character %d: %v", row.AccountID, err)
		}
	}
}
