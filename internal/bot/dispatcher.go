package bot

import (
	"context"
	"sync"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"
	"go.uber.org/zap"

	"tattoo-market/internal/util"
)

const (
	defaultShards = 8
	shardBuffer   = 64
)

// UpdateHandler processes one update
type UpdateHandler interface {
	Handle(ctx context.Context, update *models.Update)
}

// Dispatcher routes updates to a fixed set of workers keyed by the sender's
// account, so one account's updates are handled in receipt order while
// different accounts proceed in parallel.
type Dispatcher struct {
	shards  []chan *models.Update
	handler UpdateHandler
	wg      sync.WaitGroup
	logger  *zap.Logger
}

// NewDispatcher creates a Dispatcher with n shards.
// If n <= 0, defaultShards is used.
func NewDispatcher(n int, handler UpdateHandler) *Dispatcher {
	if n <= 0 {
		n = defaultShards
	}
	d := &Dispatcher{
		shards:  make([]chan *models.Update, n),
		handler: handler,
		logger:  util.GetLogger(),
	}
	for i := range d.shards {
		d.shards[i] = make(chan *models.Update, shardBuffer)
	}
	return d
}

// Start launches the shard workers. They stop when ctx is cancelled.
func (d *Dispatcher) Start(ctx context.Context) {
	for i, ch := range d.shards {
		d.wg.Add(1)
		go d.run(ctx, i, ch)
	}
}

// Wait blocks until every worker has stopped
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Handle matches the bot library's handler signature and enqueues the update
func (d *Dispatcher) Handle(ctx context.Context, _ *tgbot.Bot, update *models.Update) {
	d.Enqueue(ctx, update)
}

// Enqueue hands the update to its account's shard. Updates without a sender
// are dropped.
func (d *Dispatcher) Enqueue(ctx context.Context, update *models.Update) {
	id, kind := senderOf(update)
	if id == 0 {
		return
	}
	util.BotUpdatesTotal.WithLabelValues(kind).Inc()

	select {
	case d.shards[d.shardIndex(id)] <- update:
	case <-ctx.Done():
	}
}

func (d *Dispatcher) shardIndex(accountID int64) int {
	if accountID < 0 {
		accountID = -accountID
	}
	return int(accountID % int64(len(d.shards)))
}

func (d *Dispatcher) run(ctx context.Context, id int, ch <-chan *models.Update) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case update := <-ch:
			d.handle(ctx, id, update)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, shard int, update *models.Update) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("update handler panicked", zap.Int("shard", shard), zap.Any("panic", r))
		}
	}()
	d.handler.Handle(ctx, update)
}

func senderOf(update *models.Update) (int64, string) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		return update.Message.From.ID, "message"
	case update.CallbackQuery != nil:
		return update.CallbackQuery.From.ID, "callback"
	default:
		return 0, ""
	}
}
