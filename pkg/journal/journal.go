package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"anonswap/pkg/kv"
	"anonswap/pkg/types"
)

const (
	// Key is the single namespaced store key holding the whole journal
	Key = "anonswap.swap-journal"

	// SchemaVersion is bumped whenever Entry changes incompatibly
	SchemaVersion = 2
)

var (
	ErrEntryNotFound  = errors.New("journal entry not found")
	ErrDuplicateOrder = errors.New("order already journaled")
)

// Entry is the durable record of one created swap
type Entry struct {
	OrderID            string    `json:"orderId"`
	IdentityCommitment string    `json:"identityCommitment"`
	FromChain          string    `json:"fromChain"`
	FromToken          string    `json:"fromToken"`
	ToChain            string    `json:"toChain"`
	ToToken            string    `json:"toToken"`
	ReceiverAddress    string    `json:"receiverAddress"`
	Amount             string    `json:"amount"`
	ProofHash          string    `json:"proofHash,omitempty"`
	CreatedAt          time.Time `json:"timestamp"`
	Status             string    `json:"status"`
}

type envelope struct {
	Version int     `json:"version"`
	Entries []Entry `json:"entries"`
}

// Journal is the device-local swap journal. Every operation reads the
// stored list afresh so that concurrent CLI invocations see each other's
// writes.
type Journal struct {
	store  kv.Store
	logger *zap.Logger
	mu     sync.Mutex
}

// New creates a journal over store
func New(store kv.Store, logger *zap.Logger) *Journal {
	return &Journal{store: store, logger: logger}
}

// load must be called with j.mu held. Anything that does not decode as the
// current schema is purged wholesale rather than partially repaired.
func (j *Journal) load(ctx context.Context) ([]Entry, error) {
	data, err := j.store.Get(ctx, Key)
	if errors.Is(err, kv.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read journal: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, j.purge(ctx, "undecodable journal", zap.Error(err))
	}
	if env.Version != SchemaVersion {
		return nil, j.purge(ctx, "journal schema version mismatch",
			zap.Int("found", env.Version),
			zap.Int("expected", SchemaVersion))
	}
	for i, e := range env.Entries {
		if e.OrderID == "" || e.CreatedAt.IsZero() {
			return nil, j.purge(ctx, "journal entry missing required field", zap.Int("index", i))
		}
	}

	return env.Entries, nil
}

func (j *Journal) purge(ctx context.Context, reason string, fields ...zap.Field) error {
	j.logger.Warn("Purging swap journal: "+reason, fields...)
	if err := j.store.Remove(ctx, Key); err != nil {
		return fmt.Errorf("purge journal: %w", err)
	}
	return nil
}

func (j *Journal) save(ctx context.Context, entries []Entry) error {
	data, err := json.Marshal(envelope{Version: SchemaVersion, Entries: entries})
	if err != nil {
		return fmt.Errorf("encode journal: %w", err)
	}
	if err := j.store.Set(ctx, Key, data); err != nil {
		return fmt.Errorf("write journal: %w", err)
	}
	return nil
}

// Append adds e to the end of the journal
func (j *Journal) Append(ctx context.Context, e Entry) error {
	if e.OrderID == "" || e.CreatedAt.IsZero() {
		return fmt.Errorf("journal entry requires order id and timestamp")
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := j.load(ctx)
	if err != nil {
		return err
	}
	for _, existing := range entries {
		if existing.OrderID == e.OrderID {
			return fmt.Errorf("%w: %s", ErrDuplicateOrder, e.OrderID)
		}
	}

	return j.save(ctx, append(entries, e))
}

// List returns every entry, oldest first
func (j *Journal) List(ctx context.Context) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	return j.load(ctx)
}

// Get returns the entry for orderID
func (j *Journal) Get(ctx context.Context, orderID string) (Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := j.load(ctx)
	if err != nil {
		return Entry{}, err
	}
	for _, e := range entries {
		if e.OrderID == orderID {
			return e, nil
		}
	}
	return Entry{}, fmt.Errorf("%w: %s", ErrEntryNotFound, orderID)
}

// UpdateStatus records the latest exchange status for orderID. A terminal
// status is never replaced by a non-terminal one.
func (j *Journal) UpdateStatus(ctx context.Context, orderID, status string) error {
	return j.update(ctx, orderID, func(e *Entry) bool {
		if e.Status == status {
			return false
		}
		if types.IsTerminalStatus(e.Status) && !types.IsTerminalStatus(status) {
			return false
		}
		e.Status = status
		return true
	})
}

// SetProofHash stores the attestation hash for orderID
func (j *Journal) SetProofHash(ctx context.Context, orderID, proofHash string) error {
	return j.update(ctx, orderID, func(e *Entry) bool {
		if e.ProofHash == proofHash {
			return false
		}
		e.ProofHash = proofHash
		return true
	})
}

func (j *Journal) update(ctx context.Context, orderID string, fn func(*Entry) bool) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	entries, err := j.load(ctx)
	if err != nil {
		return err
	}
	for i := range entries {
		if entries[i].OrderID != orderID {
			continue
		}
		if !fn(&entries[i]) {
			return nil
		}
		return j.save(ctx, entries)
	}
	return fmt.Errorf("%w: %s", ErrEntryNotFound, orderID)
}
