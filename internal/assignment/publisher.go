package assignment

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go/jetstream"

	"github.com/arloliu/scanplan/internal/kvutil"
	"github.com/arloliu/scanplan/types"
)

// DefaultPrefix is the key prefix used when none is configured.
const DefaultPrefix = "assignment"

// SlotRecord is the stored value of one slot of a published plan.
type SlotRecord struct {
	Version     int64               `json:"version"`
	PlanKey     string              `json:"planKey"`
	Slot        int                 `json:"slot"`
	SlotCount   int                 `json:"slotCount"`
	SubScans    []types.SubScanSpec `json:"subScans"`
	PublishedAt time.Time           `json:"publishedAt"`
}

// Publisher handles publishing slot assignments to NATS KV.
//
// Manages version monotonicity across planner restarts by discovering
// the highest existing version before the first publication.
type Publisher struct {
	kv        jetstream.KeyValue
	prefix    string
	keyPrefix string // cached "prefix."

	mu             sync.Mutex
	currentVersion int64
	discovered     bool
	lastPublish    time.Time

	logger  types.Logger
	metrics types.PublisherMetrics
}

// NewPublisher creates a new assignment publisher.
//
// Parameters:
//   - kv: NATS KV bucket for assignments
//   - prefix: Prefix for assignment keys (DefaultPrefix if empty)
//   - logger: Logger for publishing events
//   - metrics: Metrics collector for publications
//
// Returns:
//   - *Publisher: A new publisher instance
func NewPublisher(
	kv jetstream.KeyValue,
	prefix string,
	logger types.Logger,
	metrics types.PublisherMetrics,
) *Publisher {
	if prefix == "" {
		prefix = DefaultPrefix
	}

	return &Publisher{
		kv:        kv,
		prefix:    prefix,
		keyPrefix: prefix + ".",
		logger:    logger,
		metrics:   metrics,
	}
}

func (p *Publisher) planPrefix(planKey string) string {
	return p.keyPrefix + planKey + "."
}

func (p *Publisher) slotKey(planKey string, slot int) string {
	return p.planPrefix(planKey) + strconv.Itoa(slot)
}

// DiscoverHighestVersion scans KV for the highest stored assignment version.
//
// Malformed or unreadable entries are skipped.
//
// Parameters:
//   - ctx: Context for cancellation
//
// Returns:
//   - error: Nil on success, error on KV access failure
func (p *Publisher) DiscoverHighestVersion(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.discoverLocked(ctx)
}

func (p *Publisher) discoverLocked(ctx context.Context) error {
	keys, err := kvutil.KeysWithPrefix(ctx, p.kv, p.keyPrefix)
	if err != nil {
		return err
	}

	highest := p.currentVersion
	for _, key := range keys {
		var rec SlotRecord
		if err := kvutil.GetJSON(ctx, p.kv, key, &rec); err != nil {
			p.logger.Debug("skipping unreadable assignment", "key", key, "error", err)
			continue
		}
		highest = max(highest, rec.Version)
	}

	p.currentVersion = highest
	p.discovered = true

	if highest > 0 {
		p.logger.Info("discovered existing assignments", "highestVersion", highest, "checkedKeys", len(keys))
	}

	return nil
}

// Publish writes every slot of assignment under planKey with a new version.
//
// Slot keys left over from an earlier publication of the same plan with more
// slots are deleted after the new slots are written. Cleanup failures are
// logged and do not fail the publication.
//
// Parameters:
//   - ctx: Context for cancellation
//   - planKey: Stable identifier of the plan (e.g., the plan fingerprint in hex)
//   - assignment: Slot assignment to publish
//
// Returns:
//   - int64: Version written
//   - error: Wrapped ErrPublishFailed on any write failure
//
// Example:
//
//	version, err := publisher.Publish(ctx, fmt.Sprintf("%016x", gs.Fingerprint()), assignment)
func (p *Publisher) Publish(ctx context.Context, planKey string, assignment types.SlotAssignment) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if planKey == "" || strings.ContainsAny(planKey, ". *>") {
		p.metrics.RecordPublish(false, 0)
		return 0, fmt.Errorf("%w: invalid plan key %q", types.ErrPublishFailed, planKey)
	}

	if !p.discovered {
		if err := p.discoverLocked(ctx); err != nil {
			p.metrics.RecordPublish(false, 0)
			return 0, fmt.Errorf("%w: %w", types.ErrPublishFailed, err)
		}
	}

	version := p.currentVersion + 1
	now := time.Now()

	for slot, subScans := range assignment.Slots {
		rec := SlotRecord{
			Version:     version,
			PlanKey:     planKey,
			Slot:        slot,
			SlotCount:   assignment.Len(),
			SubScans:    subScans,
			PublishedAt: now,
		}
		key := p.slotKey(planKey, slot)
		if _, err := kvutil.PutJSON(ctx, p.kv, key, rec); err != nil {
			p.metrics.RecordPublish(false, 0)
			return 0, fmt.Errorf("%w: %w", types.ErrPublishFailed, err)
		}
		p.logger.Debug("published slot", "key", key, "subScans", len(subScans), "version", version)
	}

	p.currentVersion = version
	p.lastPublish = now

	if err := p.cleanupStaleSlots(ctx, planKey, assignment.Len()); err != nil {
		p.logger.Warn("stale slot cleanup failed", "planKey", planKey, "error", err)
	}

	p.metrics.RecordPublish(true, version)
	p.logger.Info("assignment published", "planKey", planKey, "version", version, "slots", assignment.Len())

	return version, nil
}

// cleanupStaleSlots removes slot keys of planKey with index >= slotCount.
func (p *Publisher) cleanupStaleSlots(ctx context.Context, planKey string, slotCount int) error {
	prefix := p.planPrefix(planKey)
	keys, err := kvutil.KeysWithPrefix(ctx, p.kv, prefix)
	if err != nil {
		return err
	}

	var errs []error
	for _, key := range keys {
		slot, err := strconv.Atoi(strings.TrimPrefix(key, prefix))
		if err == nil && slot < slotCount {
			continue
		}
		if err := p.kv.Delete(ctx, key); err != nil {
			errs = append(errs, fmt.Errorf("failed to delete %s: %w", key, err))
			continue
		}
		p.logger.Debug("deleted stale slot", "key", key)
	}

	return errors.Join(errs...)
}

// Fetch reads back the published assignment of planKey.
//
// Returns:
//   - types.SlotAssignment: Assignment ordered by slot
//   - int64: Version of the assignment
//   - error: Wrapped ErrNoKeysFound when nothing is published for planKey,
//     or an error when slot records disagree on version or count
func (p *Publisher) Fetch(ctx context.Context, planKey string) (types.SlotAssignment, int64, error) {
	keys, err := kvutil.KeysWithPrefix(ctx, p.kv, p.planPrefix(planKey))
	if err != nil {
		return types.SlotAssignment{}, 0, err
	}
	if len(keys) == 0 {
		return types.SlotAssignment{}, 0, fmt.Errorf("%w: plan %s", types.ErrNoKeysFound, planKey)
	}

	var (
		slots   [][]types.SubScanSpec
		version int64
	)
	for _, key := range keys {
		var rec SlotRecord
		if err := kvutil.GetJSON(ctx, p.kv, key, &rec); err != nil {
			return types.SlotAssignment{}, 0, err
		}
		if slots == nil {
			slots = make([][]types.SubScanSpec, rec.SlotCount)
			version = rec.Version
		}
		if rec.Version != version || rec.SlotCount != len(slots) || rec.Slot < 0 || rec.Slot >= len(slots) {
			return types.SlotAssignment{}, 0, fmt.Errorf("inconsistent assignment for plan %s at %s", planKey, key)
		}
		slots[rec.Slot] = rec.SubScans
	}

	return types.SlotAssignment{Slots: slots}, version, nil
}

// CurrentVersion returns the last published version (0 if none).
func (p *Publisher) CurrentVersion() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.currentVersion
}

// LastPublishTime returns the time of the last successful publication.
func (p *Publisher) LastPublishTime() time.Time {
	p.mu.Lock()
	defer p.mu.Unlock()

	return p.lastPublish
}
