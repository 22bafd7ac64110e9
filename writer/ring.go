package writer

import (
	"context"
	"fmt"
	"sync"

	"github.com/jlab-hipo/evio/errs"
	"github.com/jlab-hipo/evio/internal/logging"
	"github.com/jlab-hipo/evio/record"
	"golang.org/x/sync/errgroup"
)

// slotState tracks a RecordRingItem's position in the producer →
// compressor → writer → producer ownership cycle (§4.I).
type slotState int

const (
	slotEmpty slotState = iota
	slotFilled
	slotCompressed
)

// RecordRingItem is one slot in the bounded ring: a pre-allocated
// record.Output plus the bytes it compresses into once claimed by its
// owning compressor.
type RecordRingItem struct {
	output     *record.Output
	built      []byte
	eventCount int
	state      slotState
}

// RingWriter implements §4.I: a bounded ring of RecordRingItem slots fed by
// one producer, drained by N compressor goroutines on a strided partition,
// and written to disk strictly in submission order by one writer
// goroutine. Ordering of on-disk records always matches AddEvent call
// order even though compression itself runs out of order.
type RingWriter struct {
	cfg   Config
	slots []RecordRingItem
	mask  int64

	mu   sync.Mutex
	cond *sync.Cond

	nextClaim int64 // next sequence the producer will claim
	curSeq    int64 // sequence currently claimed but not yet published, -1 if none
	published int64 // highest sequence published (filled) so far, -1 if none
	writerSeq int64 // next sequence the writer is waiting to consume
	eosAt     int64 // sequence of the end-of-stream marker, -1 until Close
	err       error

	single *Writer
	eg     *errgroup.Group
}

// NewRingWriter opens pathTemplate for output and starts cfg.CompThreads
// compressor goroutines plus one writer goroutine.
func NewRingWriter(pathTemplate string, userHeader []byte, opts ...Option) (*RingWriter, error) {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return nil, err
	}

	single, err := Open(pathTemplate, userHeader, opts...)
	if err != nil {
		return nil, err
	}

	slots := make([]RecordRingItem, cfg.RingSize)
	for i := range slots {
		slots[i].output = record.NewOutput(record.OutputConfig{
			MaxEventCount:        cfg.MaxEventCount,
			MaxUncompressedBytes: cfg.MaxRecordSize,
			Order:                cfg.Order,
			CompressionType:      cfg.CompressionType,
		})
	}

	r := &RingWriter{
		cfg:       cfg,
		slots:     slots,
		mask:      int64(cfg.RingSize - 1),
		curSeq:    -1,
		published: -1,
		eosAt:     -1,
		single:    single,
	}
	r.cond = sync.NewCond(&r.mu)

	eg, _ := errgroup.WithContext(context.Background())
	r.eg = eg

	for k := 0; k < cfg.CompThreads; k++ {
		k := k
		eg.Go(func() error { return r.compressorLoop(k) })
	}
	eg.Go(r.writerLoop)

	return r, nil
}

func (r *RingWriter) slot(seq int64) *RecordRingItem {
	return &r.slots[seq&r.mask]
}

// waitLocked blocks on r.cond until cond() is true or a failure has been
// latched; r.mu must be held on entry and remains held on return.
func (r *RingWriter) waitLocked(cond func() bool) error {
	for r.err == nil && !cond() {
		r.cond.Wait()
	}
	return r.err
}

func (r *RingWriter) failLocked(err error) {
	if r.err == nil {
		r.err = err
	}
	r.cond.Broadcast()
}

// claimLocked waits until slot r.nextClaim has been released by the writer
// (gate: i - ringSize < writerSequence) and claims it as curSeq.
func (r *RingWriter) claimLocked() error {
	target := r.nextClaim
	if err := r.waitLocked(func() bool { return target-int64(len(r.slots)) < r.writerSeq }); err != nil {
		return err
	}

	slot := r.slot(target)
	slot.output.Reset()
	slot.built = nil
	slot.eventCount = 0
	slot.state = slotEmpty

	r.curSeq = target
	r.nextClaim++
	return nil
}

// publishLocked marks the producer's current slot filled and ready for
// compression.
func (r *RingWriter) publishLocked() {
	r.slot(r.curSeq).state = slotFilled
	if r.curSeq > r.published {
		r.published = r.curSeq
	}
	r.curSeq = -1
	r.cond.Broadcast()
}

// AddEvent is the single producer entry point: it claims the next slot,
// appends the event into the slot's record, and publishes + claims the
// next slot if the current one is full.
func (r *RingWriter) AddEvent(eventBytes []byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.err != nil {
		return r.err
	}

	if r.curSeq == -1 {
		if err := r.claimLocked(); err != nil {
			return err
		}
	}

	slot := r.slot(r.curSeq)
	if !slot.output.TryAddEvent(eventBytes) {
		r.publishLocked()
		if err := r.claimLocked(); err != nil {
			return err
		}
		slot = r.slot(r.curSeq)
		if !slot.output.TryAddEvent(eventBytes) {
			return fmt.Errorf("%w: event of %d bytes exceeds record capacity", errs.ErrInvalidConfig, len(eventBytes))
		}
	}

	return nil
}

// compressorLoop runs compressor k, owning every slot whose sequence number
// is congruent to k modulo cfg.CompThreads.
func (r *RingWriter) compressorLoop(k int) error {
	n := int64(r.cfg.CompThreads)
	seq := int64(k)

	for {
		r.mu.Lock()
		if err := r.waitLocked(func() bool {
			return (r.eosAt != -1 && seq >= r.eosAt) || (seq <= r.published && r.slot(seq).state == slotFilled)
		}); err != nil {
			r.mu.Unlock()
			return err
		}
		if r.eosAt != -1 && seq >= r.eosAt {
			r.mu.Unlock()
			return nil
		}
		slot := r.slot(seq)
		r.mu.Unlock()

		built, err := slot.output.Build()
		if err != nil {
			r.mu.Lock()
			r.failLocked(fmt.Errorf("%w: compressor %d: %v", errs.ErrCodecFailure, k, err))
			r.mu.Unlock()
			return err
		}

		r.mu.Lock()
		slot.built = built
		slot.eventCount = slot.output.Entries()
		slot.state = slotCompressed
		r.cond.Broadcast()
		r.mu.Unlock()

		seq += n
	}
}

// writerLoop drains slots strictly in submission order, writing each one's
// bytes to the underlying single-threaded writer (which owns splitting and
// the trailer).
func (r *RingWriter) writerLoop() error {
	for {
		r.mu.Lock()
		if err := r.waitLocked(func() bool {
			return (r.eosAt != -1 && r.writerSeq == r.eosAt) || r.slot(r.writerSeq).state == slotCompressed
		}); err != nil {
			r.mu.Unlock()
			return err
		}
		if r.eosAt != -1 && r.writerSeq == r.eosAt {
			r.mu.Unlock()
			return nil
		}

		slot := r.slot(r.writerSeq)
		built, count := slot.built, slot.eventCount
		r.mu.Unlock()

		if err := r.single.WriteRecord(built, count); err != nil {
			r.mu.Lock()
			r.failLocked(err)
			r.mu.Unlock()
			return err
		}

		r.mu.Lock()
		slot.built = nil
		slot.state = slotEmpty
		r.writerSeq++
		r.cond.Broadcast()
		r.mu.Unlock()
	}
}

// Close sets the end-of-stream marker, waits for every compressor and the
// writer to drain to it, joins them, and writes the trailer.
func (r *RingWriter) Close() error {
	r.mu.Lock()
	if r.curSeq != -1 {
		r.publishLocked()
	}
	r.eosAt = r.nextClaim
	r.cond.Broadcast()
	r.mu.Unlock()

	if err := r.eg.Wait(); err != nil {
		logging.For("ring-writer").Error().Err(err).Msg("worker failed")
		return err
	}

	for i := range r.slots {
		r.slots[i].output.Release()
	}

	return r.single.Close()
}
