package persist

import (
	"context"
	"fmt"
	"strings"

	"github.com/ValentinKolb/dUID/lib/cond"
	"github.com/ValentinKolb/dUID/lib/db"
	"github.com/ValentinKolb/dUID/lib/entity"
	"github.com/ValentinKolb/dUID/lib/identity"
	"github.com/ValentinKolb/dUID/lib/store"
	"github.com/VictoriaMetrics/metrics"
	"github.com/google/uuid"
	"github.com/lni/dragonboat/v4/logger"
)

// DefaultAuditFlushSize is the number of audit lines buffered by a batch delete before they are written.
const DefaultAuditFlushSize = 100

var log = logger.GetLogger("persist")

// Coordinator runs inserts, updates, refreshes and deletes of object batches against a store.
// Every operation submits its whole batch in one store call and never retries.
type Coordinator struct {
	store     store.IStore
	audit     logger.ILogger
	flushSize int
}

// Option configures a Coordinator.
type Option func(c *Coordinator)

// WithAuditLogger sets the logger receiving the delete audit trail.
func WithAuditLogger(l logger.ILogger) Option {
	return func(c *Coordinator) { c.audit = l }
}

// WithAuditFlushSize sets the number of buffered audit lines per write.
func WithAuditFlushSize(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.flushSize = n
		}
	}
}

// NewCoordinator creates a coordinator writing to the given store.
func NewCoordinator(s store.IStore, opts ...Option) *Coordinator {
	c := &Coordinator{
		store:     s,
		audit:     logger.GetLogger("audit"),
		flushSize: DefaultAuditFlushSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --------------------------------------------------------------------------
// Insert
// --------------------------------------------------------------------------

// Insert assigns ids to a batch of new objects and inserts them with one store call.
// The batch is validated completely before the first id is assigned.
func (c *Coordinator) Insert(ctx context.Context, objs []*entity.Object, props []*identity.Property) error {
	plan, err := PlanInsert(objs, props)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	rows, err := plan.Execute()
	if err != nil {
		return err
	}

	observe("insert", len(rows))
	if err := c.store.Insert(rows); err != nil {
		failed("insert")
		log.Warningf("insert of %d objects failed: %v", len(rows), err)
		return err
	}
	for _, obj := range objs {
		obj.SetState(entity.StatePersisted)
	}
	return nil
}

// --------------------------------------------------------------------------
// Update & Refresh
// --------------------------------------------------------------------------

// Update runs the update triggers of the object and writes it under its row condition.
func (c *Coordinator) Update(ctx context.Context, obj *entity.Object, prop *identity.Property) error {
	return c.UpdateBatch(ctx, []*entity.Object{obj}, []*identity.Property{prop})
}

// UpdateBatch is the batch form of Update. All rows are submitted in one store call.
func (c *Coordinator) UpdateBatch(ctx context.Context, objs []*entity.Object, props []*identity.Property) error {
	return c.write(ctx, "update", objs, props, (*entity.Type).UpdateTriggers)
}

// Refresh is Update with the refresh triggers instead of the update triggers.
func (c *Coordinator) Refresh(ctx context.Context, obj *entity.Object, prop *identity.Property) error {
	return c.RefreshBatch(ctx, []*entity.Object{obj}, []*identity.Property{prop})
}

// RefreshBatch is the batch form of Refresh.
func (c *Coordinator) RefreshBatch(ctx context.Context, objs []*entity.Object, props []*identity.Property) error {
	return c.write(ctx, "refresh", objs, props, (*entity.Type).RefreshTriggers)
}

func (c *Coordinator) write(ctx context.Context, op string, objs []*entity.Object, props []*identity.Property,
	triggers func(*entity.Type) []entity.Trigger) error {

	if err := checkPersisted(objs, props); err != nil {
		return err
	}

	rows := make([]db.Row, len(objs))
	conds := make([]cond.Condition, len(objs))
	for i, obj := range objs {
		id := props[i].ID()
		conds[i] = cond.BuildRowCondition(ctx, obj.Type(), id.String())
		for _, t := range triggers(obj.Type()) {
			if err := t.Execute(obj); err != nil {
				return fmt.Errorf("%w: %s trigger %s on %s: %w", ErrTrigger, op, t.Name(), obj, err)
			}
		}
		if obj.ID != id {
			return fmt.Errorf("%w: %s trigger on %s[%s] set id %q", ErrIDChanged, op, obj.Type().Name(), id, obj.ID)
		}
		rows[i] = obj.Row()
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	observe(op, len(rows))
	if err := c.store.BatchUpdate(rows, conds); err != nil {
		failed(op)
		log.Warningf("%s of %d objects failed: %v", op, len(rows), err)
		return err
	}
	return nil
}

// --------------------------------------------------------------------------
// Delete
// --------------------------------------------------------------------------

// Delete writes an audit line for the object and deletes it under its row condition.
// The audit line is written before the store call, so a failed delete is audited as well.
func (c *Coordinator) Delete(ctx context.Context, obj *entity.Object, prop *identity.Property) error {
	objs, props := []*entity.Object{obj}, []*identity.Property{prop}
	if err := checkPersisted(objs, props); err != nil {
		return err
	}
	c.audit.Errorf("%s", auditLine(obj, prop))
	return c.delete(ctx, objs, props)
}

// DeleteBatch deletes all objects with one store call. The audit lines are
// buffered and written in input order every flush size entries and once at the end.
func (c *Coordinator) DeleteBatch(ctx context.Context, objs []*entity.Object, props []*identity.Property) error {
	if err := checkPersisted(objs, props); err != nil {
		return err
	}

	batchID := uuid.NewString()
	buf := make([]string, 0, min(c.flushSize, len(objs)))
	for i, obj := range objs {
		buf = append(buf, auditLine(obj, props[i]))
		if len(buf) == c.flushSize {
			c.flushAudit(batchID, buf)
			buf = buf[:0]
		}
	}
	if len(buf) > 0 {
		c.flushAudit(batchID, buf)
	}
	return c.delete(ctx, objs, props)
}

func (c *Coordinator) delete(ctx context.Context, objs []*entity.Object, props []*identity.Property) error {
	rows := make([]db.Row, len(objs))
	conds := make([]cond.Condition, len(objs))
	for i, obj := range objs {
		rows[i] = obj.Row()
		conds[i] = cond.BuildRowCondition(ctx, obj.Type(), props[i].ID().String())
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	observe("delete", len(rows))
	if err := c.store.BatchDelete(rows, conds); err != nil {
		failed("delete")
		log.Warningf("delete of %d objects failed: %v", len(rows), err)
		return err
	}
	for _, obj := range objs {
		obj.SetState(entity.StateDeleted)
	}
	return nil
}

func (c *Coordinator) flushAudit(batchID string, lines []string) {
	c.audit.Errorf("delete batch %s (%d objects):\n%s", batchID, len(lines), strings.Join(lines, "\n"))
}

func auditLine(obj *entity.Object, prop *identity.Property) string {
	return fmt.Sprintf("DELETING OBJECT ID=%s, %s", prop.ID(), obj.Type().Describe(obj))
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// checkPersisted validates a batch for update, refresh and delete.
func checkPersisted(objs []*entity.Object, props []*identity.Property) error {
	if objs == nil || props == nil {
		return ErrNilBatch
	}
	if len(objs) != len(props) {
		return fmt.Errorf("%w: %d objects but %d identity properties", ErrShapeMismatch, len(objs), len(props))
	}
	for i, obj := range objs {
		if obj == nil || props[i] == nil {
			return fmt.Errorf("%w: element %d", ErrNilBatch, i)
		}
		if props[i].Object() != obj {
			return fmt.Errorf("%w: element %d", identity.ErrUnbound, i)
		}
		switch obj.State() {
		case entity.StateDeleted:
			return fmt.Errorf("%w: %s", ErrDeleted, obj)
		case entity.StateUnpersisted:
			return fmt.Errorf("%w: %s", ErrNotPersisted, obj)
		}
		if obj.ID.Empty() {
			return fmt.Errorf("%w: %s has no id", ErrNotPersisted, obj.Type().Name())
		}
	}
	return nil
}

func observe(op string, n int) {
	metrics.GetOrCreateHistogram(fmt.Sprintf(`duid_persist_batch_size{op=%q}`, op)).Update(float64(n))
}

func failed(op string) {
	metrics.GetOrCreateCounter(fmt.Sprintf(`duid_persist_failures_total{op=%q}`, op)).Inc()
}
