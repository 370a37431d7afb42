package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.uber.org/zap"

	"github.com/opencouncil/membership/internal/application/port"
	"github.com/opencouncil/membership/internal/domain/entity"
	"github.com/opencouncil/membership/internal/domain/workflow"
)

// TransitionRepo implements port.TransitionRepository over the
// workflow_transitions collection. Rows are master data: this engine only
// reads them, except for the bootstrap seed.
type TransitionRepo struct {
	col    *mongo.Collection
	logger *zap.Logger
}

var _ port.TransitionRepository = (*TransitionRepo)(nil)

// NewTransitionRepo creates the transition repository.
func NewTransitionRepo(db *Database, logger *zap.Logger) *TransitionRepo {
	return &TransitionRepo{
		col:    db.db.Collection(colTransitions),
		logger: logger,
	}
}

// GetTransition returns the row for the given status, or (nil, nil) when the
// table has none. Callers treat absence as "no legal transition".
func (r *TransitionRepo) GetTransition(ctx context.Context, workflowType, currentStatus string) (*entity.WorkflowTransition, error) {
	var t entity.WorkflowTransition
	err := r.col.FindOne(ctx, bson.M{
		"workflowType":  workflowType,
		"currentStatus": currentStatus,
	}).Decode(&t)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get transition %s/%s: %v",
			workflow.ErrPersistence, workflowType, currentStatus, err)
	}
	return &t, nil
}

// GetTransitionByOrder returns the row at the given order, or (nil, nil).
func (r *TransitionRepo) GetTransitionByOrder(ctx context.Context, workflowType string, order int) (*entity.WorkflowTransition, error) {
	var t entity.WorkflowTransition
	err := r.col.FindOne(ctx, bson.M{
		"workflowType": workflowType,
		"order":        order,
	}).Decode(&t)
	if err != nil {
		if isNoDocuments(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: get transition %s order %d: %v",
			workflow.ErrPersistence, workflowType, order, err)
	}
	return &t, nil
}

// GetAllTransitions returns the full ladder for a workflow type, ordered.
func (r *TransitionRepo) GetAllTransitions(ctx context.Context, workflowType string) ([]entity.WorkflowTransition, error) {
	opts := options.Find().SetSort(bson.D{{Key: "order", Value: 1}})
	cur, err := r.col.Find(ctx, bson.M{"workflowType": workflowType}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: list transitions %s: %v", workflow.ErrPersistence, workflowType, err)
	}
	defer cur.Close(ctx)

	var rows []entity.WorkflowTransition
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("%w: decode transitions: %v", workflow.ErrPersistence, err)
	}
	return rows, nil
}

// Seed upserts the configured rows keyed on (workflowType, currentStatus).
// Re-running the seed is safe; rows changed by master data keep their shape.
func (r *TransitionRepo) Seed(ctx context.Context, rows []entity.WorkflowTransition) error {
	for _, row := range rows {
		filter := bson.M{
			"workflowType":  row.WorkflowType,
			"currentStatus": row.CurrentStatus,
		}
		update := bson.M{"$set": row}
		_, err := r.col.UpdateOne(ctx, filter, update, options.UpdateOne().SetUpsert(true))
		if err != nil {
			return fmt.Errorf("%w: seed transition %s/%s: %v",
				workflow.ErrPersistence, row.WorkflowType, row.CurrentStatus, err)
		}
	}

	r.logger.Info("Transition table seeded", zap.Int("rows", len(rows)))
	return nil
}
