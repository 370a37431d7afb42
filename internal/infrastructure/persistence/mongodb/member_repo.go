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

// MemberRepo implements port.MemberRepository over the members collection.
type MemberRepo struct {
	col    *mongo.Collection
	logger *zap.Logger
}

var _ port.MemberRepository = (*MemberRepo)(nil)

// NewMemberRepo creates the member repository.
func NewMemberRepo(db *Database, logger *zap.Logger) *MemberRepo {
	return &MemberRepo{
		col:    db.db.Collection(colMembers),
		logger: logger,
	}
}

// Create inserts a new member document.
func (r *MemberRepo) Create(ctx context.Context, m *entity.Member) error {
	ts := now()
	m.CreatedAt = ts
	m.UpdatedAt = ts

	if _, err := r.col.InsertOne(ctx, m); err != nil {
		if isDuplicateKey(err) {
			return fmt.Errorf("%w: application number %s already exists",
				workflow.ErrConflict, m.ApplicationNumber)
		}
		return fmt.Errorf("%w: insert member: %v", workflow.ErrPersistence, err)
	}

	r.logger.Info("Member created",
		zap.String("member_id", m.ID),
		zap.String("application_number", m.ApplicationNumber))
	return nil
}

// GetByID returns workflow.ErrNotFound when no document matches.
func (r *MemberRepo) GetByID(ctx context.Context, id string) (*entity.Member, error) {
	var m entity.Member
	err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%w: member %s", workflow.ErrNotFound, id)
		}
		return nil, fmt.Errorf("%w: get member %s: %v", workflow.ErrPersistence, id, err)
	}
	return &m, nil
}

// GetByApplicationNumber looks a member up by its human-facing reference.
func (r *MemberRepo) GetByApplicationNumber(ctx context.Context, applicationNumber string) (*entity.Member, error) {
	var m entity.Member
	err := r.col.FindOne(ctx, bson.M{"applicationNumber": applicationNumber}).Decode(&m)
	if err != nil {
		if isNoDocuments(err) {
			return nil, fmt.Errorf("%w: application %s", workflow.ErrNotFound, applicationNumber)
		}
		return nil, fmt.Errorf("%w: get application %s: %v", workflow.ErrPersistence, applicationNumber, err)
	}
	return &m, nil
}

// List returns members newest first.
func (r *MemberRepo) List(ctx context.Context, limit, offset int) ([]*entity.Member, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetLimit(int64(limit)).
		SetSkip(int64(offset))

	cur, err := r.col.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("%w: list members: %v", workflow.ErrPersistence, err)
	}
	defer cur.Close(ctx)

	var members []*entity.Member
	if err := cur.All(ctx, &members); err != nil {
		return nil, fmt.Errorf("%w: decode members: %v", workflow.ErrPersistence, err)
	}
	return members, nil
}

// Update replaces all mutable fields of m, conditional on the version the
// caller read. On success m reflects the persisted state, version included.
func (r *MemberRepo) Update(ctx context.Context, m *entity.Member) error {
	next := *m
	next.Version = m.Version + 1
	next.UpdatedAt = now()

	res, err := r.col.ReplaceOne(ctx, bson.M{"_id": m.ID, "version": m.Version}, &next)
	if err != nil {
		return fmt.Errorf("%w: update member %s: %v", workflow.ErrPersistence, m.ID, err)
	}
	if res.MatchedCount == 0 {
		return r.classifyMiss(ctx, m.ID)
	}

	*m = next
	return nil
}

// AppendApproval pushes the history entry and moves the status in one
// conditional update. The filter also refuses a second entry for the same
// (order, approverEmail) pair, so a duplicate vote loses the race even if two
// requests read the same version.
func (r *MemberRepo) AppendApproval(ctx context.Context, id string, version int64, newStatus string, e entity.ApprovalEntry) error {
	filter := bson.M{
		"_id":     id,
		"version": version,
		"approvalHistory": bson.M{
			"$not": bson.M{"$elemMatch": bson.M{
				"order":         e.Order,
				"approverEmail": e.ApproverEmail,
			}},
		},
	}
	update := bson.M{
		"$push": bson.M{"approvalHistory": e},
		"$set":  bson.M{"status": newStatus, "updatedAt": now()},
		"$inc":  bson.M{"version": 1},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("%w: append approval for %s: %v", workflow.ErrPersistence, id, err)
	}
	if res.MatchedCount == 0 {
		return r.classifyMiss(ctx, id)
	}

	r.logger.Info("Approval recorded",
		zap.String("member_id", id),
		zap.String("stage", e.ApprovalStage),
		zap.Int("order", e.Order),
		zap.String("status", newStatus))
	return nil
}

// AppendRejection is symmetric to AppendApproval for rejection entries.
func (r *MemberRepo) AppendRejection(ctx context.Context, id string, version int64, newStatus string, e entity.RejectionEntry) error {
	filter := bson.M{
		"_id":     id,
		"version": version,
		"rejectionHistory": bson.M{
			"$not": bson.M{"$elemMatch": bson.M{
				"order":         e.Order,
				"rejectorEmail": e.RejectorEmail,
			}},
		},
	}
	update := bson.M{
		"$push": bson.M{"rejectionHistory": e},
		"$set":  bson.M{"status": newStatus, "updatedAt": now()},
		"$inc":  bson.M{"version": 1},
	}

	res, err := r.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("%w: append rejection for %s: %v", workflow.ErrPersistence, id, err)
	}
	if res.MatchedCount == 0 {
		return r.classifyMiss(ctx, id)
	}

	r.logger.Info("Rejection recorded",
		zap.String("member_id", id),
		zap.String("stage", e.RejectionStage),
		zap.Int("order", e.Order),
		zap.String("status", newStatus))
	return nil
}

// classifyMiss distinguishes a missing document from a version mismatch after
// a conditional update matched nothing.
func (r *MemberRepo) classifyMiss(ctx context.Context, id string) error {
	n, err := r.col.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("%w: classify update miss for %s: %v", workflow.ErrPersistence, id, err)
	}
	if n == 0 {
		return fmt.Errorf("%w: member %s", workflow.ErrNotFound, id)
	}
	return fmt.Errorf("%w: member %s changed concurrently", workflow.ErrConflict, id)
}
