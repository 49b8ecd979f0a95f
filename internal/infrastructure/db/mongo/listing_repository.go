package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mvcmarket/marketplace/internal/core/domain"
)

const collectionListings = "listings"

type listingDoc struct {
	domain.Listing `bson:",inline"`
	Seq            int64 `bson:"seq"`
}

// ListingRepository stores the catalog in one collection; seq keeps the
// insertion order List reports.
type ListingRepository struct {
	col *mongo.Collection
}

func NewListingRepository(db *mongo.Database) *ListingRepository {
	return &ListingRepository{col: db.Collection(collectionListings)}
}

func (r *ListingRepository) Insert(ctx context.Context, l domain.Listing) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, listingDoc{Listing: l, Seq: seq()}); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateListing
		}
		return fmt.Errorf("insert listing: %w", err)
	}
	return nil
}

func (r *ListingRepository) Delete(ctx context.Context, id string) (*domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc listingDoc
	if err := r.col.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("delete listing: %w", err)
	}
	return &doc.Listing, nil
}

func (r *ListingRepository) DeleteByOwner(ctx context.Context, ownerID string) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"user_id": ownerID})
	if err != nil {
		return 0, fmt.Errorf("delete listings of %s: %w", ownerID, err)
	}
	return int(res.DeletedCount), nil
}

func (r *ListingRepository) FindByID(ctx context.Context, id string) (*domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc listingDoc
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrListingNotFound
		}
		return nil, fmt.Errorf("find listing: %w", err)
	}
	return &doc.Listing, nil
}

func (r *ListingRepository) List(ctx context.Context) ([]domain.Listing, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}
	var docs []listingDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode listings: %w", err)
	}

	out := make([]domain.Listing, len(docs))
	for i := range docs {
		out[i] = docs[i].Listing
	}
	return out, nil
}

// Replace is not atomic across the delete and the insert; a reader may briefly
// observe the kind empty.
func (r *ListingRepository) Replace(ctx context.Context, kind domain.ListingKind, ls []domain.Listing) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.DeleteMany(ctx, bson.M{"kind": kind}); err != nil {
		return fmt.Errorf("replace %s: clear: %w", kind, err)
	}
	if len(ls) == 0 {
		return nil
	}

	docs := make([]any, len(ls))
	for i, l := range ls {
		l.Kind = kind
		docs[i] = listingDoc{Listing: l, Seq: seq()}
	}
	if _, err := r.col.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("replace %s: insert: %w", kind, err)
	}
	return nil
}

// Seed inserts ls when the collection is empty.
func (r *ListingRepository) Seed(ctx context.Context, ls []domain.Listing) error {
	n, err := r.col.EstimatedDocumentCount(ctx)
	if err != nil {
		return fmt.Errorf("count listings: %w", err)
	}
	if n > 0 {
		return nil
	}
	for _, l := range ls {
		if err := r.Insert(ctx, l); err != nil && !errors.Is(err, domain.ErrDuplicateListing) {
			return err
		}
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the listings collection.
func (r *ListingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "seq", Value: 1}}},
		{Keys: bson.D{{Key: "user_id", Value: 1}}},
		{Keys: bson.D{{Key: "kind", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
