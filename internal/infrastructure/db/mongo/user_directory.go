package mongo

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/mvcmarket/marketplace/internal/core/domain"
)

const collectionUsers = "users"

type userDoc struct {
	domain.User `bson:",inline"`
	UsernameKey string `bson:"username_key"`
	Seq         int64  `bson:"seq"`
}

func newUserDoc(u domain.User) userDoc {
	return userDoc{User: u, UsernameKey: domain.UsernameKey(u.Username), Seq: seq()}
}

// UserDirectory is the MongoDB-backed roster. Like the in-memory directory it
// also acts as the "local" credential provider.
type UserDirectory struct {
	col                 *mongo.Collection
	acceptRegistrations bool
	cost                int
}

func NewUserDirectory(db *mongo.Database, acceptRegistrations bool) *UserDirectory {
	return &UserDirectory{
		col:                 db.Collection(collectionUsers),
		acceptRegistrations: acceptRegistrations,
		cost:                bcrypt.DefaultCost,
	}
}

func (d *UserDirectory) Name() string { return "local" }

func (d *UserDirectory) Authenticate(ctx context.Context, username, secret string) (*domain.User, error) {
	u, err := d.FindByUsername(ctx, username)
	if errors.Is(err, domain.ErrUserNotFound) {
		return nil, domain.ErrNotHandled
	}
	if err != nil {
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(secret)) != nil {
		return nil, domain.ErrNotHandled
	}
	return u, nil
}

func (d *UserDirectory) Register(ctx context.Context, username, secret, email string) (*domain.User, error) {
	if !d.acceptRegistrations {
		return nil, domain.ErrNotHandled
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), d.cost)
	if err != nil {
		return nil, err
	}

	n, err := d.Count(ctx)
	if err != nil {
		return nil, err
	}
	next := n + 1
	for {
		if _, err := d.FindByID(ctx, strconv.Itoa(next)); errors.Is(err, domain.ErrUserNotFound) {
			break
		} else if err != nil {
			return nil, err
		}
		next++
	}

	u := domain.User{
		ID:           strconv.Itoa(next),
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
		Role:         domain.RoleUser,
		CreatedAt:    time.Now().UTC(),
	}
	if err := d.insert(ctx, u); err != nil {
		return nil, err
	}
	return &u, nil
}

func (d *UserDirectory) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return d.findOne(ctx, bson.M{"username_key": domain.UsernameKey(username)})
}

func (d *UserDirectory) FindByID(ctx context.Context, id string) (*domain.User, error) {
	return d.findOne(ctx, bson.M{"_id": id})
}

func (d *UserDirectory) List(ctx context.Context) ([]domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := d.col.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "seq", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	var docs []userDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode users: %w", err)
	}
	out := make([]domain.User, len(docs))
	for i := range docs {
		out[i] = docs[i].User
	}
	return out, nil
}

func (d *UserDirectory) Remove(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := d.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("remove user: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (d *UserDirectory) Count(ctx context.Context) (int, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := d.col.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return int(n), nil
}

// Seed inserts users that are not present yet.
func (d *UserDirectory) Seed(ctx context.Context, users []domain.User) error {
	for _, u := range users {
		if err := d.insert(ctx, u); err != nil && !errors.Is(err, domain.ErrUserExists) {
			return err
		}
	}
	return nil
}

// EnsureIndexes creates necessary indexes on the users collection.
func (d *UserDirectory) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username_key", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "seq", Value: 1}}},
	}

	_, err := d.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func (d *UserDirectory) insert(ctx context.Context, u domain.User) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := d.col.InsertOne(ctx, newUserDoc(u)); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrUserExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (d *UserDirectory) findOne(ctx context.Context, filter bson.M) (*domain.User, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var doc userDoc
	if err := d.col.FindOne(ctx, filter).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &doc.User, nil
}
