// Package mongostore implements ports.Store on MongoDB with one collection
// per entity: users, portfolios and bots.
package mongostore

import (
	"context"
	"errors"
	"time"

	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/betbot/tradedesk/internal/domain"
	"github.com/betbot/tradedesk/internal/ports"
	"github.com/betbot/tradedesk/pkg/logger"
)

var _ ports.Store = (*Store)(nil)

type Store struct {
	client     *mongo.Client
	users      *mongo.Collection
	portfolios *mongo.Collection
	bots       *mongo.Collection
}

// Open connects to uri, selects database and ensures the indexes exist.
func Open(ctx context.Context, uri, database string) (*Store, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		// 嵌套的 bot config 解码成 map 而不是 bson.D，便于 JSON 输出
		SetBSONOptions(&options.BSONOptions{DefaultDocumentM: true})
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "connect mongo")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, pkgerrors.Wrap(err, "ping mongo")
	}
	db := client.Database(database)
	s := &Store{
		client:     client,
		users:      db.Collection("users"),
		portfolios: db.Collection("portfolios"),
		bots:       db.Collection("bots"),
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	logger.Infof("mongostore: connected, database=%s", database)
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	unique := options.Index().SetUnique(true)
	specs := []struct {
		coll   *mongo.Collection
		models []mongo.IndexModel
	}{
		{s.users, []mongo.IndexModel{
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
		}},
		{s.portfolios, []mongo.IndexModel{
			{Keys: bson.D{{Key: "user_id", Value: 1}}, Options: unique},
		}},
		{s.bots, []mongo.IndexModel{
			{Keys: bson.D{{Key: "id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: 1}}},
		}},
	}
	for _, spec := range specs {
		if _, err := spec.coll.Indexes().CreateMany(ctx, spec.models); err != nil {
			return pkgerrors.Wrapf(err, "create indexes on %s", spec.coll.Name())
		}
	}
	return nil
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.client.Disconnect(ctx)
}

type userRecord struct {
	ID           string    `bson:"id"`
	Email        string    `bson:"email"`
	Name         string    `bson:"name"`
	PasswordHash string    `bson:"password_hash"`
	CreatedAt    time.Time `bson:"created_at"`
}

type portfolioRecord struct {
	ID         string           `bson:"id"`
	UserID     string           `bson:"user_id"`
	Exchange   string           `bson:"exchange"`
	TotalValue float64          `bson:"total_value"`
	Holdings   []domain.Holding `bson:"holdings"`
	UpdatedAt  time.Time        `bson:"updated_at"`
}

type botRecord struct {
	ID        string           `bson:"id"`
	UserID    string           `bson:"user_id"`
	Name      string           `bson:"name"`
	Type      domain.BotType   `bson:"bot_type"`
	Pair      string           `bson:"pair"`
	Status    domain.BotStatus `bson:"status"`
	Profit    float64          `bson:"profit"`
	Config    domain.BotConfig `bson:"config"`
	CreatedAt time.Time        `bson:"created_at"`
	UpdatedAt time.Time        `bson:"updated_at"`
}

func (s *Store) InsertUser(ctx context.Context, u *domain.User) error {
	_, err := s.users.InsertOne(ctx, userRecord{
		ID: u.ID, Email: u.Email, Name: u.Name, PasswordHash: u.PasswordHash, CreatedAt: u.CreatedAt,
	})
	if mongo.IsDuplicateKeyError(err) {
		return domain.ErrDuplicateIdentity
	}
	return pkgerrors.Wrap(err, "insert user")
}

func (s *Store) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.findUser(ctx, bson.M{"email": email})
}

func (s *Store) FindUserByID(ctx context.Context, userID string) (*domain.User, error) {
	return s.findUser(ctx, bson.M{"id": userID})
}

func (s *Store) findUser(ctx context.Context, filter bson.M) (*domain.User, error) {
	var rec userRecord
	if err := s.users.FindOne(ctx, filter).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "find user")
	}
	return &domain.User{ID: rec.ID, Email: rec.Email, Name: rec.Name, PasswordHash: rec.PasswordHash, CreatedAt: rec.CreatedAt}, nil
}

func (s *Store) ListUserIDs(ctx context.Context) ([]string, error) {
	cur, err := s.users.Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"id": 1}))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list users")
	}
	var recs []userRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, pkgerrors.Wrap(err, "list users")
	}
	ids := make([]string, 0, len(recs))
	for _, r := range recs {
		ids = append(ids, r.ID)
	}
	return ids, nil
}

func (r portfolioRecord) toDomain() *domain.Portfolio {
	return &domain.Portfolio{
		ID: r.ID, UserID: r.UserID, Exchange: r.Exchange,
		TotalValue: r.TotalValue, Holdings: r.Holdings, UpdatedAt: r.UpdatedAt,
	}
}

func (s *Store) InsertPortfolioIfAbsent(ctx context.Context, p *domain.Portfolio) (*domain.Portfolio, bool, error) {
	holdings := p.Holdings
	if holdings == nil {
		holdings = []domain.Holding{}
	}
	rec := portfolioRecord{
		ID: p.ID, UserID: p.UserID, Exchange: p.Exchange,
		TotalValue: p.TotalValue, Holdings: holdings, UpdatedAt: p.UpdatedAt,
	}
	var stored portfolioRecord
	err := s.portfolios.FindOneAndUpdate(ctx,
		bson.M{"user_id": p.UserID},
		bson.M{"$setOnInsert": rec},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&stored)
	if mongo.IsDuplicateKeyError(err) {
		// 并发 upsert 撞上唯一索引：另一个请求已经创建
		got, ferr := s.FindPortfolioByUser(ctx, p.UserID)
		return got, false, ferr
	}
	if err != nil {
		return nil, false, pkgerrors.Wrap(err, "upsert portfolio")
	}
	return stored.toDomain(), stored.ID == p.ID, nil
}

func (s *Store) FindPortfolioByUser(ctx context.Context, userID string) (*domain.Portfolio, error) {
	var rec portfolioRecord
	if err := s.portfolios.FindOne(ctx, bson.M{"user_id": userID}).Decode(&rec); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, pkgerrors.Wrap(err, "find portfolio")
	}
	return rec.toDomain(), nil
}

func (s *Store) ReplacePortfolioValuation(ctx context.Context, p *domain.Portfolio) error {
	holdings := p.Holdings
	if holdings == nil {
		holdings = []domain.Holding{}
	}
	res, err := s.portfolios.UpdateOne(ctx,
		bson.M{"user_id": p.UserID},
		bson.M{"$set": bson.M{
			"holdings":    holdings,
			"total_value": p.TotalValue,
			"updated_at":  p.UpdatedAt,
		}},
	)
	if err != nil {
		return pkgerrors.Wrap(err, "update portfolio")
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) InsertBot(ctx context.Context, b *domain.Bot) error {
	cfg := b.Config
	if cfg == nil {
		cfg = domain.BotConfig{}
	}
	_, err := s.bots.InsertOne(ctx, botRecord{
		ID: b.ID, UserID: b.UserID, Name: b.Name, Type: b.Type, Pair: b.Pair,
		Status: b.Status, Profit: b.Profit, Config: cfg,
		CreatedAt: b.CreatedAt, UpdatedAt: b.UpdatedAt,
	})
	return pkgerrors.Wrap(err, "insert bot")
}

func (s *Store) ListBotsByOwner(ctx context.Context, userID string) ([]domain.Bot, error) {
	cur, err := s.bots.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "id", Value: 1}}))
	if err != nil {
		return nil, pkgerrors.Wrap(err, "list bots")
	}
	var recs []botRecord
	if err := cur.All(ctx, &recs); err != nil {
		return nil, pkgerrors.Wrap(err, "list bots")
	}
	out := make([]domain.Bot, 0, len(recs))
	for _, r := range recs {
		out = append(out, domain.Bot{
			ID: r.ID, UserID: r.UserID, Name: r.Name, Type: r.Type, Pair: r.Pair,
			Status: r.Status, Profit: r.Profit, Config: plainConfig(r.Config),
			CreatedAt: r.CreatedAt, UpdatedAt: r.UpdatedAt,
		})
	}
	return out, nil
}

func (s *Store) UpdateBotStatus(ctx context.Context, userID, botID string, status domain.BotStatus, at time.Time) error {
	res, err := s.bots.UpdateOne(ctx,
		bson.M{"id": botID, "user_id": userID},
		bson.M{"$set": bson.M{"status": status, "updated_at": at}},
	)
	if err != nil {
		return pkgerrors.Wrap(err, "update bot status")
	}
	if res.MatchedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteBot(ctx context.Context, userID, botID string) error {
	res, err := s.bots.DeleteOne(ctx, bson.M{"id": botID, "user_id": userID})
	if err != nil {
		return pkgerrors.Wrap(err, "delete bot")
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Store) CountBotsByOwner(ctx context.Context, userID string) (int, error) {
	n, err := s.bots.CountDocuments(ctx, bson.M{"user_id": userID})
	if err != nil {
		return 0, pkgerrors.Wrap(err, "count bots")
	}
	return int(n), nil
}

// plainConfig strips the driver's named container types so callers see the
// same map[string]any / []any shapes the other stores return.
func plainConfig(cfg domain.BotConfig) domain.BotConfig {
	out := make(domain.BotConfig, len(cfg))
	for k, v := range cfg {
		out[k] = plainValue(v)
	}
	return out
}

func plainValue(v any) any {
	switch t := v.(type) {
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = plainValue(e)
		}
		return out
	case primitive.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = plainValue(e)
		}
		return out
	case primitive.D:
		out := make(map[string]any, len(t))
		for _, e := range t {
			out[e.Key] = plainValue(e.Value)
		}
		return out
	default:
		return v
	}
}
