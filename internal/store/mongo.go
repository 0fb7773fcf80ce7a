package store

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/safemeridian/chaincfg/internal/chains"
	"github.com/safemeridian/chaincfg/pkg/audit"
	"github.com/safemeridian/chaincfg/pkg/errors"
)

const (
	chainsCollection   = "chains"
	featuresCollection = "features"
	walletsCollection  = "wallets"
	appsCollection     = "safe_apps"
	reportsCollection  = "reports"
	connectTimeout     = 10 * time.Second
)

// Mongo is a Store backed by MongoDB. Chains live in the "chains"
// collection keyed by chain ID, reports in "reports" keyed by UUID.
type Mongo struct {
	client   *mongo.Client
	chains   *mongo.Collection
	features *mongo.Collection
	wallets  *mongo.Collection
	apps     *mongo.Collection
	reports  *mongo.Collection
}

// NewMongo connects to MongoDB and verifies the connection with a ping.
func NewMongo(ctx context.Context, uri, database string) (*Mongo, error) {
	ctx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "cannot connect to mongodb")
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "mongodb ping failed")
	}

	db := client.Database(database)
	return &Mongo{
		client:   client,
		chains:   db.Collection(chainsCollection),
		features: db.Collection(featuresCollection),
		wallets:  db.Collection(walletsCollection),
		apps:     db.Collection(appsCollection),
		reports:  db.Collection(reportsCollection),
	}, nil
}

func (m *Mongo) UpsertChain(ctx context.Context, c *chains.Chain) (bool, error) {
	res, err := m.chains.ReplaceOne(ctx,
		bson.M{"_id": c.ID},
		c,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeStorage, err, "upsert chain %d", c.ID)
	}
	return res.UpsertedCount > 0, nil
}

func (m *Mongo) GetChain(ctx context.Context, id int64) (*chains.Chain, error) {
	var c chains.Chain
	err := m.chains.FindOne(ctx, bson.M{"_id": id}).Decode(&c)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeChainNotFound, "chain %d not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "get chain %d", id)
	}
	return &c, nil
}

func (m *Mongo) ListChains(ctx context.Context) ([]*chains.Chain, error) {
	cur, err := m.chains.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list chains")
	}
	defer cur.Close(ctx)

	var out []*chains.Chain
	for cur.Next(ctx) {
		var c chains.Chain
		if err := cur.Decode(&c); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode chain")
		}
		out = append(out, &c)
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list chains")
	}
	return out, nil
}

// keyDoc stores one feature or wallet key.
type keyDoc struct {
	Key string `bson:"_id"`
}

func (m *Mongo) AddFeatures(ctx context.Context, keys []string) (int, error) {
	return addKeyDocs(ctx, m.features, keys)
}

func (m *Mongo) ListFeatures(ctx context.Context) ([]string, error) {
	return listKeyDocs(ctx, m.features)
}

func (m *Mongo) AddWallets(ctx context.Context, keys []string) (int, error) {
	return addKeyDocs(ctx, m.wallets, keys)
}

func (m *Mongo) ListWallets(ctx context.Context) ([]string, error) {
	return listKeyDocs(ctx, m.wallets)
}

func addKeyDocs(ctx context.Context, coll *mongo.Collection, keys []string) (int, error) {
	added := 0
	for _, k := range keys {
		res, err := coll.UpdateOne(ctx,
			bson.M{"_id": k},
			bson.M{"$setOnInsert": keyDoc{Key: k}},
			options.Update().SetUpsert(true),
		)
		if err != nil {
			return added, errors.Wrap(errors.ErrCodeStorage, err, "add key %s", k)
		}
		if res.UpsertedCount > 0 {
			added++
		}
	}
	return added, nil
}

func listKeyDocs(ctx context.Context, coll *mongo.Collection) ([]string, error) {
	cur, err := coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list keys")
	}
	defer cur.Close(ctx)

	var out []string
	for cur.Next(ctx) {
		var doc keyDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode key")
		}
		out = append(out, doc.Key)
	}
	return out, cur.Err()
}

func (m *Mongo) UpsertSafeApp(ctx context.Context, app *chains.SafeApp) (bool, error) {
	res, err := m.apps.ReplaceOne(ctx,
		bson.M{"_id": app.URL},
		app,
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return false, errors.Wrap(errors.ErrCodeStorage, err, "upsert safe app %s", app.URL)
	}
	return res.UpsertedCount > 0, nil
}

func (m *Mongo) ListSafeApps(ctx context.Context) ([]*chains.SafeApp, error) {
	cur, err := m.apps.Find(ctx, bson.M{}, options.Find().SetSort(bson.M{"_id": 1}))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "list safe apps")
	}
	defer cur.Close(ctx)

	var out []*chains.SafeApp
	for cur.Next(ctx) {
		var a chains.SafeApp
		if err := cur.Decode(&a); err != nil {
			return nil, errors.Wrap(errors.ErrCodeStorage, err, "decode safe app")
		}
		out = append(out, &a)
	}
	return out, cur.Err()
}

// reportDoc wraps an audit report for storage, since reports use JSON tags
// and Mongo needs a stable _id.
type reportDoc struct {
	ID     string       `bson:"_id"`
	Report audit.Report `bson:"report"`
}

func (m *Mongo) SaveReport(ctx context.Context, r *audit.Report) error {
	_, err := m.reports.ReplaceOne(ctx,
		bson.M{"_id": r.ID},
		reportDoc{ID: r.ID, Report: *r},
		options.Replace().SetUpsert(true),
	)
	if err != nil {
		return errors.Wrap(errors.ErrCodeStorage, err, "save report %s", r.ID)
	}
	return nil
}

func (m *Mongo) GetReport(ctx context.Context, id string) (*audit.Report, error) {
	var doc reportDoc
	err := m.reports.FindOne(ctx, bson.M{"_id": id}).Decode(&doc)
	if err == mongo.ErrNoDocuments {
		return nil, errors.New(errors.ErrCodeReportNotFound, "report %s not found", id)
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeStorage, err, "get report %s", id)
	}
	return &doc.Report, nil
}

func (m *Mongo) Close(ctx context.Context) error {
	return m.client.Disconnect(ctx)
}
