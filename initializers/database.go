package initializers

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres"
	_ "github.com/lib/pq"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

var DB *goqu.Database

// Mongo holds the prayer wall database.
var Mongo *mongo.Database

func ConnectDB() {
	db, err := sql.Open("postgres", Cfg.DBURL)
	if err != nil {
		Log.WithError(err).Fatal("failed to open postgres")
	}

	err = db.Ping()
	if err != nil {
		Log.WithError(err).Fatal("failed to ping postgres")
	}

	DB = goqu.New("postgres", db)
	Log.Info("connected to postgres")
}

func ConnectMongo() {
	ctx, cancel := context.WithTimeout(context.Background(), Cfg.MongoTimeout)
	defer cancel()

	client, err := mongo.Connect(options.Client().ApplyURI(Cfg.MongoURI))
	if err != nil {
		Log.WithError(err).Fatal("failed to create mongo client")
	}

	if err := client.Ping(ctx, nil); err != nil {
		Log.WithError(err).Fatal("failed to ping mongo")
	}

	Mongo = client.Database(Cfg.MongoDatabase)
	Log.WithField("database", Cfg.MongoDatabase).Info("connected to mongo")
}

func DisconnectMongo(ctx context.Context) {
	if Mongo == nil {
		return
	}
	if err := Mongo.Client().Disconnect(ctx); err != nil {
		Log.WithError(err).Warn("failed to disconnect mongo")
	}
}
