package database

import (
	"context"

	"github.com/rs/zerolog/log"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

func createIndexes() {
	createRealtimeTripUpdateIndexes()
}

func createRealtimeTripUpdateIndexes() {
	collection := GetCollection("realtime_trip_updates")

	_, err := collection.Indexes().CreateMany(context.Background(), []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "primaryidentifier", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{
				{Key: "feedid", Value: 1},
				{Key: "servicedate", Value: 1},
			},
		},
		{
			Keys: bson.D{{Key: "tripref", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "stops.stopref", Value: 1}},
		},
		{
			Keys: bson.D{
				{Key: "datasource.provider", Value: 1},
				{Key: "datasource.timestamp", Value: 1},
			},
		},
	}, options.CreateIndexes())
	if err != nil {
		log.Error().Err(err).Msg("Creating Index")
	}
}
