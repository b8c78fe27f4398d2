// Package archive keeps a record of committed realtime state outside the
// process: trip updates in MongoDB and an audit trail of every handled update
// in Elasticsearch.
package archive

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/travigo/timetable-realtime/pkg/ctdf"
	"github.com/travigo/timetable-realtime/pkg/realtime/snapshot"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "realtime_trip_updates"

type BulkWriter interface {
	BulkWrite(ctx context.Context, models []mongo.WriteModel, opts ...*options.BulkWriteOptions) (*mongo.BulkWriteResult, error)
}

// MongoListener collects the updates written to the buffer and upserts them
// once they are committed
type MongoListener struct {
	Collection BulkWriter
	Timeout    time.Duration

	mutex   sync.Mutex
	pending map[string]*ctdf.RealTimeTripUpdate
}

func NewMongoListener(collection BulkWriter) *MongoListener {
	return &MongoListener{
		Collection: collection,
		Timeout:    30 * time.Second,
		pending:    map[string]*ctdf.RealTimeTripUpdate{},
	}
}

func (l *MongoListener) OnTripUpdate(update *ctdf.RealTimeTripUpdate) {
	l.mutex.Lock()
	defer l.mutex.Unlock()

	l.pending[ctdf.ArchivedTripUpdateIdentifier(update.FeedID, update.TripID(), update.ServiceDate)] = update
}

func (l *MongoListener) OnCommit(committed *snapshot.Snapshot) {
	l.mutex.Lock()
	pending := l.pending
	l.pending = map[string]*ctdf.RealTimeTripUpdate{}
	l.mutex.Unlock()

	if len(pending) == 0 {
		return
	}

	location := committed.Model().TimeZone

	var operations []mongo.WriteModel
	for identifier, update := range pending {
		archived := ctdf.NewArchivedTripUpdate(update, location, committed.Committed)
		archived.SnapshotSequence = committed.Sequence

		bsonRep, err := bson.Marshal(bson.M{"$set": archived})
		if err != nil {
			log.Error().Err(err).Str("trip", update.TripID()).Msg("Failed to encode archived trip update")
			continue
		}

		updateModel := mongo.NewUpdateOneModel()
		updateModel.SetFilter(bson.M{"primaryidentifier": identifier})
		updateModel.SetUpdate(bsonRep)
		updateModel.SetUpsert(true)

		operations = append(operations, updateModel)
	}

	ctx, cancel := context.WithTimeout(context.Background(), l.Timeout)
	defer cancel()

	if _, err := l.Collection.BulkWrite(ctx, operations, options.BulkWrite().SetOrdered(false)); err != nil {
		log.Error().Err(err).Int("updates", len(operations)).Msg("Failed to archive realtime trip updates")
		return
	}

	log.Debug().Int("updates", len(operations)).Int64("sequence", committed.Sequence).Msg("Archived realtime trip updates")
}
