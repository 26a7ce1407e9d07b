package repository

import (
	"go.mongodb.org/mongo-driver/bson"

	"github.com/vendue/goapi/base/ctx"
	"github.com/vendue/goapi/base/log"
	"github.com/vendue/goapi/domain"
	"github.com/vendue/goapi/domain/listing"
	"github.com/vendue/goapi/service/query"
)

const eventPageSize = 500

type activityImpl struct {
	q query.Mongo
}

// NewActivity creates the mongo-backed lifecycle event archive.
func NewActivity(q query.Mongo) listing.EventRepo {
	return &activityImpl{q: q}
}

func (im *activityImpl) Append(c ctx.Ctx, e *listing.Event) error {
	if err := im.q.Insert(c, domain.TableListingEvents, e); err != nil {
		c.WithFields(log.Fields{
			"err":       err,
			"listingId": e.ListingId,
			"kind":      e.Kind,
		}).Error("failed to insert listing event")
		return err
	}
	return nil
}

func (im *activityImpl) FindByListing(c ctx.Ctx, id domain.ListingId) ([]*listing.Event, error) {
	res := []*listing.Event{}
	qry := bson.M{"listingId": id}
	if err := im.q.Search(c, domain.TableListingEvents, 0, eventPageSize, "timestamp", qry, &res); err != nil {
		c.WithFields(log.Fields{
			"err":       err,
			"listingId": id,
		}).Error("failed to search listing events")
		return nil, err
	}
	return res, nil
}
