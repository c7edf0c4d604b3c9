package mongodb

import (
	"github.com/phrazzld/taskpulse-api/internal/store"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// taskSort orders by due date with undated tasks last, then creation time.
var taskSort = bson.D{
	{Key: "no_due_date", Value: 1},
	{Key: "due_date", Value: 1},
	{Key: "created_at", Value: 1},
	{Key: "_id", Value: 1},
}

// taskQuery translates filter into a query document and find options.
func taskQuery(filter store.TaskFilter) (bson.M, *options.FindOptions) {
	query := bson.M{}

	if filter.OwnerID != nil {
		query["user_id"] = filter.OwnerID.String()
	}

	if filter.HasDueBound() {
		due := bson.M{"$type": "date"}
		if filter.DueAfter != nil {
			due["$gt"] = filter.DueAfter.UTC()
		}
		if filter.DueAtOrBefore != nil {
			due["$lte"] = filter.DueAtOrBefore.UTC()
		}
		if filter.DueBefore != nil {
			due["$lt"] = filter.DueBefore.UTC()
		}
		query["due_date"] = due
	}

	if filter.Completed != nil {
		query["completed"] = *filter.Completed
	}

	if filter.Status != nil || filter.StatusNot != nil {
		status := bson.M{}
		if filter.Status != nil {
			status["$eq"] = string(*filter.Status)
		}
		if filter.StatusNot != nil {
			status["$ne"] = string(*filter.StatusNot)
		}
		query["status"] = status
	}

	if filter.Priority != nil {
		query["priority"] = string(*filter.Priority)
	}

	if len(filter.Tags) > 0 {
		query["tags"] = bson.M{"$in": filter.Tags}
	}

	opts := options.Find().SetSort(taskSort)
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	return query, opts
}

func userQuery(filter store.UserFilter) (bson.M, *options.FindOptions) {
	query := bson.M{}
	if filter.NotificationEnabled != nil {
		query["notification_enabled"] = *filter.NotificationEnabled
	}

	opts := options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	if filter.Limit > 0 {
		opts.SetLimit(int64(filter.Limit))
	}
	if filter.Offset > 0 {
		opts.SetSkip(int64(filter.Offset))
	}
	return query, opts
}
