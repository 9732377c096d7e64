package repositories

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// Collection names used by the Mongo repositories.
const (
	ProductsCollection = "products"
	OrdersCollection   = "orders"
	UsersCollection    = "users"
)

// NewMongoSet builds the repositories of a MongoDB database.
func NewMongoSet(db *mongo.Database) *Set {
	return &Set{
		Products: NewMongoProductRepository(db),
		Orders:   NewMongoOrderRepository(db),
		Users:    NewMongoUserRepository(db),
	}
}

func byID(id string) bson.M {
	return bson.M{"_id": id}
}

var newestFirst = bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: 1}}
