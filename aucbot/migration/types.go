// types.go
package migration

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// MongoUser represents a user in the legacy MongoDB export. Only the fields
// the auction house needs survive the import; the rest of the legacy profile
// is dropped.
type MongoUser struct {
	ID          primitive.ObjectID `bson:"_id"`
	DiscordID   string             `bson:"discord_id"`
	Username    string             `bson:"username"`
	Exp         float64            `bson:"exp"`
	Hero        string             `bson:"hero"`
	HeroChanged time.Time          `bson:"herochanged"`
	Effects     []string           `bson:"effects"`
	Joined      time.Time          `bson:"joined"`
	UpdatedAt   time.Time          `bson:"updated_at"`
}

// MongoCard represents a card definition in the legacy export.
type MongoCard struct {
	ID        primitive.ObjectID `bson:"_id"`
	CardID    int32              `bson:"id"`
	Name      string             `bson:"name"`
	Level     int32              `bson:"level"`
	ColID     string             `bson:"col"`
	Tags      string             `bson:"tags"` // Tags as string in MongoDB
	Added     time.Time          `bson:"added"`
	UpdatedAt time.Time          `bson:"updatedAt"`
}

// MongoUserCard represents a user's card copies in the legacy export.
type MongoUserCard struct {
	ID        primitive.ObjectID `bson:"_id"`
	UserID    string             `bson:"userid"`
	CardID    *int32             `bson:"cardid"` // *int32 to handle nulls
	Fav       bool               `bson:"fav"`
	Amount    int32              `bson:"amount"`
	Obtained  time.Time          `bson:"obtained"`
	UpdatedAt time.Time          `bson:"updated_at"`
}

// MongoAuction represents an auction in the legacy export.
type MongoAuction struct {
	ID         primitive.ObjectID `bson:"_id"`
	AuctionID  string             `bson:"id"`
	Finished   bool               `bson:"finished"`
	Cancelled  bool               `bson:"cancelled"`
	Price      int64              `bson:"price"`
	HighBid    int64              `bson:"highbid"`
	Card       int32              `bson:"card"`
	Bids       []MongoAuctionBid  `bson:"bids"`
	Author     string             `bson:"author"`
	Expires    time.Time          `bson:"expires"`
	Time       time.Time          `bson:"time"`
	Guild      string             `bson:"guild"`
	LastBidder string             `bson:"lastbidder"`
	HideBid    bool               `bson:"hidebid"`
}

// MongoAuctionBid represents a bid within a legacy auction.
type MongoAuctionBid struct {
	User string    `bson:"user"`
	Bid  int64     `bson:"bid"`
	Time time.Time `bson:"time"`
}

// MongoTransaction represents a settled-sale record in the legacy export.
type MongoTransaction struct {
	ID         primitive.ObjectID `bson:"_id"`
	AuctionID  string             `bson:"auc_id"`
	Price      int64              `bson:"price"`
	From       string             `bson:"from_id"`
	FromName   string             `bson:"from"`
	To         string             `bson:"to_id"`
	ToName     string             `bson:"to"`
	Card       int32              `bson:"card"`
	Status     string             `bson:"status"`
	Time       time.Time          `bson:"time"`
}

// MigrationStats tracks migration progress and issues
type MigrationStats struct {
	Tables         map[string]*TableStats `json:"tables"`
	StartTime      time.Time              `json:"start_time"`
	EndTime        time.Time              `json:"end_time"`
	TotalErrors    int                    `json:"total_errors"`
	TotalSkipped   int                    `json:"total_skipped"`
	TotalProcessed int                    `json:"total_processed"`
}

// TableStats tracks stats for individual tables
type TableStats struct {
	TableName  string `json:"table_name"`
	Processed  int    `json:"processed"`
	Successful int    `json:"successful"`
	Skipped    int    `json:"skipped"`
	Errors     int    `json:"errors"`
}
